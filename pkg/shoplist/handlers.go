package shoplist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/store"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// User handlers

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (a *App) createUser(ctx context.Context, email, name string) (*models.User, error) {
	user := &models.User{Email: email, Name: name}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// handleCreateUser registers an owner.
//
//	POST /api/users {"email": "ada@example.com", "name": "Ada"}
//
// Answers 201 with the user, 400 when email or name is missing and 409 when the email
// is taken.
func (a *App) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := a.createUser(r.Context(), req.Email, req.Name)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (a *App) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Item handlers

// handleCreateItem appends an item to the end of the owner's list.
//
//	POST /api/users/{userId}/items {"name": "Milk", "quantity": 2}
//
// Quantity defaults to 1. Answers 201 with the item, 400 for an empty name or a
// non-positive quantity and 404 for an unknown owner.
func (a *App) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	var in models.NewItem
	if !decodeBody(w, r, &in) {
		return
	}

	item, err := a.store.CreateItem(r.Context(), owner, in)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	a.publish(models.EventCreated, owner, func(ev *models.Event) { ev.Item = item })
	respondJSON(w, http.StatusCreated, item)
}

// handleListItems answers the owner's items ascending by order index. An owner without
// items, or an unknown owner, gets an empty array.
func (a *App) handleListItems(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	items, err := a.store.ListItems(r.Context(), owner)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

func (a *App) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemFromPath(w, r)
	if !ok {
		return
	}

	item, err := a.store.GetItem(r.Context(), id)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}
	if item == nil {
		a.respondStoreError(w, r, store.ErrItemNotFound)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// handleUpdateItem applies a partial update. The order index cannot be changed here.
//
//	PATCH /api/items/{id}?user_id={userId} {"is_completed": true}
//
// When user_id is given, an item of another owner is reported as not found. An empty body
// only refreshes updated_at and publishes no event.
func (a *App) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemFromPath(w, r)
	if !ok {
		return
	}

	var upd models.ItemUpdate
	if !decodeBody(w, r, &upd) {
		return
	}

	ctx := r.Context()
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		owner, err := models.ParseUserID(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		existing, err := a.store.GetItem(ctx, id)
		if err != nil {
			a.respondStoreError(w, r, err)
			return
		}
		if existing == nil || existing.UserID != owner {
			a.respondStoreError(w, r, store.ErrItemNotFoundOrForbidden)
			return
		}
	}

	item, err := a.store.UpdateItem(ctx, id, upd)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	if !upd.IsEmpty() {
		a.publish(models.EventUpdated, item.UserID, func(ev *models.Event) { ev.Item = item })
	}
	respondJSON(w, http.StatusOK, item)
}

// handleDeleteItem removes an item of the owner and closes the gap in the positions.
//
//	DELETE /api/users/{userId}/items/{id}
//
// Answers {"success": true}, or 404 when the item is missing or belongs to someone else.
func (a *App) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}
	id, ok := itemFromPath(w, r)
	if !ok {
		return
	}

	if err := a.store.DeleteItem(r.Context(), id, owner); err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	a.publish(models.EventDeleted, owner, func(ev *models.Event) { ev.ItemID = &id })
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleReorderItems writes new positions in one batch and answers the full list.
//
//	PUT /api/users/{userId}/items/order {"item_orders": [{"id": "...", "order_index": 0}]}
//
// Answers 403 when any listed item is missing or belongs to someone else; nothing is
// changed in that case.
func (a *App) handleReorderItems(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	var req models.ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	items, err := a.store.ReorderItems(r.Context(), owner, req.ItemOrders)
	if err != nil {
		a.respondStoreError(w, r, err)
		return
	}

	if len(req.ItemOrders) > 0 {
		a.publish(models.EventReordered, owner, func(ev *models.Event) { ev.Items = items })
	}
	respondJSON(w, http.StatusOK, items)
}

// Administration handlers

func (a *App) handleGetReadOnly(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.ReadOnlyState{ReadOnly: a.IsReadOnly()})
}

func (a *App) handleSetReadOnly(w http.ResponseWriter, r *http.Request) {
	var req models.ReadOnlyState
	if !decodeBody(w, r, &req) {
		return
	}
	a.SetReadOnly(req.ReadOnly)
	respondJSON(w, http.StatusOK, models.ReadOnlyState{ReadOnly: a.IsReadOnly()})
}

// handleHealth reports that the server responds, whether it accepts writes and the
// server time as Unix seconds.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "healthy",
		"backend":   a.config.Backend,
		"read_only": a.IsReadOnly(),
		"time":      time.Now().Unix(),
	}
	respondJSON(w, http.StatusOK, response)
}

// Helpers

func ownerFromPath(w http.ResponseWriter, r *http.Request) (models.UserID, bool) {
	owner, err := models.ParseUserID(mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return models.UserID{}, false
	}
	return owner, true
}

func itemFromPath(w http.ResponseWriter, r *http.Request) (models.ItemID, bool) {
	id, err := models.ParseItemID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return models.ItemID{}, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// storeErrors maps store sentinels to HTTP status codes. The sentinel's text is what
// the client sees, without the wrapping context.
var storeErrors = []struct {
	err    error
	status int
}{
	{store.ErrInvalidItem, http.StatusBadRequest},
	{store.ErrInvalidUser, http.StatusBadRequest},
	{store.ErrOwnerNotFound, http.StatusNotFound},
	{store.ErrItemNotFoundOrForbidden, http.StatusNotFound},
	{store.ErrItemNotFound, http.StatusNotFound},
	{store.ErrReorderForbidden, http.StatusForbidden},
	{store.ErrReorderNotContiguous, http.StatusConflict},
	{store.ErrUserExists, http.StatusConflict},
	{store.ErrReadOnly, http.StatusServiceUnavailable},
	{context.Canceled, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusServiceUnavailable},
}

// classify returns the status code and the matching sentinel of err. Unknown errors
// yield 500 and a nil sentinel.
func classify(err error) (int, error) {
	for _, e := range storeErrors {
		if errors.Is(err, e.err) {
			return e.status, e.err
		}
	}
	return http.StatusInternalServerError, nil
}

// respondStoreError answers err with its mapped status. Validation errors keep their
// detail; other known errors are reported by their sentinel text. Unexpected errors are
// logged and their text is not sent to the client.
func (a *App) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status, sentinel := classify(err)
	if sentinel == nil {
		a.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, status, "internal server error")
		return
	}

	msg := sentinel.Error()
	if status == http.StatusBadRequest {
		msg = err.Error()
	}
	respondError(w, status, msg)
}

// respondJSON writes payload as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// respondError writes {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
