package shoplist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// Router returns the HTTP handler serving the API.
//
// # API Endpoints
//
// Health check:
//
//	GET    /health, /api/health                     - Service status and read-only flag
//
// Users:
//
//	POST   /api/users                               - Register an owner
//	GET    /api/users/{id}                          - Get an owner
//
// Items:
//
//	POST   /api/users/{userId}/items                - Append an item (createItem)
//	GET    /api/users/{userId}/items                - List items by position (listItems)
//	PUT    /api/users/{userId}/items/order          - Batch reorder (reorderItems)
//	DELETE /api/users/{userId}/items/{id}           - Delete and renumber (deleteItem)
//	GET    /api/users/{userId}/items/events         - WebSocket change feed
//	GET    /api/items/{id}                          - Get an item
//	PATCH  /api/items/{id}[?user_id={userId}]       - Partial update (updateItem)
//
// Administration:
//
//	GET    /api/admin/read-only                     - Get the read-only flag
//	POST   /api/admin/read-only                     - Set the read-only flag
//
// Errors are answered as {"error": "..."}.
//
// Every route answers CORS preflight requests for the origins in Config.CORSOrigins.
func (a *App) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(a.accessLog)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/users", a.handleCreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", a.handleGetUser).Methods(http.MethodGet)

	api.HandleFunc("/users/{userId}/items", a.handleCreateItem).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId}/items", a.handleListItems).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/items/order", a.handleReorderItems).Methods(http.MethodPut)
	api.HandleFunc("/users/{userId}/items/events", a.handleItemEvents).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}/items/{id}", a.handleDeleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/items/{id}", a.handleGetItem).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", a.handleUpdateItem).Methods(http.MethodPatch)

	api.HandleFunc("/admin/read-only", a.handleGetReadOnly).Methods(http.MethodGet)
	api.HandleFunc("/admin/read-only", a.handleSetReadOnly).Methods(http.MethodPost)

	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)

	// Preflight requests match no route, so CORS wraps the router instead of joining
	// the middleware chain.
	return a.cors()(router)
}

func (a *App) corsOrigins() []string {
	if len(a.config.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return a.config.CORSOrigins
}

func (a *App) cors() func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(a.corsOrigins()),
		handlers.AllowedMethods([]string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
}

// checkOrigin accepts change feed connections from the CORS origins and from the
// server's own host.
func (a *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range a.corsOrigins() {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// accessLog logs one line per request with the metrics captured by httpsnoop.
func (a *App) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		a.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", m.Code).
			Dur("duration", m.Duration).
			Int64("bytes", m.Written).
			Msg("handled")
	})
}

// Run serves [App.Router] on the configured port until ctx is cancelled or the server
// fails. On cancellation it allows up to five seconds for active requests to complete.
// Change feed connections are closed with the application.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.log.Info().
		Str("addr", addr).
		Str("backend", a.config.Backend).
		Bool("read_only", a.IsReadOnly()).
		Msg("Starting shoplist server")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("Shutting down server...")
		a.events.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
