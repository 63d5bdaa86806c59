package shoplist

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

func TestHub_publishToOwnerOnly(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	alice, bob := models.NewUserID(), models.NewUserID()

	aliceEvents, cancelAlice := hub.Subscribe(alice)
	defer cancelAlice()
	bobEvents, cancelBob := hub.Subscribe(bob)
	defer cancelBob()

	hub.Publish(models.Event{Type: models.EventCreated, UserID: alice})

	select {
	case ev := <-aliceEvents:
		assert.Equal(t, models.EventCreated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the event")
	}

	select {
	case ev := <-bobEvents:
		t.Fatalf("bob received %v", ev)
	default:
	}
}

func TestHub_cancel(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	owner := models.NewUserID()

	events, cancel := hub.Subscribe(owner)
	assert.Equal(t, 1, hub.Subscribers(owner))

	cancel()
	cancel()
	assert.Equal(t, 0, hub.Subscribers(owner))
	_, ok := <-events
	assert.False(t, ok)

	hub.Publish(models.Event{Type: models.EventDeleted, UserID: owner})
}

func TestHub_dropsSlowSubscriber(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	owner := models.NewUserID()

	events, cancel := hub.Subscribe(owner)
	defer cancel()

	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish(models.Event{Type: models.EventUpdated, UserID: owner})
	}
	assert.Equal(t, 0, hub.Subscribers(owner))

	received := 0
	for range events {
		received++
	}
	assert.Equal(t, subscriberBuffer, received)
}

func TestHub_close(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	owner := models.NewUserID()

	events, cancel := hub.Subscribe(owner)
	hub.Close()
	_, ok := <-events
	assert.False(t, ok)
	cancel()

	late, _ := hub.Subscribe(owner)
	_, ok = <-late
	assert.False(t, ok)
}

func TestItemEvents_websocket(t *testing.T) {
	app := newTestApp(t, nil)
	h := app.Router()
	srv := httptest.NewServer(h)
	defer srv.Close()

	owner := createOwner(t, h, "feed@example.com")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/users/" + owner.ID.String() + "/items/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	item := createItem(t, h, owner.ID, "Milk")
	rec := doJSON(t, h, http.MethodDelete, "/api/users/"+owner.ID.String()+"/items/"+item.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var created models.Event
	require.NoError(t, conn.ReadJSON(&created))
	assert.Equal(t, models.EventCreated, created.Type)
	assert.Equal(t, owner.ID, created.UserID)
	require.NotNil(t, created.Item)
	assert.Equal(t, item.ID, created.Item.ID)

	var deleted models.Event
	require.NoError(t, conn.ReadJSON(&deleted))
	assert.Equal(t, models.EventDeleted, deleted.Type)
	require.NotNil(t, deleted.ItemID)
	assert.Equal(t, item.ID, *deleted.ItemID)
}

func TestItemEvents_closedWithApp(t *testing.T) {
	app := newTestApp(t, nil)
	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	owner := models.NewUserID()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/users/" + owner.String() + "/items/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	app.events.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestUpdateItem_events(t *testing.T) {
	app := newTestApp(t, nil)
	h := app.Router()
	owner := createOwner(t, h, "patch@example.com")
	milk := createItem(t, h, owner.ID, "Milk")

	events, cancel := app.events.Subscribe(owner.ID)
	defer cancel()

	rec := doJSON(t, h, http.MethodPatch, "/api/items/"+milk.ID.String(), map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	select {
	case ev := <-events:
		t.Fatalf("unexpected %s event for an empty update", ev.Type)
	default:
	}

	rec = doJSON(t, h, http.MethodPatch, "/api/items/"+milk.ID.String(), map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	select {
	case ev := <-events:
		assert.Equal(t, models.EventUpdated, ev.Type)
		require.NotNil(t, ev.Item)
		assert.Equal(t, 3, ev.Item.Quantity)
	default:
		t.Fatal("no event for a non-empty update")
	}
}
