package shoplist

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/surrealdb/surrealdb.go/contrib/shoplist/pkg/models"
)

const (
	// subscriberBuffer is how many events a subscriber may fall behind before it is dropped.
	subscriberBuffer = 64
	writeWait        = 10 * time.Second
)

// Hub fans change events out to the subscribers of each owner.
//
// Publish never blocks: a subscriber whose buffer is full is disconnected, and its client
// is expected to reconnect and list the items again.
type Hub struct {
	mu     sync.Mutex
	subs   map[models.UserID]map[chan models.Event]struct{}
	closed bool
	log    zerolog.Logger
}

// NewHub returns an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[models.UserID]map[chan models.Event]struct{}),
		log:  log,
	}
}

// Subscribe registers a subscriber for owner. The channel is closed when cancel is called,
// when the subscriber falls behind or when the hub is closed.
func (h *Hub) Subscribe(owner models.UserID) (events <-chan models.Event, cancel func()) {
	ch := make(chan models.Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subs[owner] == nil {
		h.subs[owner] = make(map[chan models.Event]struct{})
	}
	h.subs[owner][ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.remove(owner, ch)
	}
}

// remove closes ch if it is still registered. h.mu must be held.
func (h *Hub) remove(owner models.UserID, ch chan models.Event) {
	owned, ok := h.subs[owner]
	if !ok {
		return
	}
	if _, ok := owned[ch]; !ok {
		return
	}
	delete(owned, ch)
	close(ch)
	if len(owned) == 0 {
		delete(h.subs, owner)
	}
}

// Publish delivers ev to every subscriber of ev.UserID.
func (h *Hub) Publish(ev models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
			h.log.Warn().Str("owner", ev.UserID.String()).Msg("dropping slow change feed subscriber")
			h.remove(ev.UserID, ch)
		}
	}
}

// Subscribers returns the number of subscribers of owner.
func (h *Hub) Subscribers(owner models.UserID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}

// Close disconnects every subscriber. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, owned := range h.subs {
		for ch := range owned {
			close(ch)
		}
		delete(h.subs, owner)
	}
	h.closed = true
}

func (a *App) publish(typ models.EventType, owner models.UserID, fill func(*models.Event)) {
	ev := models.Event{
		Type:   typ,
		UserID: owner,
		At:     time.Now().UTC(),
	}
	if fill != nil {
		fill(&ev)
	}
	a.events.Publish(ev)
}

// handleItemEvents streams the owner's change events over a WebSocket.
//
// The subscription is registered before the upgrade completes, so every change made after
// the client's dial returns is delivered.
func (a *App) handleItemEvents(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromPath(w, r)
	if !ok {
		return
	}

	events, cancel := a.events.Subscribe(owner)
	defer cancel()

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to upgrade change feed connection")
		return
	}
	defer conn.Close()

	// The client sends nothing; reading only detects a closed connection.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription ended"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				a.log.Debug().Err(err).Str("owner", owner.String()).Msg("change feed write failed")
				return
			}
		case <-gone:
			return
		}
	}
}
