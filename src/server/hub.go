package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stocknews-client/src/dashboard"
	"stocknews-client/src/helpers"
	"stocknews-client/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// StartHub subscribes to the dashboard and session and starts the hub loop.
// Safe to call more than once.
func (s *FeedServer) StartHub() {
	s.hubOnce.Do(func() {
		// Subscribe before caching: changes in between queue up behind the
		// cached state and are applied in order once the loop runs.
		s.unsubs = append(s.unsubs,
			s.Dashboard.Subscribe(func(state models.MDashboardState) {
				s.Broadcast(feedMessage(models.FeedTypeDashboard, state))
			}),
			s.Session.Subscribe(func(state models.MSessionState) {
				s.Broadcast(feedMessage(models.FeedTypeSession, state))
			}),
		)

		s.remember(feedMessage(models.FeedTypeDashboard, s.Dashboard.State()))
		s.remember(feedMessage(models.FeedTypeSession, s.Session.State()))

		go s.handleWebsockets()
	})
}

// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *FeedServer) handleWebsockets() {
	defer func() {
		for client := range s.clients {
			delete(s.clients, client)
			close(client.send)
		}
		s.setConnections(0)
	}()

	for {
		select {
		case <-s.done:
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.setConnections(len(s.clients))
			s.Logger.Info("Client %s connected (%d total)", client.id, len(s.clients))

			// Send current state on connect
			for _, msg := range s.snapshot() {
				client.send <- msg
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.setConnections(len(s.clients))
			}

		case d := <-s.direct:
			if _, ok := s.clients[d.client]; !ok {
				continue
			}
			select {
			case d.client.send <- d.message:
			default:
				s.Logger.Warning("Dropping reply to slow client %s", d.client.id)
			}

		case message := <-s.broadcast:
			s.remember(message)

			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to keep the hub moving
					s.Logger.Warning("Dropping slow client %s", client.id)
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.setConnections(len(s.clients))
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a message for every connected client. It returns without
// sending once the server is stopped.
func (s *FeedServer) Broadcast(msg *models.MFeedMessage) {
	select {
	case s.broadcast <- msg:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------
// Latest state cache
// -----------------------------------------------------------------------------

func (s *FeedServer) remember(msg *models.MFeedMessage) {
	s.stateMutex.Lock()
	s.latest[msg.Type] = msg
	s.stateMutex.Unlock()
}

// snapshot returns the cached dashboard and session messages in a fixed order.
func (s *FeedServer) snapshot() []*models.MFeedMessage {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	var out []*models.MFeedMessage
	for _, kind := range []string{models.FeedTypeDashboard, models.FeedTypeSession} {
		if msg, ok := s.latest[kind]; ok {
			out = append(out, msg)
		}
	}
	return out
}

func (s *FeedServer) setConnections(n int) {
	s.stateMutex.Lock()
	s.connections = n
	s.stateMutex.Unlock()
}

func feedMessage(kind string, payload interface{}) *models.MFeedMessage {
	return &models.MFeedMessage{
		Type:      kind,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FeedServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// directMessage is a reply addressed to one client.
type directMessage struct {
	client  *Client
	message *models.MFeedMessage
}

// sendTo queues msg for client alone. The hub drops it if the client is gone.
func (s *FeedServer) sendTo(client *Client, msg *models.MFeedMessage) {
	select {
	case s.direct <- directMessage{client: client, message: msg}:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------

// HandleClientMessage applies a view selection or refresh request. Results
// reach the client through the regular dashboard broadcast; a returned error
// is answered to the sender only.
func (s *FeedServer) HandleClientMessage(client *Client, cmd models.MFeedCommand) error {
	switch cmd.Command {
	case models.FeedCommandSelectView:
		return s.Dashboard.SelectView(cmd.View)
	case models.FeedCommandRefresh:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := s.Dashboard.FetchData(ctx); err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
				s.Logger.Warning("Refresh requested by %s failed: %v", client.id, err)
			}
		}()
		return nil
	default:
		return helpers.NewValidationError(fmt.Sprintf("unknown command %q", cmd.Command))
	}
}

// -----------------------------------------------------------------------------

// statusFor maps controller and client errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case helpers.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, dashboard.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
