// internal/websocket/hub.go
package websocket

import (
	"context"
	"fmt"
	"sync"

	wstypes "assistance-gateway/internal/domain/websocket"
	"assistance-gateway/internal/pkg/identity"

	"go.uber.org/zap"
)

type Hub struct {
	// Registered clients by owner
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	register   chan *Client
	unregister chan *Client

	// Broadcasting
	broadcast chan *BroadcastMessage

	// Handler registry for modular message handling
	handlerRegistry *HandlerRegistry

	verifier TokenVerifier
	done     chan struct{}
	doneOnce sync.Once
	logger   *zap.Logger
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}

type BroadcastMessage struct {
	Owners  []string
	Message *wstypes.WSMessage
}

func NewHub(verifier TokenVerifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		verifier:        verifier,
		done:            make(chan struct{}),
		logger:          logger,
	}
}

// AuthenticateClient derives the client's identity from its bearer token
// once the Assistance API has accepted it. The token is forwarded on every
// upstream call made for the client.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	id, err := h.verifier.Verify(ctx, token)
	if identity.IsUnauthorized(err) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate client: %w", err)
	}
	return &ClientAuth{
		Owner: id.Owner,
		Token: id.Token,
		Email: id.Email,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) error {
	return h.handlerRegistry.Register(handler)
}

// HandleClientMessage processes a message from a client using registered
// handlers. It reports whether a handler claimed the event.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	defer h.doneOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

// Register adds the client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		client.Close()
		return false
	}
}

// Unregister removes the client. It does not block once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.owner] == nil {
		h.clients[client.owner] = make(map[*Client]bool)
	}
	h.clients[client.owner][client] = true

	h.logger.Info("websocket client connected",
		zap.String("owner", client.owner),
		zap.String("client_id", client.id),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"client_id": client.id,
		"owner":     client.owner,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Close()
	if clients, ok := h.clients[client.owner]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)

			if len(clients) == 0 {
				delete(h.clients, client.owner)
			}

			h.logger.Info("websocket client disconnected",
				zap.String("owner", client.owner),
				zap.String("client_id", client.id),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.Owners == nil {
		for _, clients := range h.clients {
			for client := range clients {
				client.SendMessage(msg.Message)
			}
		}
		return
	}

	for _, owner := range msg.Owners {
		for client := range h.clients[owner] {
			client.SendMessage(msg.Message)
		}
	}
}

// SendToOwner queues msg for every connection of owner. It implements the
// request event notifier used by the REST handlers.
func (h *Hub) SendToOwner(owner string, msg *wstypes.WSMessage) {
	select {
	case h.broadcast <- &BroadcastMessage{Owners: []string{owner}, Message: msg}:
	case <-h.done:
	}
}

func (h *Hub) GetConnectedClients(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for owner, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, owner)
	}
}
