package session

import (
	"sync"

	"github.com/google/uuid"
)

// AuthEvent identifies a provider lifecycle event.
type AuthEvent string

// Lifecycle events published by identity providers. The names mirror the
// provider SDK's event channel so provider implementations can forward
// them verbatim.
const (
	EventSignedIn                  AuthEvent = "signedIn"
	EventSignedOut                 AuthEvent = "signedOut"
	EventTokenRefresh              AuthEvent = "tokenRefresh"
	EventTokenRefreshFailure       AuthEvent = "tokenRefresh_failure"
	EventSignInWithRedirect        AuthEvent = "signInWithRedirect"
	EventSignInWithRedirectFailure AuthEvent = "signInWithRedirect_failure"
)

// HubMessage is a lifecycle event with optional provider payload.
type HubMessage struct {
	Event AuthEvent
	Data  map[string]any
}

// Hub is a minimal in-process event bus standing in for the provider
// SDK's lifecycle channel. Dispatch is synchronous on the publisher's
// goroutine.
type Hub struct {
	mu        sync.Mutex
	listeners map[uuid.UUID]func(HubMessage)
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		listeners: map[uuid.UUID]func(HubMessage){},
	}
}

// Subscribe registers a listener and returns a cancellable handle.
func (h *Hub) Subscribe(fn func(HubMessage)) Subscription {
	id := uuid.New()

	h.mu.Lock()
	h.listeners[id] = fn
	h.mu.Unlock()

	return Subscription{
		id: id,
		cancel: func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		},
	}
}

// Publish delivers the message to every listener.
func (h *Hub) Publish(msg HubMessage) {
	h.mu.Lock()
	listeners := make([]func(HubMessage), 0, len(h.listeners))
	for _, fn := range h.listeners {
		if fn != nil {
			listeners = append(listeners, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(msg)
	}
}
