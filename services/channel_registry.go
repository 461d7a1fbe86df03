package services

import (
	"log"
	"sync"
	"time"

	"content-platform-api/models"

	"github.com/google/uuid"
)

// ChannelState is the lifecycle state of a push channel. A channel starts
// OPEN and ends in exactly one of the three terminal states.
type ChannelState int

const (
	ChannelOpen ChannelState = iota
	ChannelCompleted
	ChannelTimedOut
	ChannelErrored
)

func (s ChannelState) String() string {
	switch s {
	case ChannelOpen:
		return "OPEN"
	case ChannelCompleted:
		return "COMPLETED"
	case ChannelTimedOut:
		return "TIMED_OUT"
	case ChannelErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// channelBuffer bounds how far a slow consumer can fall behind before its
// channel is dropped. Raise never blocks on this buffer.
const channelBuffer = 16

// Channel is one long-lived push stream instance for a recipient.
type Channel struct {
	id          string
	recipientID string
	role        string
	idleAfter   time.Duration

	mu     sync.Mutex
	state  ChannelState
	idle   *time.Timer
	events chan models.Notification
	done   chan struct{}
}

func (ch *Channel) ID() string          { return ch.id }
func (ch *Channel) RecipientID() string { return ch.recipientID }
func (ch *Channel) Role() string        { return ch.role }

// Events delivers pushed notifications to the transport handler.
func (ch *Channel) Events() <-chan models.Notification { return ch.events }

// Done is closed on any terminal transition.
func (ch *Channel) Done() <-chan struct{} { return ch.done }

func (ch *Channel) State() ChannelState {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// send is non-blocking: a full buffer counts as a failed delivery.
func (ch *Channel) send(rec models.Notification) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state != ChannelOpen {
		return false
	}
	select {
	case ch.events <- rec:
		if ch.idle != nil {
			ch.idle.Reset(ch.idleAfter)
		}
		return true
	default:
		return false
	}
}

// close performs the single terminal transition. Returns false if the
// channel was already closed.
func (ch *Channel) close(state ChannelState) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state != ChannelOpen {
		return false
	}
	ch.state = state
	if ch.idle != nil {
		ch.idle.Stop()
	}
	close(ch.done)
	return true
}

// ChannelRegistry tracks at most one open push channel per recipient
// identity. It is the only shared mutable in-memory structure in the
// notification core and is safe under concurrent open/close/send/broadcast.
type ChannelRegistry struct {
	mu          sync.RWMutex
	channels    map[string]*Channel
	idleTimeout time.Duration
}

// DefaultIdleTimeout bounds channel lifetime absent any send activity.
const DefaultIdleTimeout = time.Hour

func NewChannelRegistry(idleTimeout time.Duration) *ChannelRegistry {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &ChannelRegistry{
		channels:    make(map[string]*Channel),
		idleTimeout: idleTimeout,
	}
}

// Open creates a channel for the recipient, evicting and closing any prior
// channel for the same identity (a duplicate browser tab replaces the first
// connection).
func (r *ChannelRegistry) Open(recipientID, role string) *Channel {
	ch := &Channel{
		id:          uuid.NewString(),
		recipientID: recipientID,
		role:        role,
		idleAfter:   r.idleTimeout,
		state:       ChannelOpen,
		events:      make(chan models.Notification, channelBuffer),
		done:        make(chan struct{}),
	}
	ch.idle = time.AfterFunc(r.idleTimeout, func() {
		if ch.close(ChannelTimedOut) {
			r.remove(ch)
			log.Printf("channel %s for %s timed out after %s idle", ch.id, ch.recipientID, r.idleTimeout)
		}
	})

	r.mu.Lock()
	prev := r.channels[recipientID]
	r.channels[recipientID] = ch
	r.mu.Unlock()

	if prev != nil {
		prev.close(ChannelCompleted)
		log.Printf("channel %s for %s replaced by %s", prev.id, recipientID, ch.id)
	}
	return ch
}

// Close removes and completes the recipient's channel. Idempotent: safe to
// call from completion, timeout and error callbacks, and safe to call twice.
func (r *ChannelRegistry) Close(recipientID string) {
	r.mu.Lock()
	ch := r.channels[recipientID]
	delete(r.channels, recipientID)
	r.mu.Unlock()

	if ch != nil {
		ch.close(ChannelCompleted)
	}
}

// Release closes a specific channel instance with the given terminal state
// and deregisters it only if it is still the recipient's current channel, so
// an evicted channel shutting down never removes its replacement.
func (r *ChannelRegistry) Release(ch *Channel, state ChannelState) {
	if ch == nil {
		return
	}
	ch.close(state)
	r.remove(ch)
}

func (r *ChannelRegistry) remove(ch *Channel) {
	r.mu.Lock()
	if cur, ok := r.channels[ch.recipientID]; ok && cur == ch {
		delete(r.channels, ch.recipientID)
	}
	r.mu.Unlock()
}

// Send pushes a record to the recipient's channel. No open channel is a
// silent no-op, not an error: the catch-up API is the recovery path. A
// failed write closes that channel as ERRORED.
func (r *ChannelRegistry) Send(recipientID string, rec models.Notification) bool {
	r.mu.RLock()
	ch := r.channels[recipientID]
	r.mu.RUnlock()
	if ch == nil {
		return false
	}
	if !ch.send(rec) {
		if ch.close(ChannelErrored) {
			r.remove(ch)
			log.Printf("channel %s for %s dropped: push failed", ch.id, recipientID)
		}
		return false
	}
	return true
}

// Broadcast sends to every open channel accepted by match, delivering the
// record pick returns for that channel's recipient. Iteration runs over a
// snapshot so concurrent closes are tolerated, and one failing channel never
// blocks delivery to the rest. Returns the number of successful pushes.
func (r *ChannelRegistry) Broadcast(match func(recipientID, role string) bool, pick func(recipientID string) (models.Notification, bool)) int {
	r.mu.RLock()
	snapshot := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		snapshot = append(snapshot, ch)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, ch := range snapshot {
		if match != nil && !match(ch.recipientID, ch.role) {
			continue
		}
		rec, ok := pick(ch.recipientID)
		if !ok {
			continue
		}
		if ch.send(rec) {
			delivered++
			continue
		}
		if ch.close(ChannelErrored) {
			r.remove(ch)
			log.Printf("channel %s for %s dropped during broadcast", ch.id, ch.recipientID)
		}
	}
	return delivered
}

// OpenCount returns the number of currently open channels.
func (r *ChannelRegistry) OpenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
