package services

import (
	"sync"
	"testing"
	"time"

	"content-platform-api/models"
)

func waitClosed(t *testing.T, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("%s: done channel not closed", what)
	}
}

func TestOpenEvictsPriorChannel(t *testing.T) {
	registry := NewChannelRegistry(time.Minute)

	first := registry.Open("mgr-1", models.RoleManager)
	second := registry.Open("mgr-1", models.RoleManager)

	waitClosed(t, first.Done(), "evicted channel")
	if got := first.State(); got != ChannelCompleted {
		t.Fatalf("evicted channel state = %s, want COMPLETED", got)
	}
	if got := second.State(); got != ChannelOpen {
		t.Fatalf("replacement channel state = %s, want OPEN", got)
	}
	if n := registry.OpenCount(); n != 1 {
		t.Fatalf("open count = %d, want 1", n)
	}

	// A push after the reconnect must never arrive on the first stream.
	if !registry.Send("mgr-1", models.Notification{NotificationID: 1}) {
		t.Fatalf("send to reconnected recipient failed")
	}
	select {
	case rec := <-second.Events():
		if rec.NotificationID != 1 {
			t.Fatalf("got notification %d on replacement, want 1", rec.NotificationID)
		}
	case <-time.After(time.Second):
		t.Fatalf("replacement channel received nothing")
	}
	select {
	case rec := <-first.Events():
		t.Fatalf("evicted channel received notification %d", rec.NotificationID)
	default:
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	registry := NewChannelRegistry(time.Minute)
	ch := registry.Open("adm-1", models.RoleAdmin)

	registry.Close("adm-1")
	registry.Close("adm-1")
	registry.Close("never-opened")

	if got := ch.State(); got != ChannelCompleted {
		t.Fatalf("state = %s, want COMPLETED", got)
	}
	if n := registry.OpenCount(); n != 0 {
		t.Fatalf("open count = %d, want 0", n)
	}
}

func TestSendWithoutChannelIsSilentNoOp(t *testing.T) {
	registry := NewChannelRegistry(time.Minute)
	if registry.Send("mgr-9", models.Notification{NotificationID: 1}) {
		t.Fatalf("send without a channel reported delivery")
	}
}

func TestSlowConsumerIsDroppedAsErrored(t *testing.T) {
	registry := NewChannelRegistry(time.Minute)
	ch := registry.Open("mgr-1", models.RoleManager)

	// Nobody drains the channel: fill the buffer.
	for i := 0; i < channelBuffer; i++ {
		if !registry.Send("mgr-1", models.Notification{NotificationID: uint(i + 1)}) {
			t.Fatalf("send %d failed before the buffer was full", i+1)
		}
	}
	if registry.Send("mgr-1", models.Notification{NotificationID: 99}) {
		t.Fatalf("send into a full buffer reported delivery")
	}

	waitClosed(t, ch.Done(), "slow channel")
	if got := ch.State(); got != ChannelErrored {
		t.Fatalf("state = %s, want ERRORED", got)
	}
	if n := registry.OpenCount(); n != 0 {
		t.Fatalf("open count = %d, want 0", n)
	}
}

func TestIdleTimeoutClosesChannel(t *testing.T) {
	registry := NewChannelRegistry(20 * time.Millisecond)
	ch := registry.Open("mgr-1", models.RoleManager)

	waitClosed(t, ch.Done(), "idle channel")
	if got := ch.State(); got != ChannelTimedOut {
		t.Fatalf("state = %s, want TIMED_OUT", got)
	}
	if n := registry.OpenCount(); n != 0 {
		t.Fatalf("open count = %d, want 0", n)
	}
}

func TestBroadcastSkipsOtherRolesAndSurvivesFailures(t *testing.T) {
	registry := NewChannelRegistry(time.Minute)

	managers := []*Channel{
		registry.Open("mgr-1", models.RoleManager),
		registry.Open("mgr-2", models.RoleManager),
	}
	stuck := registry.Open("mgr-3", models.RoleManager)
	admin := registry.Open("adm-1", models.RoleAdmin)

	// Saturate mgr-3 so the broadcast write to it fails.
	for i := 0; i < channelBuffer; i++ {
		stuck.send(models.Notification{NotificationID: uint(100 + i)})
	}

	records := map[string]models.Notification{
		"mgr-1": {NotificationID: 1, RecipientID: "mgr-1"},
		"mgr-2": {NotificationID: 2, RecipientID: "mgr-2"},
		"mgr-3": {NotificationID: 3, RecipientID: "mgr-3"},
		"adm-1": {NotificationID: 4, RecipientID: "adm-1"},
	}

	delivered := registry.Broadcast(
		func(_, role string) bool { return role == models.RoleManager },
		func(recipientID string) (models.Notification, bool) {
			rec, ok := records[recipientID]
			return rec, ok
		},
	)
	if delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}

	for _, ch := range managers {
		select {
		case rec := <-ch.Events():
			if rec.RecipientID != ch.RecipientID() {
				t.Fatalf("channel %s received record for %s", ch.RecipientID(), rec.RecipientID)
			}
		case <-time.After(time.Second):
			t.Fatalf("manager channel %s received nothing", ch.RecipientID())
		}
	}

	waitClosed(t, stuck.Done(), "saturated channel")
	if got := stuck.State(); got != ChannelErrored {
		t.Fatalf("saturated channel state = %s, want ERRORED", got)
	}

	select {
	case rec := <-admin.Events():
		t.Fatalf("admin channel received notification %d from a manager broadcast", rec.NotificationID)
	default:
	}
}

func TestRegistryIsSafeUnderConcurrentUse(t *testing.T) {
	registry := NewChannelRegistry(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ch := registry.Open("mgr-1", models.RoleManager)
				go func() {
					for range ch.Events() {
					}
				}()
				registry.Send("mgr-1", models.Notification{NotificationID: uint(j)})
				registry.Broadcast(nil, func(string) (models.Notification, bool) {
					return models.Notification{NotificationID: uint(j)}, true
				})
				registry.Close("mgr-1")
			}
		}()
	}
	wg.Wait()

	if n := registry.OpenCount(); n != 0 {
		t.Fatalf("open count = %d after teardown, want 0", n)
	}
}
