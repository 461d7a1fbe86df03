package services

import (
	"errors"
	"testing"
	"time"

	"content-platform-api/models"
)

type fakeRecordStore struct {
	nextID    uint
	created   []models.Notification
	accounts  []models.Account
	createErr error
	listErr   error
}

func (f *fakeRecordStore) Create(n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	n.NotificationID = f.nextID
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeRecordStore) ActiveAccountsByRole(role string) ([]models.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Account
	for _, acc := range f.accounts {
		if acc.Role == role {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) AccountByRecipient(recipientID string) (*models.Account, error) {
	for i := range f.accounts {
		if f.accounts[i].RecipientID == recipientID {
			return &f.accounts[i], nil
		}
	}
	return nil, errors.New("no such account")
}

func TestRaisePersistsBeforePush(t *testing.T) {
	store := &fakeRecordStore{}
	registry := NewChannelRegistry(time.Minute)
	b := NewBroadcaster(store, registry)

	ch := registry.Open("mgr-1", models.RoleManager)

	rec, err := b.Raise(NewMatchAlert("mgr-1", "", "Author Kim matched your open call", ""))
	if err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if rec.NotificationID == 0 {
		t.Fatalf("raised record has no assigned id")
	}

	select {
	case pushed := <-ch.Events():
		// The pushed record must be the persisted one, id included.
		if pushed.NotificationID != rec.NotificationID {
			t.Fatalf("pushed id = %d, persisted id = %d", pushed.NotificationID, rec.NotificationID)
		}
	case <-time.After(time.Second):
		t.Fatalf("nothing pushed to the open channel")
	}

	if len(store.created) != 1 {
		t.Fatalf("created %d records, want 1", len(store.created))
	}
}

func TestRaiseWithoutChannelStillPersists(t *testing.T) {
	store := &fakeRecordStore{}
	b := NewBroadcaster(store, NewChannelRegistry(time.Minute))

	rec, err := b.Raise(NewMatchAlert("mgr-7", "", "Author Park matched", ""))
	if err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if rec.NotificationID != 1 || len(store.created) != 1 {
		t.Fatalf("record not persisted for offline recipient")
	}
}

func TestRaiseSurfacesPersistFailure(t *testing.T) {
	store := &fakeRecordStore{createErr: errors.New("db down")}
	registry := NewChannelRegistry(time.Minute)
	b := NewBroadcaster(store, registry)

	ch := registry.Open("mgr-1", models.RoleManager)

	if _, err := b.Raise(NewMatchAlert("mgr-1", "", "must not arrive", "")); err == nil {
		t.Fatalf("Raise swallowed the persist failure")
	}

	// Nothing may reach the channel when persistence failed.
	select {
	case rec := <-ch.Events():
		t.Fatalf("unpersisted notification %d was pushed", rec.NotificationID)
	default:
	}
}

func TestRaiseForRoleDeliversOwnRecordToEachManager(t *testing.T) {
	store := &fakeRecordStore{accounts: []models.Account{
		{AccountID: 1, RecipientID: "mgr-1", Role: models.RoleManager},
		{AccountID: 2, RecipientID: "mgr-2", Role: models.RoleManager},
		{AccountID: 3, RecipientID: "mgr-3", Role: models.RoleManager},
		{AccountID: 4, RecipientID: "adm-1", Role: models.RoleAdmin},
	}}
	registry := NewChannelRegistry(time.Minute)
	b := NewBroadcaster(store, registry)

	// mgr-1 and mgr-2 are connected, mgr-3 is offline.
	channels := map[string]*Channel{
		"mgr-1": registry.Open("mgr-1", models.RoleManager),
		"mgr-2": registry.Open("mgr-2", models.RoleManager),
	}
	admin := registry.Open("adm-1", models.RoleAdmin)

	out, err := b.RaiseForRole(models.RoleManager, func(string) models.Notification {
		return NewReportAlert(12, "FAILED", "MONTHLY_SETTLEMENT")
	})
	if err != nil {
		t.Fatalf("RaiseForRole: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("persisted %d records, want 3 (one per manager)", len(out))
	}

	ids := map[uint]bool{}
	for _, rec := range out {
		if rec.Severity != models.SeverityError {
			t.Fatalf("severity = %s, want ERROR", rec.Severity)
		}
		if rec.Category != "MONTHLY_SETTLEMENT" {
			t.Fatalf("category = %q", rec.Category)
		}
		if ids[rec.NotificationID] {
			t.Fatalf("notification id %d reused across recipients", rec.NotificationID)
		}
		ids[rec.NotificationID] = true
	}

	for recipient, ch := range channels {
		select {
		case rec := <-ch.Events():
			if rec.RecipientID != recipient {
				t.Fatalf("channel %s received record owned by %s", recipient, rec.RecipientID)
			}
		case <-time.After(time.Second):
			t.Fatalf("connected manager %s received nothing", recipient)
		}
	}

	select {
	case rec := <-admin.Events():
		t.Fatalf("admin received notification %d from a manager fan-out", rec.NotificationID)
	default:
	}
}

func TestRaiseForRoleSurfacesAccountLoadFailure(t *testing.T) {
	store := &fakeRecordStore{listErr: errors.New("db down")}
	b := NewBroadcaster(store, NewChannelRegistry(time.Minute))

	if _, err := b.RaiseForRole(models.RoleManager, func(string) models.Notification {
		return models.Notification{}
	}); err == nil {
		t.Fatalf("RaiseForRole swallowed the account load failure")
	}
	if len(store.created) != 0 {
		t.Fatalf("records persisted despite the audience being unknown")
	}
}
