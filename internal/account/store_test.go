package account

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "config", "credentials.json"))
}

func TestPutAndGet(t *testing.T) {
	store := newTestStore(t)

	acct := Account{
		SessionName: "main",
		APIID:       12345,
		APIHash:     "abcdef0123456789",
		Phone:       "+15550001111",
		FirstName:   "Nifty",
		Username:    "nifty_user",
	}
	if err := store.Put(acct); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := store.Get("main")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.APIID != 12345 || got.APIHash != "abcdef0123456789" {
		t.Errorf("got = %+v", got)
	}
	if got.SessionName != "main" {
		t.Errorf("SessionName = %q, want %q", got.SessionName, "main")
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPutRequiresSessionName(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put(Account{APIID: 1}); err == nil {
		t.Error("Put() with empty session name = nil error")
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put(Account{SessionName: "main", APIID: 1, APIHash: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete("main"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Get("main"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete("main"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
}

func TestListOrdersByLastUsed(t *testing.T) {
	store := newTestStore(t)

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, acct := range []Account{
		{SessionName: "never", APIID: 1, APIHash: "a"},
		{SessionName: "old", APIID: 2, APIHash: "b", LastUsed: &old},
		{SessionName: "recent", APIID: 3, APIHash: "c", LastUsed: &recent},
	} {
		if err := store.Put(acct); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []string{"recent", "old", "never"}
	if len(list) != len(want) {
		t.Fatalf("len(list) = %d, want %d", len(list), len(want))
	}
	for i, name := range want {
		if list[i].SessionName != name {
			t.Errorf("list[%d] = %q, want %q", i, list[i].SessionName, name)
		}
	}
}

func TestTouch(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put(Account{SessionName: "main", APIID: 1, APIHash: "x"}); err != nil {
		t.Fatal(err)
	}

	when := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	if err := store.Touch("main", when); err != nil {
		t.Fatalf("Touch() error: %v", err)
	}

	got, err := store.Get("main")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastUsed == nil || !got.LastUsed.Equal(when) {
		t.Errorf("LastUsed = %v, want %v", got.LastUsed, when)
	}

	if err := store.Touch("ghost", when); !errors.Is(err, ErrNotFound) {
		t.Errorf("Touch(ghost) = %v, want ErrNotFound", err)
	}
}
