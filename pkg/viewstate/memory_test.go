package viewstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/pokedex-web/pkg/pokeapi"
)

func testState() *State {
	return &State{
		LastName: "venusaur",
		Forms: []*pokeapi.Pokemon{
			{ID: 3, Name: "venusaur"},
			{ID: 10033, Name: "venusaur-mega"},
			nil,
		},
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_GetPut(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	if err := store.Put(ctx, "sid-1", testState()); err != nil {
		t.Fatalf("Unexpected error on Put: %v", err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Unexpected error on Get: %v", err)
	}
	if got.LastName != "venusaur" {
		t.Errorf("Expected last name 'venusaur', got '%s'", got.LastName)
	}
	if len(got.Forms) != 3 || got.Forms[2] != nil {
		t.Errorf("Expected 3 forms with a trailing placeholder, got %v", got.Forms)
	}

	if _, err := store.Get(ctx, "sid-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown session, got %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	st := testState()
	if err := store.Put(ctx, "sid", st); err != nil {
		t.Fatal(err)
	}
	st.Forms[0] = nil

	got, _ := store.Get(ctx, "sid")
	if got.Forms[0] == nil {
		t.Error("Put should not alias the caller's slice")
	}

	got.Forms[1] = nil
	again, _ := store.Get(ctx, "sid")
	if again.Forms[1] == nil {
		t.Error("Get should not alias the stored slice")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Put(ctx, "sid", testState()); err != nil {
		t.Fatal(err)
	}

	now = now.Add(30 * time.Second)
	if _, err := store.Get(ctx, "sid"); err != nil {
		t.Fatalf("Expected live entry, got %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := store.Get(ctx, "sid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after expiry, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected expired entry to be removed, %d left", store.Len())
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	_ = store.Put(ctx, "sid", testState())
	if err := store.Delete(ctx, "sid"); err != nil {
		t.Fatalf("Unexpected error on Delete: %v", err)
	}
	if _, err := store.Get(ctx, "sid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after Delete, got %v", err)
	}
}

func TestMemoryStore_PutNil(t *testing.T) {
	store := NewMemoryStore(0)
	if err := store.Put(context.Background(), "sid", nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		session string
		want    string
	}{
		{"abc", "pokedex:view:abc"},
		{" abc ", "pokedex:view:abc"},
		{"0b4c3c8e-7f7a-4a55-9a43-3f5f0c0c9e2d", "pokedex:view:0b4c3c8e-7f7a-4a55-9a43-3f5f0c0c9e2d"},
	}
	for _, tt := range tests {
		if got := Key(tt.session); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.session, got, tt.want)
		}
	}
}
