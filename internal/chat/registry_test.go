package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"chat-gateway/internal/models"
)

type fakeDirectory struct {
	users map[int]*models.User
	err   error
}

func (f *fakeDirectory) FindUserByID(ctx context.Context, id int) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func newTestDirectory(ids ...int) *fakeDirectory {
	users := make(map[int]*models.User)
	for _, id := range ids {
		users[id] = &models.User{ID: id, Username: fmt.Sprintf("user%d", id)}
	}
	return &fakeDirectory{users: users}
}

func TestRegisterUnknownUser(t *testing.T) {
	r := NewRegistry(newTestDirectory(1))

	err := r.Register(context.Background(), "conn-1", 99, "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, ok := r.Get("conn-1"); ok {
		t.Fatal("failed register must not create a session")
	}
}

func TestRegisterDirectoryError(t *testing.T) {
	r := NewRegistry(&fakeDirectory{err: errors.New("directory down")})

	err := r.Register(context.Background(), "conn-1", 1, "alice")
	if err == nil {
		t.Fatal("expected error when directory lookup fails")
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Fatal("a lookup failure is not the same as an unknown user")
	}
}

func TestRegisterIdempotentPerConnection(t *testing.T) {
	r := NewRegistry(newTestDirectory(1, 2))
	ctx := context.Background()

	if err := r.Register(ctx, "conn-1", 1, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(ctx, "conn-1", 2, "bob"); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	s, ok := r.Get("conn-1")
	if !ok {
		t.Fatal("session missing after re-register")
	}
	if s.UserID != 2 || s.Username != "bob" {
		t.Fatalf("re-register must overwrite, got %+v", s)
	}
	if got := len(r.Online()); got != 1 {
		t.Fatalf("expected 1 online user, got %d", got)
	}
}

func TestUnregisterReturnsPriorSession(t *testing.T) {
	r := NewRegistry(newTestDirectory(1))
	ctx := context.Background()

	if err := r.Register(ctx, "conn-1", 1, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	s, ok := r.Unregister("conn-1")
	if !ok {
		t.Fatal("expected session on first unregister")
	}
	if s.UserID != 1 || s.Username != "alice" {
		t.Fatalf("unexpected session %+v", s)
	}

	if _, ok := r.Unregister("conn-1"); ok {
		t.Fatal("second unregister must report no session")
	}
	if _, ok := r.Unregister("never-joined"); ok {
		t.Fatal("unknown connection must report no session")
	}
}

func TestOnlineDeduplicatesByUser(t *testing.T) {
	r := NewRegistry(newTestDirectory(1, 2))
	ctx := context.Background()

	// Same user on two connections with different declared usernames:
	// the earliest-joined connection's username wins.
	if err := r.Register(ctx, "conn-1", 1, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(ctx, "conn-2", 1, "alice-laptop"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(ctx, "conn-3", 2, "bob"); err != nil {
		t.Fatalf("register: %v", err)
	}

	online := r.Online()
	if len(online) != 2 {
		t.Fatalf("expected 2 online users, got %d: %+v", len(online), online)
	}

	byID := make(map[int]string)
	for _, u := range online {
		byID[u.UserID] = u.Username
	}
	if byID[1] != "alice" {
		t.Fatalf("expected first-seen username alice, got %q", byID[1])
	}
	if byID[2] != "bob" {
		t.Fatalf("expected bob, got %q", byID[2])
	}
}

func TestOnlineSnapshotStable(t *testing.T) {
	r := NewRegistry(newTestDirectory(1, 2))
	ctx := context.Background()

	if err := r.Register(ctx, "conn-1", 1, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(ctx, "conn-2", 2, "bob"); err != nil {
		t.Fatalf("register: %v", err)
	}

	first := r.Online()
	second := r.Online()
	if len(first) != len(second) {
		t.Fatalf("snapshots differ in size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("snapshots differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(newTestDirectory(1, 2, 3, 4))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", n)
			for j := 0; j < 100; j++ {
				_ = r.Register(ctx, connID, n+1, fmt.Sprintf("user%d", n+1))
				_ = r.Online()
				r.Unregister(connID)
			}
		}(i)
	}
	wg.Wait()

	if got := len(r.Online()); got != 0 {
		t.Fatalf("expected empty registry, got %d", got)
	}
}
