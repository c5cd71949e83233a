package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/promptdeck/promptdeck/internal/domain/prompt"
	"github.com/promptdeck/promptdeck/internal/domain/user"
)

func TestMemoryUserLifecycle(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	created, err := store.CreateUser(ctx, user.User{Username: "alice", Points: 5})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	if _, err := store.CreateUser(ctx, user.User{Username: "alice"}); err == nil {
		t.Fatalf("expected duplicate username rejection")
	}

	byName, err := store.GetUserByUsername(ctx, "alice")
	if err != nil || byName.ID != created.ID {
		t.Fatalf("lookup by username: %v %v", byName, err)
	}

	if err := store.DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := store.GetUser(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemorySubtractPointsFloorsAtZero(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Username: "bob", Points: 3})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	balance, err := store.SubtractPoints(ctx, u.ID, 2)
	if err != nil || balance != 1 {
		t.Fatalf("expected balance 1, got %d (%v)", balance, err)
	}

	balance, err = store.SubtractPoints(ctx, u.ID, 10)
	if err != nil || balance != 0 {
		t.Fatalf("expected floor at 0, got %d (%v)", balance, err)
	}

	balance, err = store.AddPoints(ctx, u.ID, 4)
	if err != nil || balance != 4 {
		t.Fatalf("expected balance 4, got %d (%v)", balance, err)
	}
}

func TestMemoryUpdatePointsRejectsNegative(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	u, _ := store.CreateUser(ctx, user.User{Username: "carol"})
	if _, err := store.UpdatePoints(ctx, u.ID, -1); err == nil {
		t.Fatalf("expected negative points rejection")
	}
	if _, err := store.UpdatePoints(ctx, u.ID, 10); err != nil {
		t.Fatalf("set points: %v", err)
	}
	got, _ := store.GetUser(ctx, u.ID)
	if got.Points != 10 {
		t.Fatalf("expected 10 points, got %d", got.Points)
	}
}

func TestMemoryUpdateUserLeavesPointsAlone(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	u, _ := store.CreateUser(ctx, user.User{Username: "dora", Points: 7})

	u.Nickname = "Dora"
	u.Points = 0
	updated, err := store.UpdateUser(ctx, u)
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Nickname != "Dora" {
		t.Fatalf("expected nickname update, got %+v", updated)
	}
	if updated.Points != 7 {
		t.Fatalf("profile updates must not touch the balance, got %d", updated.Points)
	}
}

func TestMemoryPromptLifecycle(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	created, err := store.CreatePrompt(ctx, prompt.Prompt{Title: "greeting", Body: "say hi", Tags: []string{"intro"}})
	if err != nil {
		t.Fatalf("create prompt: %v", err)
	}

	created.Body = "say hello"
	updated, err := store.UpdatePrompt(ctx, created)
	if err != nil || updated.Body != "say hello" {
		t.Fatalf("update prompt: %v %v", updated, err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("update must preserve creation time")
	}

	all, err := store.ListPrompts(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected one prompt, got %d (%v)", len(all), err)
	}

	if err := store.DeletePrompt(ctx, created.ID); err != nil {
		t.Fatalf("delete prompt: %v", err)
	}
	if _, err := store.GetPrompt(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
