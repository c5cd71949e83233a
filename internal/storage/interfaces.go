package storage

import (
	"context"
	"errors"

	"github.com/promptdeck/promptdeck/internal/domain/prompt"
	"github.com/promptdeck/promptdeck/internal/domain/user"
)

// ErrNotFound is returned when a record does not exist. Stores wrap it so
// callers can branch with errors.Is.
var ErrNotFound = errors.New("record not found")

// UserStore persists user records and their points balances.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	// UpdateUser writes profile fields only; the points balance is
	// untouched and changes only through the points operations below.
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	GetUserByWeChatOpenID(ctx context.Context, openID string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	DeleteUser(ctx context.Context, id string) error

	// UpdatePoints sets the balance to an absolute value; negative values
	// are rejected.
	UpdatePoints(ctx context.Context, id string, points int64) (int64, error)
	// AddPoints credits the balance and returns the new value.
	AddPoints(ctx context.Context, id string, delta int64) (int64, error)
	// SubtractPoints debits the balance, clamped at a floor of zero, and
	// returns the new value.
	SubtractPoints(ctx context.Context, id string, delta int64) (int64, error)
}

// PromptStore persists prompt records.
type PromptStore interface {
	CreatePrompt(ctx context.Context, p prompt.Prompt) (prompt.Prompt, error)
	UpdatePrompt(ctx context.Context, p prompt.Prompt) (prompt.Prompt, error)
	GetPrompt(ctx context.Context, id string) (prompt.Prompt, error)
	ListPrompts(ctx context.Context) ([]prompt.Prompt, error)
	DeletePrompt(ctx context.Context, id string) error
}

// Store bundles the record-store interfaces consumed by the gateway.
type Store interface {
	UserStore
	PromptStore
}
