package app_test

import (
	"context"
	"testing"
	"time"

	"trivia-stats-service/internal/app"
	"trivia-stats-service/internal/domain"
	"trivia-stats-service/internal/infra/memory"
)

func newAuth() (*app.AuthService, *memory.PlayerStore) {
	store := memory.NewPlayerStore()
	return app.NewAuthService(store, "test-secret", time.Hour), store
}

func TestRegisterAndSignIn(t *testing.T) {
	ctx := context.Background()
	auth, store := newAuth()

	record, err := auth.Register(ctx, "alice@example.com", "sup3rsecret", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if record.ID == "" {
		t.Fatalf("expected a player id to be minted")
	}
	if record.GamesPlayed != 0 || record.MaxStreak != 0 {
		t.Fatalf("expected zeroed counters, got %+v", record)
	}

	stored, err := store.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if stored.PasswordHash == "sup3rsecret" || stored.PasswordHash == "" {
		t.Fatalf("expected password to be hashed")
	}

	session, err := auth.SignIn(ctx, "alice@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.PlayerID != record.ID || session.Token == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	subject, err := auth.PlayerIDFromToken(session.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if subject != record.ID {
		t.Fatalf("expected subject %s, got %s", record.ID, subject)
	}
}

func TestRegisterUniqueness(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth()

	if _, err := auth.Register(ctx, "alice@example.com", "sup3rsecret", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.Register(ctx, "other@example.com", "sup3rsecret", "Alice"); err != domain.ErrDisplayNameTaken {
		t.Fatalf("expected ErrDisplayNameTaken, got %v", err)
	}
	if _, err := auth.Register(ctx, "alice@example.com", "sup3rsecret", "Alice2"); err != domain.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth()

	if _, err := auth.Register(ctx, "", "sup3rsecret", "Alice"); err != domain.ErrMissingField {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if _, err := auth.Register(ctx, "alice@example.com", "short", "Alice"); err != domain.ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth()

	if _, err := auth.Register(ctx, "alice@example.com", "sup3rsecret", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := auth.SignIn(ctx, "alice@example.com", "wrongpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	// Unknown emails are indistinguishable from wrong passwords.
	if _, err := auth.SignIn(ctx, "nobody@example.com", "sup3rsecret"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPlayerIDFromTokenRejectsForgedToken(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth()
	other := app.NewAuthService(memory.NewPlayerStore(), "other-secret", time.Hour)

	if _, err := auth.Register(ctx, "alice@example.com", "sup3rsecret", "Alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := auth.SignIn(ctx, "alice@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if _, err := other.PlayerIDFromToken(session.Token); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected token signed with another secret to be rejected, got %v", err)
	}
}
