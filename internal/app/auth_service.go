package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"trivia-stats-service/internal/domain"
)

const minPasswordLength = 6

// AuthService handles account creation and sign-in. Passwords are stored as
// bcrypt hashes on the player record; sign-in issues an HS256 token whose
// subject is the player id.
type AuthService struct {
	players  PlayerStore
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAuthService(players PlayerStore, secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		players:  players,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Register creates the player record with every counter at zero. Display names
// and emails are unique across the population.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (domain.PlayerRecord, error) {
	if email == "" || password == "" || displayName == "" {
		return domain.PlayerRecord{}, domain.ErrMissingField
	}
	if len(password) < minPasswordLength {
		return domain.PlayerRecord{}, domain.ErrPasswordTooShort
	}

	if _, err := s.players.FindByDisplayName(ctx, displayName); err == nil {
		return domain.PlayerRecord{}, domain.ErrDisplayNameTaken
	} else if !errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.PlayerRecord{}, err
	}
	if _, err := s.players.FindByEmail(ctx, email); err == nil {
		return domain.PlayerRecord{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.PlayerRecord{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.PlayerRecord{}, fmt.Errorf("hash password: %w", err)
	}

	record := domain.PlayerRecord{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.players.Create(ctx, record); err != nil {
		return domain.PlayerRecord{}, err
	}
	return record, nil
}

// SignIn verifies the credentials and returns a session with a signed token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	if email == "" || password == "" {
		return domain.Session{}, domain.ErrMissingField
	}

	record, err := s.players.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   record.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Session{
		PlayerID:    record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		Token:       token,
	}, nil
}

// PlayerIDFromToken validates a token issued by SignIn and returns its subject.
func (s *AuthService) PlayerIDFromToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrInvalidCredentials
	}
	return claims.Subject, nil
}
