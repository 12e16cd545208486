package domain

import "errors"

var (
	// ErrPlayerNotFound is returned when the referenced player record does not exist.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrMissingPlayerID is returned when an operation is invoked without a player id.
	ErrMissingPlayerID = errors.New("player id is required")
	// ErrMissingField is returned when a registration or sign-in field is absent.
	ErrMissingField = errors.New("required field is missing")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already in use")
	// ErrDisplayNameTaken indicates the display name is already registered.
	ErrDisplayNameTaken = errors.New("display name already in use")
	// ErrInvalidCredentials indicates a failed sign-in attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordTooShort rejects passwords under the minimum length at registration.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrNoPlayers distinguishes a ranking over zero players from an empty page.
	ErrNoPlayers = errors.New("no players registered")
	// ErrNotEnoughQuestions indicates the difficulty bank cannot satisfy the request.
	ErrNotEnoughQuestions = errors.New("not enough questions for the requested difficulty")
)
