package domain

import (
	"errors"
	"fmt"

	"github.com/totegamma/lobbywatch"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	ErrInvalidTeam      = errors.New("invalid team value")
	ErrInvalidVerdict   = errors.New("invalid verdict")
	ErrIdentityMismatch = errors.New("record belongs to another player")
)

// IdentityMismatchError is returned when a record is merged into a player
// with a different SteamID.
type IdentityMismatchError struct {
	Record lobbywatch.SteamID
	Player lobbywatch.SteamID
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("%s: record %s, player %s", ErrIdentityMismatch, e.Record, e.Player)
}

func (e *IdentityMismatchError) Unwrap() error {
	return ErrIdentityMismatch
}
