package session

import (
	"context"
	"errors"

	"socratic/internal/models"
)

// ErrSessionNotFound is returned when a session id has no stored state, either
// because it never existed or because it idled out.
var ErrSessionNotFound = errors.New("session not found")

// Store persists per-session state between turns. Implementations must treat
// an expired session exactly like a missing one.
type Store interface {
	// Get loads the session, or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*models.QuestionSession, error)
	// Put saves the session and refreshes its idle expiry.
	Put(ctx context.Context, session *models.QuestionSession) error
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
