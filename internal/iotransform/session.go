package iotransform

import (
	"context"
	"log/slog"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/google/uuid"
)

// sessionFactory issues transform-script session tokens bound to the
// acting user. Tokens live for one script execution; Release is called
// regardless of script success.
type sessionFactory struct{}

// NewSessionFactory creates the default session factory.
func NewSessionFactory() assay.SessionFactory {
	return sessionFactory{}
}

func (sessionFactory) Acquire(
	_ context.Context,
	user string,
) (string, error) {
	id := uuid.NewString()
	slog.Debug("Acquired script session", "user", user, "session", id)
	return id, nil
}

func (sessionFactory) Release(sessionID string) {
	slog.Debug("Released script session", "session", sessionID)
}
