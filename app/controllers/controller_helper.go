package controllers

import (
	"time"

	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/session"
)

// newLifecycleClient builds the token lifecycle client for one user, wired to
// the global repositories and the env-configured token issuer.
func newLifecycleClient(userID uint) *session.Client {
	repos := repository.GetGlobalRepositories()
	return session.NewClient(repos.Session, repos.User, session.NewTokenIssuerFromEnv(), userID)
}

// formatTimePtr renders an optional timestamp as RFC3339 UTC, or nil
func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
