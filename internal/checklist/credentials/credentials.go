// Package credentials provides record-store credential providers. The
// engine treats a missing token as a detectable configuration condition,
// so providers return ports.ErrNoCredentials rather than a generic error.
package credentials

import (
	"context"
	"os"

	"docket/internal/checklist/ports"
)

// Static serves a fixed token, typically loaded from configuration at
// startup.
type Static struct {
	token string
}

// NewStatic creates a provider around a fixed token. An empty token is a
// valid construction; Token then reports the missing-credentials
// condition on every call.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

func (s *Static) Token(_ context.Context) (string, error) {
	if s.token == "" {
		return "", ports.ErrNoCredentials
	}
	return s.token, nil
}

// Env reads the token from an environment variable on every call, so
// rotated secrets are picked up without a restart.
type Env struct {
	key string
}

// NewEnv creates a provider bound to the given environment variable.
func NewEnv(key string) *Env {
	return &Env{key: key}
}

func (e *Env) Token(_ context.Context) (string, error) {
	token := os.Getenv(e.key)
	if token == "" {
		return "", ports.ErrNoCredentials
	}
	return token, nil
}
