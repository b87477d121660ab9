package services

import (
	"fmt"
	"log"
	"time"

	"tasknest/tasknest/config"
	"tasknest/tasknest/utils/token"
)

// Identity is the verified caller attached to a request.
type Identity struct {
	Subject string
	Email   string
}

// TokenVerifier abstracts the external identity provider.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Authenticator gates requests. NoAuth always succeeds without an identity;
// TokenAuth delegates to the identity provider. Handlers are written once
// against this interface.
type Authenticator interface {
	// Enabled reports whether requests must carry a bearer token.
	Enabled() bool
	// Authenticate verifies a bearer token and returns the caller identity.
	Authenticate(tokenString string) (*Identity, error)
}

// NoAuth is the single-tenant mode: every request passes, no identity.
type NoAuth struct{}

func (NoAuth) Enabled() bool { return false }

func (NoAuth) Authenticate(string) (*Identity, error) {
	return nil, nil
}

// TokenAuth verifies bearer tokens against the external identity provider.
type TokenAuth struct {
	verifier TokenVerifier
}

func NewTokenAuth(verifier TokenVerifier) *TokenAuth {
	return &TokenAuth{verifier: verifier}
}

func (a *TokenAuth) Enabled() bool { return true }

func (a *TokenAuth) Authenticate(tokenString string) (*Identity, error) {
	claims, err := a.verifier.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{Subject: claims.Subject, Email: claims.Email}, nil
}

// NewAuthenticator builds the authenticator selected by configuration.
// With auth enabled the provider certificates come from local key material
// first, then the remote endpoint. If neither source works the error is
// fatal to the caller: auth never degrades to pass-through.
func NewAuthenticator(cfg config.Config) (Authenticator, error) {
	if !cfg.AuthEnabled {
		return NoAuth{}, nil
	}

	if cfg.AuthProjectID == "" {
		return nil, fmt.Errorf("AUTH_ENABLED is set but AUTH_PROJECT_ID is empty")
	}

	timeout := time.Duration(cfg.AuthTimeoutSecs) * time.Second

	if cfg.AuthCertsFile != "" {
		keys, err := token.NewStaticKeySource(cfg.AuthCertsFile)
		if err == nil {
			return NewTokenAuth(token.NewVerifier(cfg.AuthProjectID, keys)), nil
		}
		log.Printf("Local certificate file unusable (%v), trying remote endpoint", err)
	}

	keys, err := token.NewRemoteKeySource(cfg.AuthCertsURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	return NewTokenAuth(token.NewVerifier(cfg.AuthProjectID, keys)), nil
}
