package ally

import (
	"fmt"
	"sync"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/ports"
)

// CredentialSource hands out a fixed set of OAuth credentials until revoked
type CredentialSource struct {
	mu      sync.RWMutex
	creds   domain.Credentials
	revoked bool
}

// NewCredentialSource validates creds and returns a source serving them
func NewCredentialSource(creds domain.Credentials) (*CredentialSource, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return &CredentialSource{creds: creds}, nil
}

// Credentials returns a copy of the credentials
func (s *CredentialSource) Credentials() (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.revoked {
		return nil, domain.ErrAuthUnavailable
	}
	creds := s.creds
	return &creds, nil
}

// Revoke makes every later Credentials call fail
func (s *CredentialSource) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked = true
	s.creds = domain.Credentials{}
}

var _ ports.AuthProvider = (*CredentialSource)(nil)
