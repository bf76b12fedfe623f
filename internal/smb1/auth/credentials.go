// Package auth holds the SESSION_SETUP_ANDX credential store: the mapping
// from username to password hashes that NTLM/NTLMv2 responses are validated
// against. Where those credentials come from is left unspecified by the
// protocol; this server loads them from configuration.
package auth

import (
	"strings"
	"sync"

	"github.com/rangeshare/smb1d/internal/smb1/ntlm"
)

// Credential is one configured account's password hashes.
type Credential struct {
	Username string
	Domain   string
	NTHash   [16]byte
	LMHash   [16]byte
}

// CredentialStore is an in-memory, read-only username → hash lookup table,
// safe for concurrent use by every connection's SESSION_SETUP_ANDX handler.
type CredentialStore struct {
	mu         sync.RWMutex
	byUsername map[string]Credential
	allowGuest bool
}

// NewCredentialStore returns an empty store with the given guest setting;
// accounts are added with AddUser, which hashes each password once up front.
func NewCredentialStore(allowGuest bool) *CredentialStore {
	return &CredentialStore{
		byUsername: make(map[string]Credential),
		allowGuest: allowGuest,
	}
}

// AddUser registers a username/password pair, computing and storing its
// LM and NT hashes.
func (s *CredentialStore) AddUser(username, domain, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUsername[normalize(username)] = Credential{
		Username: username,
		Domain:   domain,
		NTHash:   ntlm.ComputeNTHash(password),
		LMHash:   ntlm.ComputeLMHash(password),
	}
}

// Lookup returns the stored credential for username, if any.
func (s *CredentialStore) Lookup(username string) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byUsername[normalize(username)]
	return c, ok
}

// AllowGuest reports whether unauthenticated/guest logons are accepted.
func (s *CredentialStore) AllowGuest() bool { return s.allowGuest }

func normalize(username string) string {
	return strings.ToUpper(strings.TrimSpace(username))
}
