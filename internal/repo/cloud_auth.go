package repo

import (
	"sync"
	"time"
)

// CloudAuth is the token bundle for one connected cloud provider.
type CloudAuth struct {
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	ConnectedAt  time.Time `json:"connected_at"`
}

// Expired reports whether the access token needs a refresh, with a safety
// margin so a token never expires mid-request.
func (a *CloudAuth) Expired() bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(a.ExpiresAt.Add(-30 * time.Second))
}

// CloudAuthStore keeps per-provider OAuth tokens and pending authorization
// states in process memory. The tracker serves a single operator, so tokens
// are process-scoped rather than per-user; disconnecting a provider or
// restarting the process drops them.
type CloudAuthStore struct {
	mu     sync.Mutex
	auths  map[string]*CloudAuth
	states map[string]pendingState
}

type pendingState struct {
	provider  string
	createdAt time.Time
}

// oauthStateTTL bounds how long an authorization round-trip may take.
const oauthStateTTL = 10 * time.Minute

func NewCloudAuthStore() *CloudAuthStore {
	return &CloudAuthStore{
		auths:  make(map[string]*CloudAuth),
		states: make(map[string]pendingState),
	}
}

func (s *CloudAuthStore) Get(provider string) (*CloudAuth, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auth, ok := s.auths[provider]
	if !ok {
		return nil, false
	}
	clone := *auth
	return &clone, true
}

func (s *CloudAuthStore) Set(auth *CloudAuth) {
	clone := *auth
	if clone.ConnectedAt.IsZero() {
		clone.ConnectedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.auths[clone.Provider] = &clone
	s.mu.Unlock()
}

func (s *CloudAuthStore) Delete(provider string) {
	s.mu.Lock()
	delete(s.auths, provider)
	s.mu.Unlock()
}

// Connected lists providers that currently hold a token.
func (s *CloudAuthStore) Connected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	providers := make([]string, 0, len(s.auths))
	for provider := range s.auths {
		providers = append(providers, provider)
	}
	return providers
}

// PutState registers an OAuth state nonce for the given provider.
func (s *CloudAuthStore) PutState(state, provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for nonce, pending := range s.states {
		if now.Sub(pending.createdAt) > oauthStateTTL {
			delete(s.states, nonce)
		}
	}
	s.states[state] = pendingState{provider: provider, createdAt: now}
}

// ConsumeState validates and single-uses an OAuth state nonce, returning
// whether it was issued for the given provider and is still fresh.
func (s *CloudAuthStore) ConsumeState(state, provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	if pending.provider != provider {
		return false
	}
	return time.Since(pending.createdAt) <= oauthStateTTL
}
