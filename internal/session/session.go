// Package session holds the process-wide session key of the vault.
//
// The key lives in a memguard enclave, so its plaintext is only resident
// while an operation is using it. One mutex guards the key together with the
// login timestamp: a freshness check and the key read that follows it happen
// under the same lock, so a concurrent login or logout can never slip in
// between them.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/cryptox"
	"github.com/dmitrijs2005/mima/internal/models"
)

// DefaultValidity is how long a login stays valid.
const DefaultValidity = 30 * time.Minute

// State classifies the session for the presentation layer.
type State int

const (
	// StateUninitialized means no vault account exists yet. Manager never
	// reports it on its own; the service decides it from the bootstrap row.
	StateUninitialized State = iota
	StateLoggedOut
	StateLoggedIn
	// StateExpired means the last login outlived the validity period.
	// Access-wise it equals StateLoggedOut.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoggedOut:
		return "logged out"
	case StateLoggedIn:
		return "logged in"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Manager is the session key holder. The zero value is not usable; build
// one with NewManager and share it by pointer.
type Manager struct {
	mu          sync.Mutex
	key         *memguard.Enclave
	lastLoginAt time.Time
	validity    time.Duration
	expired     bool
	now         func() time.Time
}

type Option func(*Manager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a logged-out manager. A non-positive validity falls
// back to DefaultValidity.
func NewManager(validity time.Duration, opts ...Option) *Manager {
	if validity <= 0 {
		validity = DefaultValidity
	}
	m := &Manager{validity: validity, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Validity returns the configured validity period.
func (m *Manager) Validity() time.Duration { return m.validity }

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time { return m.now() }

// Login derives a candidate key from passphrase and checks it by opening the
// bootstrap row's password envelope. On success the key is installed, the
// login time reset, and the probe text returned. On failure the session is
// left exactly as it was and common.ErrWrongPassphrase is returned.
func (m *Manager) Login(passphrase string, bootstrap models.Decryptable) (string, error) {
	candidate := cryptox.DeriveKey(passphrase)
	defer common.WipeByteArray(candidate[:])

	ct, nonce := bootstrap.PasswordAndNonce()
	if ct == nil {
		return "", common.ErrWrongPassphrase
	}
	probe, err := cryptox.Open(ct, nonce, candidate)
	if err != nil {
		return "", common.ErrWrongPassphrase
	}

	m.install(candidate)
	return probe, nil
}

// Install puts key in place as a fresh login, e.g. right after the account
// was created.
func (m *Manager) Install(key cryptox.Key) {
	m.install(key)
}

func (m *Manager) install(key cryptox.Key) {
	buf := make([]byte, cryptox.KeySize)
	copy(buf, key[:])
	enclave := memguard.NewEnclave(buf) // wipes buf

	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = enclave
	m.lastLoginAt = m.now()
	m.expired = false
}

// Logout drops the key immediately.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = nil
	m.lastLoginAt = time.Time{}
	m.expired = false
}

// State is a pure function of the held key, the login time, the validity
// period and now. It never mutates the session.
func (m *Manager) State(now time.Time) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked(now)
}

func (m *Manager) stateLocked(now time.Time) State {
	if m.key == nil {
		if m.expired {
			return StateExpired
		}
		return StateLoggedOut
	}
	if now.Sub(m.lastLoginAt) >= m.validity {
		return StateExpired
	}
	return StateLoggedIn
}

// ActiveKey returns the held key whether or not it has expired. Callers
// must check State first; Key does both atomically.
func (m *Manager) ActiveKey() (cryptox.Key, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return cryptox.Key{}, false
	}
	k, err := openEnclave(m.key)
	if err != nil {
		return cryptox.Key{}, false
	}
	return k, true
}

// Key returns the session key if the session is logged in at now. An
// expired key is dropped on the spot and common.ErrSessionExpired returned;
// without a key the error is common.ErrNotLoggedIn.
func (m *Manager) Key(now time.Time) (cryptox.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.stateLocked(now) {
	case StateLoggedIn:
		return openEnclave(m.key)
	case StateExpired:
		m.key = nil
		m.expired = true
		return cryptox.Key{}, common.ErrSessionExpired
	default:
		return cryptox.Key{}, common.ErrNotLoggedIn
	}
}

func openEnclave(e *memguard.Enclave) (cryptox.Key, error) {
	buf, err := e.Open()
	if err != nil {
		return cryptox.Key{}, fmt.Errorf("opening key enclave: %w", err)
	}
	defer buf.Destroy()

	var k cryptox.Key
	copy(k[:], buf.Bytes())
	return k, nil
}
