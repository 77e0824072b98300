package seed

import (
	"crypto/sha512"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

// manager implements seed management with thread-safe access
type manager struct {
	seed        []byte
	mu          sync.RWMutex
	initialized bool
}

// NewManager creates a new seed Manager
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{}
}

// ValidateMnemonic checks the phrase against the BIP-39 english wordlist and checksum.
func ValidateMnemonic(mnemonic string) error {
	if strings.TrimSpace(mnemonic) == "" || !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}

	return nil
}

// Initialize validates mnemonic and converts it to the BIP-39 seed.
// ErrInvalidMnemonic is returned unwrapped.
func (m *manager) Initialize(mnemonic string, password string) error {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return err
	}

	// seed = PBKDF2(mnemonic, "mnemonic" + password, 2048, 64, SHA512)
	const (
		pbkdf2Iterations = 2048
		pbkdf2KeyLength  = 64
	)

	seed := pbkdf2.Key(
		[]byte(mnemonic),
		[]byte("mnemonic"+password),
		pbkdf2Iterations,
		pbkdf2KeyLength,
		sha512.New,
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.zero()
	m.seed = seed
	m.initialized = true

	return nil
}

// GetSeed returns a copy of the seed, nil before Initialize.
func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized || m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)
	return seedCopy
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.initialized
}

// Clear zeroes the seed in memory
func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.zero()
	m.initialized = false
}

func (m *manager) zero() {
	for i := range m.seed {
		m.seed[i] = 0
	}
	m.seed = nil
}
