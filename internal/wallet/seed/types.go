package seed

import "github.com/pkg/errors"

// ErrInvalidMnemonic is returned for empty phrases and phrases failing the BIP-39
// wordlist or checksum validation. The message is matched verbatim by callers.
//
//nolint:stylecheck,revive // capitalised message is part of the public contract
var ErrInvalidMnemonic = errors.New("Mnemonic invalid or undefined")

// Manager provides seed management functionality
type Manager interface {
	// Initialize validates the mnemonic and derives the seed
	Initialize(mnemonic string, password string) error

	// GetSeed gets the seed (from memory)
	GetSeed() []byte

	// IsInitialized checks if seed is initialized
	IsInitialized() bool

	// Clear clears the seed from memory
	Clear()
}
