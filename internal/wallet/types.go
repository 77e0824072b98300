package wallet

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/hdwallet-provider/internal/config"
)

var (
	// ErrUnknownAddress is returned when no signing key is held for an address.
	ErrUnknownAddress = errors.New("unknown address")
	// ErrNoPrivateKeys is returned for an empty private key list.
	ErrNoPrivateKeys = errors.New("no private keys given")
)

// Wallet is a derived address and its signing key
type Wallet struct {
	Address common.Address
	// DerivationPath is empty for explicitly supplied private keys
	DerivationPath string
	AddressIndex   int

	privateKey *ecdsa.PrivateKey
}

// PrivateKey returns the signing key of the wallet
func (w Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// AddressHex returns the 0x prefixed lowercase address
func (w Wallet) AddressHex() string {
	return strings.ToLower(w.Address.Hex())
}

// Options controls wallet set derivation
type Options struct {
	// StartIndex is the first address index derived from a mnemonic. Ignored for private keys.
	StartIndex int
	// Count is the number of wallets. Key lists are clamped to their length.
	Count int
	// HDPath is the base derivation path, the address index is appended.
	HDPath string
	// Password is the optional BIP-39 passphrase.
	Password string
}

func DefaultOptions() Options {
	return Options{
		StartIndex: 0,
		Count:      config.DefaultAddressCount,
		HDPath:     config.DefaultHDPath,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Count <= 0 {
		o.Count = d.Count
	}
	if o.HDPath == "" {
		o.HDPath = d.HDPath
	}

	return o
}
