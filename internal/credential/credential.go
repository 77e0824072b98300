// Package credential models the accepted signing sources: a BIP-39 mnemonic or an
// ordered list of hex encoded private keys. A single key is a one-element list.
package credential

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/hdwallet-provider/internal/wallet/seed"
)

// ErrInvalidMnemonic is returned when a mnemonic is empty or fails validation.
var ErrInvalidMnemonic = seed.ErrInvalidMnemonic

type Kind int

const (
	KindUndefined Kind = iota
	KindMnemonic
	KindPrivateKeys
)

func (k Kind) String() string {
	switch k {
	case KindMnemonic:
		return "mnemonic"
	case KindPrivateKeys:
		return "private_keys"
	default:
		return "undefined"
	}
}

// Credential is immutable once constructed. The zero value is undefined and is
// rejected like an invalid mnemonic.
type Credential struct {
	kind        Kind
	mnemonic    string
	privateKeys []string
}

// Mnemonic validates phrase and returns a mnemonic credential.
func Mnemonic(phrase string) (Credential, error) {
	phrase = strings.TrimSpace(phrase)
	if err := seed.ValidateMnemonic(phrase); err != nil {
		return Credential{}, err
	}

	return Credential{kind: KindMnemonic, mnemonic: phrase}, nil
}

// PrivateKeys returns a credential for keys in the given order. Keys are not
// decoded here, malformed keys fail when the wallet set is derived.
func PrivateKeys(keys ...string) Credential {
	cp := make([]string, len(keys))
	copy(cp, keys)

	return Credential{kind: KindPrivateKeys, privateKeys: cp}
}

// Parse treats s as a private key if it is 32 bytes of hex (optionally 0x
// prefixed), otherwise as a mnemonic.
func Parse(s string) (Credential, error) {
	s = strings.TrimSpace(s)
	if IsPrivateKey(s) {
		return PrivateKeys(s), nil
	}

	return Mnemonic(s)
}

// IsPrivateKey reports whether s looks like a hex encoded 32 byte key.
func IsPrivateKey(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*32 {
		return false
	}

	_, err := hex.DecodeString(s)
	return err == nil
}

// FromKeystore decrypts an encrypted key file (web3 secret storage) into a
// single key credential.
func FromKeystore(keyJSON []byte, password string) (Credential, error) {
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return Credential{}, errors.Wrap(err, "failed to decrypt keystore")
	}

	return PrivateKeys(hex.EncodeToString(crypto.FromECDSA(key.PrivateKey))), nil
}

func (c Credential) Kind() Kind {
	return c.kind
}

func (c Credential) Mnemonic() string {
	return c.mnemonic
}

// PrivateKeys returns a copy of the key list.
func (c Credential) PrivateKeys() []string {
	cp := make([]string, len(c.privateKeys))
	copy(cp, c.privateKeys)

	return cp
}

// String never reveals secret material.
func (c Credential) String() string {
	switch c.kind {
	case KindPrivateKeys:
		return "private_keys(" + strings.Repeat("*", len(c.privateKeys)) + ")"
	default:
		return c.kind.String()
	}
}
