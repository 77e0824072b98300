package address

import (
	"context"
	"crypto/ecdsa"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

// DeriveAddress derives an EVM address from seed and path
func (s *service) DeriveAddress(ctx context.Context, seed []byte, path string) (common.Address, error) {
	privateKey, err := s.DerivePrivateKey(ctx, seed, path)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive private key")
	}

	return FromPrivateKey(privateKey), nil
}

// DerivePrivateKey derives a secp256k1 private key from seed and path
func (s *service) DerivePrivateKey(_ context.Context, seed []byte, path string) (*ecdsa.PrivateKey, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	derivedKey, err := deriveKeyFromPath(masterKey, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key from path")
	}

	raw := derivedKey.Key
	defer func() {
		for i := range raw {
			raw[i] = 0
		}
	}()

	privateKey, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert to ECDSA private key")
	}

	return privateKey, nil
}

// FromPrivateKey returns keccak256(pubkey)[12:] of the key
func FromPrivateKey(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

func deriveKeyFromPath(masterKey *bip32.Key, path string) (*bip32.Key, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse BIP44 path")
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key, nil
}

const hardenedOffset = 0x80000000

// ParsePath parses a derivation path into child indices
// Example: "m/44'/237'/0'/0/0" -> [2147483692, 2147483885, 2147483648, 0, 0]
func ParsePath(path string) ([]uint32, error) {
	segments := strings.Split(path, "/")
	if segments[0] != "m" {
		return nil, errors.Errorf("invalid BIP44 path: %q", path)
	}

	indices := make([]uint32, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		hardened := strings.HasSuffix(segment, "'")
		segment = strings.TrimSuffix(segment, "'")

		index, err := strconv.ParseUint(segment, 10, 32)
		if err != nil || index >= hardenedOffset {
			return nil, errors.Errorf("invalid path segment: %q", segment)
		}

		if hardened {
			index += hardenedOffset
		}

		indices = append(indices, uint32(index))
	}

	return indices, nil
}
