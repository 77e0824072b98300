package address

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Service provides HD address derivation for EVM chains
type Service interface {
	// DeriveAddress derives the address at path from seed
	DeriveAddress(ctx context.Context, seed []byte, path string) (common.Address, error)

	// DerivePrivateKey derives the signing key at path from seed
	DerivePrivateKey(ctx context.Context, seed []byte, path string) (*ecdsa.PrivateKey, error)

	// GetBIP44Path appends addressIndex to the configured base path
	GetBIP44Path(addressIndex int) string
}
