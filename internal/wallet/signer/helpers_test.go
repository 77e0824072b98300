package signer_test

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

type signerKey struct {
	key     *ecdsa.PrivateKey
	address common.Address
}
