package signer

import (
	"bytes"
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

type service struct{}

// NewService creates a new signer Service
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Service {
	return &service{}
}

// SignTransaction signs args with key. All fields except to, value, data and
// accessList must already be filled.
func (s *service) SignTransaction(ctx context.Context, key *ecdsa.PrivateKey, args *TxArgs) (*SignedTransaction, error) {
	if key == nil {
		return nil, errors.New("missing private key")
	}
	if args == nil {
		return nil, errors.New("missing transaction arguments")
	}

	if args.Data != nil && args.Input != nil && !bytes.Equal(*args.Data, *args.Input) {
		return nil, errors.New(`both "data" and "input" are set and not equal`)
	}

	if args.IsDynamicFee() {
		return s.signEIP1559Transaction(ctx, args, key)
	}

	return s.signLegacyTransaction(ctx, args, key)
}

// SignMessage signs keccak256("\x19Ethereum Signed Message:\n" + len + message)
func (s *service) SignMessage(_ context.Context, key *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.New("missing private key")
	}

	signature, err := crypto.Sign(accounts.TextHash(message), key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}

	const recoveryIDOffset = 27
	signature[crypto.RecoveryIDOffset] += recoveryIDOffset

	return signature, nil
}
