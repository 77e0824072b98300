package signer

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Service provides transaction and message signing functionality
type Service interface {
	// SignTransaction signs a fully populated transaction (legacy or EIP-1559)
	SignTransaction(ctx context.Context, key *ecdsa.PrivateKey, args *TxArgs) (*SignedTransaction, error)

	// SignMessage produces an EIP-191 personal message signature with v in {27, 28}
	SignMessage(ctx context.Context, key *ecdsa.PrivateKey, message []byte) ([]byte, error)
}

// TxArgs mirrors the eth_sendTransaction parameter object
type TxArgs struct {
	From                 *common.Address   `json:"from,omitempty"`
	To                   *common.Address   `json:"to,omitempty"`
	Gas                  *hexutil.Uint64   `json:"gas,omitempty"`
	GasPrice             *hexutil.Big      `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big      `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big      `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big      `json:"value,omitempty"`
	Nonce                *hexutil.Uint64   `json:"nonce,omitempty"`
	Data                 *hexutil.Bytes    `json:"data,omitempty"`
	Input                *hexutil.Bytes    `json:"input,omitempty"`
	AccessList           *types.AccessList `json:"accessList,omitempty"`
	ChainID              *hexutil.Big      `json:"chainId,omitempty"`
}

// IsDynamicFee reports whether EIP-1559 fee fields are used
func (args *TxArgs) IsDynamicFee() bool {
	return args.MaxFeePerGas != nil || args.MaxPriorityFeePerGas != nil
}

// CallData returns input, falling back to data
func (args *TxArgs) CallData() []byte {
	if args.Input != nil {
		return *args.Input
	}
	if args.Data != nil {
		return *args.Data
	}

	return nil
}

// SignedTransaction is a signed, RLP encoded transaction
type SignedTransaction struct {
	Tx             *types.Transaction
	RawTransaction []byte
	TxHash         common.Hash
}
