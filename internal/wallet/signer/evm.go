package signer

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// signLegacyTransaction signs a gasPrice based transaction (EIP-155 replay protected)
func (s *service) signLegacyTransaction(_ context.Context, args *TxArgs, privateKey *ecdsa.PrivateKey) (*SignedTransaction, error) {
	if err := checkCommon(args, privateKey); err != nil {
		return nil, err
	}
	if args.GasPrice == nil {
		return nil, errors.New("gasPrice not set")
	}

	var data types.TxData
	if args.AccessList != nil {
		data = &types.AccessListTx{
			ChainID:    args.ChainID.ToInt(),
			Nonce:      uint64(*args.Nonce),
			GasPrice:   args.GasPrice.ToInt(),
			Gas:        uint64(*args.Gas),
			To:         args.To,
			Value:      value(args),
			Data:       args.CallData(),
			AccessList: *args.AccessList,
		}
	} else {
		data = &types.LegacyTx{
			Nonce:    uint64(*args.Nonce),
			GasPrice: args.GasPrice.ToInt(),
			Gas:      uint64(*args.Gas),
			To:       args.To,
			Value:    value(args),
			Data:     args.CallData(),
		}
	}

	return sign(types.NewTx(data), args.ChainID.ToInt(), privateKey)
}

// signEIP1559Transaction signs an EIP-1559 transaction
func (s *service) signEIP1559Transaction(_ context.Context, args *TxArgs, privateKey *ecdsa.PrivateKey) (*SignedTransaction, error) {
	if err := checkCommon(args, privateKey); err != nil {
		return nil, err
	}
	if args.MaxFeePerGas == nil || args.MaxPriorityFeePerGas == nil {
		return nil, errors.New("maxFeePerGas and maxPriorityFeePerGas must both be set")
	}
	if args.MaxFeePerGas.ToInt().Cmp(args.MaxPriorityFeePerGas.ToInt()) < 0 {
		return nil, errors.New("maxFeePerGas is lower than maxPriorityFeePerGas")
	}

	var accessList types.AccessList
	if args.AccessList != nil {
		accessList = *args.AccessList
	}

	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:    args.ChainID.ToInt(),
		Nonce:      uint64(*args.Nonce),
		GasTipCap:  args.MaxPriorityFeePerGas.ToInt(),
		GasFeeCap:  args.MaxFeePerGas.ToInt(),
		Gas:        uint64(*args.Gas),
		To:         args.To,
		Value:      value(args),
		Data:       args.CallData(),
		AccessList: accessList,
	})

	return sign(tx, args.ChainID.ToInt(), privateKey)
}

func checkCommon(args *TxArgs, privateKey *ecdsa.PrivateKey) error {
	if args.From == nil {
		return errors.New("from not set")
	}
	if derived := crypto.PubkeyToAddress(privateKey.PublicKey); derived != *args.From {
		return errors.New("from address does not match private key")
	}
	if args.Nonce == nil {
		return errors.New("nonce not set")
	}
	if args.Gas == nil {
		return errors.New("gas not set")
	}
	if args.ChainID == nil {
		return errors.New("chainId not set")
	}

	return nil
}

func value(args *TxArgs) *big.Int {
	if args.Value == nil {
		return new(big.Int)
	}

	return args.Value.ToInt()
}

//nolint:varnamelen // tx is a common abbreviation for transaction
func sign(tx *types.Transaction, chainID *big.Int, privateKey *ecdsa.PrivateKey) (*SignedTransaction, error) {
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	txBytes, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal transaction")
	}

	return &SignedTransaction{
		Tx:             signedTx,
		RawTransaction: txBytes,
		TxHash:         signedTx.Hash(),
	}, nil
}
