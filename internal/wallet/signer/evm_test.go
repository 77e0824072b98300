package signer_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hdwallet-provider/internal/wallet/signer"
)

const testPrivateKey = "3f841bf589fdf83a521e55d51afddc34fa65351161eead24f064855fc29c9580"

func filledArgs(t *testing.T) *signer.TxArgs {
	t.Helper()

	from := common.HexToAddress("0xc515db5834d8f110eee96c3036854dbf1d87de2b")
	to := common.HexToAddress("0xbd3366a0e5d2fb52691e3e08fabe136b0d4e5929")
	nonce := hexutil.Uint64(3)
	gas := hexutil.Uint64(21000)
	data := hexutil.Bytes{0xca, 0xfe}

	return &signer.TxArgs{
		From:     &from,
		To:       &to,
		Gas:      &gas,
		GasPrice: (*hexutil.Big)(big.NewInt(20_000_000_000)),
		Value:    (*hexutil.Big)(big.NewInt(1_000)),
		Nonce:    &nonce,
		Data:     &data,
		ChainID:  (*hexutil.Big)(big.NewInt(237)),
	}
}

func testKey(t *testing.T) *signerKey {
	t.Helper()

	key, err := crypto.HexToECDSA(testPrivateKey)
	require.NoError(t, err)

	return &signerKey{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func TestSignLegacyTransaction(t *testing.T) {
	ctx := t.Context()
	k := testKey(t)
	args := filledArgs(t)

	signed, err := signer.NewService().SignTransaction(ctx, k.key, args)
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(signed.RawTransaction))
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.Equal(t, signed.TxHash, tx.Hash())
	assert.Equal(t, uint64(3), tx.Nonce())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, big.NewInt(1_000), tx.Value())
	assert.Equal(t, []byte{0xca, 0xfe}, tx.Data())
	assert.Equal(t, big.NewInt(237), tx.ChainId())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(237)), &tx)
	require.NoError(t, err)
	assert.Equal(t, k.address, sender)
}

func TestSignEIP1559Transaction(t *testing.T) {
	ctx := t.Context()
	k := testKey(t)
	args := filledArgs(t)
	args.GasPrice = nil
	args.MaxFeePerGas = (*hexutil.Big)(big.NewInt(30_000_000_000))
	args.MaxPriorityFeePerGas = (*hexutil.Big)(big.NewInt(1_000_000_000))

	signed, err := signer.NewService().SignTransaction(ctx, k.key, args)
	require.NoError(t, err)

	assert.Equal(t, uint8(types.DynamicFeeTxType), signed.Tx.Type())
	assert.Equal(t, big.NewInt(30_000_000_000), signed.Tx.GasFeeCap())
	assert.Equal(t, big.NewInt(1_000_000_000), signed.Tx.GasTipCap())

	sender, err := types.Sender(types.LatestSignerForChainID(signed.Tx.ChainId()), signed.Tx)
	require.NoError(t, err)
	assert.Equal(t, k.address, sender)
}

func TestSignTransactionValidation(t *testing.T) {
	ctx := t.Context()
	k := testKey(t)
	svc := signer.NewService()

	other := common.HexToAddress("0x852dcb4fc2abac2e5d1e641fb0cc61f3d0017491")
	args := filledArgs(t)
	args.From = &other
	_, err := svc.SignTransaction(ctx, k.key, args)
	assert.EqualError(t, err, "from address does not match private key")

	args = filledArgs(t)
	args.Nonce = nil
	_, err = svc.SignTransaction(ctx, k.key, args)
	assert.EqualError(t, err, "nonce not set")

	args = filledArgs(t)
	args.GasPrice = nil
	_, err = svc.SignTransaction(ctx, k.key, args)
	assert.EqualError(t, err, "gasPrice not set")

	args = filledArgs(t)
	args.GasPrice = nil
	args.MaxFeePerGas = (*hexutil.Big)(big.NewInt(1))
	_, err = svc.SignTransaction(ctx, k.key, args)
	assert.Error(t, err)

	args = filledArgs(t)
	input := hexutil.Bytes{0x01}
	args.Input = &input
	_, err = svc.SignTransaction(ctx, k.key, args)
	assert.Error(t, err)

	_, err = svc.SignTransaction(ctx, nil, filledArgs(t))
	assert.Error(t, err)
}

func TestSignMessage(t *testing.T) {
	ctx := t.Context()
	k := testKey(t)
	message := []byte("hello dexon")

	signature, err := signer.NewService().SignMessage(ctx, k.key, message)
	require.NoError(t, err)
	require.Len(t, signature, crypto.SignatureLength)
	assert.Contains(t, []byte{27, 28}, signature[crypto.RecoveryIDOffset])

	signature[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(message), signature)
	require.NoError(t, err)
	assert.Equal(t, k.address, crypto.PubkeyToAddress(*pub))
}
