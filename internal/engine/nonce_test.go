package engine_test

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hdwallet-provider/internal/engine"
	"github/chapool/hdwallet-provider/internal/test"
)

func TestNonceTracker(t *testing.T) {
	backend := test.NewBackend(t)
	key, err := crypto.HexToECDSA("3f841bf589fdf83a521e55d51afddc34fa65351161eead24f064855fc29c9580")
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)
	backend.SetNonce(from, 5)

	transport, err := engine.DialTransport(t.Context(), backend.URL)
	require.NoError(t, err)

	nonces := engine.NewNonceTracker()
	e := engine.New(transport, engine.Options{PollingInterval: time.Hour}, nonces)
	require.NoError(t, e.Start())
	defer e.Stop()

	send := func(method string, params ...interface{}) []byte {
		req, err := engine.NewRequest(method, params...)
		require.NoError(t, err)
		res, err := e.Send(t.Context(), req)
		require.NoError(t, err)
		return res
	}

	var nonce hexutil.Uint64
	require.NoError(t, json.Unmarshal(send("eth_getTransactionCount", from, "pending"), &nonce))
	assert.Equal(t, hexutil.Uint64(5), nonce)
	require.NoError(t, json.Unmarshal(send("eth_getTransactionCount", from, "pending"), &nonce))
	assert.Equal(t, hexutil.Uint64(5), nonce)
	assert.Equal(t, 1, backend.Calls("eth_getTransactionCount"))

	// non pending queries are never cached
	send("eth_getTransactionCount", from, "latest")
	assert.Equal(t, 2, backend.Calls("eth_getTransactionCount"))

	to := common.HexToAddress("0xbd3366a0e5d2fb52691e3e08fabe136b0d4e5929")
	signed, err := types.SignNewTx(key, types.LatestSignerForChainID(big.NewInt(test.TestChainID)), &types.LegacyTx{
		Nonce:    5,
		GasPrice: big.NewInt(test.TestGasPrice),
		Gas:      test.TestGasLimit,
		To:       &to,
		Value:    big.NewInt(1),
	})
	require.NoError(t, err)
	raw, err := signed.MarshalBinary()
	require.NoError(t, err)

	send("eth_sendRawTransaction", hexutil.Bytes(raw))

	cached, ok := nonces.Nonce(from)
	require.True(t, ok)
	assert.Equal(t, uint64(6), cached)

	require.NoError(t, json.Unmarshal(send("eth_getTransactionCount", from, "pending"), &nonce))
	assert.Equal(t, hexutil.Uint64(6), nonce)
	assert.Equal(t, 2, backend.Calls("eth_getTransactionCount"))

	nonces.Reset()
	_, ok = nonces.Nonce(from)
	assert.False(t, ok)
}
