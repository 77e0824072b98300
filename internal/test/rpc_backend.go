package test

import (
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	TestChainID  = 237
	TestGasPrice = 1_000_000_000
	TestGasLimit = 21_000
	TestTip      = 2_000_000_000
)

// RPCError is a JSON-RPC error the backend can be told to return.
type RPCError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *RPCError) Error() string          { return e.Message }
func (e *RPCError) ErrorCode() int         { return e.Code }
func (e *RPCError) ErrorData() interface{} { return e.Data }

// Backend is an in-memory upstream node serving the eth namespace over HTTP.
// It reports an empty chain at block 0 and records broadcast transactions.
type Backend struct {
	URL string

	mu          sync.Mutex
	blockNumber uint64
	nonces      map[common.Address]uint64
	calls       map[string]int
	txs         []*types.Transaction
	sendErr     *RPCError
}

// NewBackend starts a backend torn down with t.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		nonces: make(map[common.Address]uint64),
		calls:  make(map[string]int),
	}

	server := rpc.NewServer()
	if err := server.RegisterName("eth", &ethAPI{b: b}); err != nil {
		t.Fatalf("failed to register eth api: %v", err)
	}
	if err := server.RegisterName("net", &netAPI{b: b}); err != nil {
		t.Fatalf("failed to register net api: %v", err)
	}

	ts := httptest.NewServer(server)
	b.URL = ts.URL

	t.Cleanup(func() {
		ts.Close()
		server.Stop()
	})

	return b
}

// Calls returns how often method was served.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls[method]
}

// Transactions returns the broadcast transactions in order.
func (b *Backend) Transactions() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := make([]*types.Transaction, len(b.txs))
	copy(res, b.txs)
	return res
}

// SetBlockNumber moves the head.
func (b *Backend) SetBlockNumber(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.blockNumber = n
}

// SetNonce sets the pending nonce reported for addr.
func (b *Backend) SetNonce(addr common.Address, nonce uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nonces[addr] = nonce
}

// FailSend makes eth_sendRawTransaction return err.
func (b *Backend) FailSend(err *RPCError) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sendErr = err
}

func (b *Backend) record(method string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls[method]++
}

type ethAPI struct {
	b *Backend
}

func (api *ethAPI) BlockNumber() hexutil.Uint64 {
	api.b.record("eth_blockNumber")

	api.b.mu.Lock()
	defer api.b.mu.Unlock()
	return hexutil.Uint64(api.b.blockNumber)
}

func (api *ethAPI) ChainId() *hexutil.Big { //nolint:revive,stylecheck // rpc method name is eth_chainId
	api.b.record("eth_chainId")
	return (*hexutil.Big)(big.NewInt(TestChainID))
}

func (api *ethAPI) GasPrice() *hexutil.Big {
	api.b.record("eth_gasPrice")
	return (*hexutil.Big)(big.NewInt(TestGasPrice))
}

func (api *ethAPI) MaxPriorityFeePerGas() *hexutil.Big {
	api.b.record("eth_maxPriorityFeePerGas")
	return (*hexutil.Big)(big.NewInt(TestTip))
}

func (api *ethAPI) EstimateGas(_ map[string]interface{}) hexutil.Uint64 {
	api.b.record("eth_estimateGas")
	return TestGasLimit
}

func (api *ethAPI) GetTransactionCount(addr common.Address, _ string) hexutil.Uint64 {
	api.b.record("eth_getTransactionCount")

	api.b.mu.Lock()
	defer api.b.mu.Unlock()
	return hexutil.Uint64(api.b.nonces[addr])
}

func (api *ethAPI) Accounts() []common.Address {
	api.b.record("eth_accounts")
	return []common.Address{}
}

func (api *ethAPI) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	api.b.record("eth_sendRawTransaction")

	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, &RPCError{Code: -32602, Message: err.Error()}
	}

	api.b.mu.Lock()
	defer api.b.mu.Unlock()

	if api.b.sendErr != nil {
		return common.Hash{}, api.b.sendErr
	}

	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return common.Hash{}, &RPCError{Code: -32000, Message: err.Error()}
	}

	api.b.txs = append(api.b.txs, tx)
	if tx.Nonce()+1 > api.b.nonces[sender] {
		api.b.nonces[sender] = tx.Nonce() + 1
	}

	return tx.Hash(), nil
}

type netAPI struct {
	b *Backend
}

func (api *netAPI) Version() string {
	api.b.record("net_version")
	return "237"
}
