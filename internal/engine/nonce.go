package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
)

// NonceTracker answers pending eth_getTransactionCount from a local cache that
// advances with every transaction broadcast through it. Reset on every new block.
type NonceTracker struct {
	mu    sync.Mutex
	cache map[common.Address]uint64
}

func NewNonceTracker() *NonceTracker {
	return &NonceTracker{cache: make(map[common.Address]uint64)}
}

func (n *NonceTracker) Name() string {
	return "nonce_tracker"
}

func (n *NonceTracker) Handle(ctx context.Context, req *Request, next Handler) (json.RawMessage, error) {
	switch req.Method {
	case "eth_getTransactionCount":
		return n.getTransactionCount(ctx, req, next)
	case "eth_sendRawTransaction":
		return n.sendRawTransaction(ctx, req, next)
	default:
		return next(ctx, req)
	}
}

func (n *NonceTracker) getTransactionCount(ctx context.Context, req *Request, next Handler) (json.RawMessage, error) {
	var (
		addr  common.Address
		block string
	)
	if err := req.UnmarshalParams(&addr, &block); err != nil || block != "pending" {
		return next(ctx, req)
	}

	n.mu.Lock()
	cached, ok := n.cache[addr]
	n.mu.Unlock()
	if ok {
		return json.Marshal(hexutil.Uint64(cached))
	}

	result, err := next(ctx, req)
	if err != nil {
		return nil, err
	}

	var nonce hexutil.Uint64
	if err := json.Unmarshal(result, &nonce); err == nil {
		n.mu.Lock()
		if current, ok := n.cache[addr]; !ok || uint64(nonce) > current {
			n.cache[addr] = uint64(nonce)
		}
		n.mu.Unlock()
	}

	return result, nil
}

func (n *NonceTracker) sendRawTransaction(ctx context.Context, req *Request, next Handler) (json.RawMessage, error) {
	result, err := next(ctx, req)
	if err != nil {
		return nil, err
	}

	var raw hexutil.Bytes
	if err := req.UnmarshalParams(&raw); err != nil {
		return result, nil
	}

	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		log.Debug().Str("component", "nonce_tracker").Err(err).Msg("Failed to decode broadcast transaction")
		return result, nil
	}

	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		log.Debug().Str("component", "nonce_tracker").Err(err).Msg("Failed to recover transaction sender")
		return result, nil
	}

	n.mu.Lock()
	if current, ok := n.cache[sender]; !ok || tx.Nonce()+1 > current {
		n.cache[sender] = tx.Nonce() + 1
	}
	n.mu.Unlock()

	return result, nil
}

// Reset drops all cached nonces.
func (n *NonceTracker) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.cache = make(map[common.Address]uint64)
}

// Nonce returns the cached pending nonce of addr.
func (n *NonceTracker) Nonce(addr common.Address) (uint64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	nonce, ok := n.cache[addr]
	return nonce, ok
}
