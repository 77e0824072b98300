package provider

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github/chapool/hdwallet-provider/internal/engine"
	"github/chapool/hdwallet-provider/internal/metrics"
	"github/chapool/hdwallet-provider/internal/util"
	"github/chapool/hdwallet-provider/internal/wallet"
	"github/chapool/hdwallet-provider/internal/wallet/signer"
)

// hookedWallet answers account queries from the wallet set and replaces
// eth_sendTransaction with a locally signed eth_sendRawTransaction.
// Sends of one sender are serialized from nonce lookup until broadcast.
type hookedWallet struct {
	wallets *wallet.Set
	signer  signer.Service
	metrics *metrics.Metrics

	mu          sync.Mutex
	senderLocks map[common.Address]*sync.Mutex
}

func newHookedWallet(wallets *wallet.Set, signerService signer.Service, m *metrics.Metrics) *hookedWallet {
	return &hookedWallet{
		wallets:     wallets,
		signer:      signerService,
		metrics:     m,
		senderLocks: make(map[common.Address]*sync.Mutex),
	}
}

// lockSender blocks until no other send of from is in flight. The returned func unlocks.
func (h *hookedWallet) lockSender(from common.Address) func() {
	h.mu.Lock()
	l, ok := h.senderLocks[from]
	if !ok {
		l = &sync.Mutex{}
		h.senderLocks[from] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (h *hookedWallet) Name() string {
	return "hooked_wallet"
}

func (h *hookedWallet) Handle(ctx context.Context, req *engine.Request, next engine.Handler) (json.RawMessage, error) {
	switch req.Method {
	case "eth_accounts":
		return json.Marshal(h.wallets.Addresses())
	case "eth_coinbase":
		return json.Marshal(h.wallets.Default())
	case "eth_sendTransaction":
		return h.sendTransaction(ctx, req, next)
	case "eth_signTransaction":
		signed, err := h.signTransaction(ctx, req, next)
		if err != nil {
			return nil, err
		}
		return json.Marshal(hexutil.Bytes(signed.RawTransaction))
	case "personal_sign":
		var (
			data hexutil.Bytes
			addr common.Address
		)
		if err := req.UnmarshalParams(&data, &addr); err != nil {
			return nil, err
		}
		return h.signMessage(ctx, addr, data)
	case "eth_sign":
		var (
			addr common.Address
			data hexutil.Bytes
		)
		if err := req.UnmarshalParams(&addr, &data); err != nil {
			return nil, err
		}
		return h.signMessage(ctx, addr, data)
	default:
		return next(ctx, req)
	}
}

func (h *hookedWallet) sendTransaction(ctx context.Context, req *engine.Request, next engine.Handler) (json.RawMessage, error) {
	args, key, err := h.txArgs(req)
	if err != nil {
		return nil, err
	}

	unlock := h.lockSender(*args.From)
	defer unlock()

	signed, err := h.fillAndSign(ctx, args, key, next)
	if err != nil {
		return nil, err
	}

	raw, err := engine.NewRequest("eth_sendRawTransaction", hexutil.Bytes(signed.RawTransaction))
	if err != nil {
		return nil, err
	}
	raw.ID = req.ID

	util.LogFromContext(ctx).Debug().
		Str("component", "hooked_wallet").
		Str("tx_hash", signed.TxHash.Hex()).
		Uint64("nonce", signed.Tx.Nonce()).
		Msg("Forwarding signed transaction")

	return next(ctx, raw)
}

func (h *hookedWallet) signTransaction(ctx context.Context, req *engine.Request, next engine.Handler) (*signer.SignedTransaction, error) {
	args, key, err := h.txArgs(req)
	if err != nil {
		return nil, err
	}

	return h.fillAndSign(ctx, args, key, next)
}

// txArgs decodes the transaction object of req, defaults from and looks up its key.
func (h *hookedWallet) txArgs(req *engine.Request) (*signer.TxArgs, *ecdsa.PrivateKey, error) {
	var args signer.TxArgs
	if err := req.UnmarshalParams(&args); err != nil {
		return nil, nil, err
	}

	if args.From == nil {
		from := h.wallets.Default()
		args.From = &from
	}

	key, err := h.wallets.PrivateKey(args.From.Hex())
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to sign transaction")
	}

	return &args, key, nil
}

func (h *hookedWallet) fillAndSign(ctx context.Context, args *signer.TxArgs, key *ecdsa.PrivateKey, next engine.Handler) (*signer.SignedTransaction, error) {
	if err := h.fillTransaction(ctx, args, next); err != nil {
		return nil, err
	}

	signed, err := h.signer.SignTransaction(ctx, key, args)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}
	h.metrics.SignedTxs.Inc()

	return signed, nil
}

// fillTransaction asks the downstream links for everything args leaves open.
func (h *hookedWallet) fillTransaction(ctx context.Context, args *signer.TxArgs, next engine.Handler) error {
	if args.ChainID == nil {
		var chainID hexutil.Big
		if err := engine.Call(ctx, next, &chainID, "eth_chainId"); err != nil {
			return err
		}
		args.ChainID = &chainID
	}

	if args.Nonce == nil {
		var nonce hexutil.Uint64
		if err := engine.Call(ctx, next, &nonce, "eth_getTransactionCount", args.From, "pending"); err != nil {
			return err
		}
		args.Nonce = &nonce
	}

	if args.IsDynamicFee() {
		if args.MaxPriorityFeePerGas == nil {
			var tip hexutil.Big
			if err := engine.Call(ctx, next, &tip, "eth_maxPriorityFeePerGas"); err != nil {
				return err
			}
			args.MaxPriorityFeePerGas = &tip
		}
		if args.MaxFeePerGas == nil {
			var gasPrice hexutil.Big
			if err := engine.Call(ctx, next, &gasPrice, "eth_gasPrice"); err != nil {
				return err
			}
			// 2 * gasPrice + tip
			maxFee := new(big.Int).Mul(gasPrice.ToInt(), big.NewInt(2))
			maxFee.Add(maxFee, args.MaxPriorityFeePerGas.ToInt())
			args.MaxFeePerGas = (*hexutil.Big)(maxFee)
		}
	} else if args.GasPrice == nil {
		var gasPrice hexutil.Big
		if err := engine.Call(ctx, next, &gasPrice, "eth_gasPrice"); err != nil {
			return err
		}
		args.GasPrice = &gasPrice
	}

	if args.Gas == nil {
		estimate := *args
		estimate.ChainID = nil
		estimate.Nonce = nil

		var gas hexutil.Uint64
		if err := engine.Call(ctx, next, &gas, "eth_estimateGas", &estimate); err != nil {
			return err
		}
		args.Gas = &gas
	}

	return nil
}

func (h *hookedWallet) signMessage(ctx context.Context, addr common.Address, data []byte) (json.RawMessage, error) {
	key, err := h.wallets.PrivateKey(addr.Hex())
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}

	signature, err := h.signer.SignMessage(ctx, key, data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(hexutil.Bytes(signature))
}
