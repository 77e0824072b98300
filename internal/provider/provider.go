// Package provider turns a credential into a signing JSON-RPC provider: locally
// held keys sign transactions and messages, everything else goes to the upstream node.
package provider

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/hdwallet-provider/internal/credential"
	"github/chapool/hdwallet-provider/internal/engine"
	"github/chapool/hdwallet-provider/internal/metrics"
	"github/chapool/hdwallet-provider/internal/wallet"
	"github/chapool/hdwallet-provider/internal/wallet/signer"
)

type options struct {
	wallet          wallet.Options
	pollingInterval time.Duration
	fallbackURLs    []string
	metrics         *metrics.Metrics
	middlewares     []engine.Middleware
}

type Option func(*options)

// WithStartIndex sets the first derived address index (mnemonics only).
func WithStartIndex(index int) Option {
	return func(o *options) { o.wallet.StartIndex = index }
}

// WithAddressCount sets how many addresses are derived. Key lists are clamped to their length.
func WithAddressCount(count int) Option {
	return func(o *options) { o.wallet.Count = count }
}

// WithHDPath overrides the base derivation path.
func WithHDPath(path string) Option {
	return func(o *options) { o.wallet.HDPath = path }
}

// WithPassword sets the BIP-39 passphrase.
func WithPassword(password string) Option {
	return func(o *options) { o.wallet.Password = password }
}

// WithPollingInterval sets the block tracker interval.
func WithPollingInterval(interval time.Duration) Option {
	return func(o *options) { o.pollingInterval = interval }
}

// WithFallbackURLs adds upstream endpoints used when rpcURL is unreachable.
func WithFallbackURLs(urls ...string) Option {
	return func(o *options) { o.fallbackURLs = append(o.fallbackURLs, urls...) }
}

// WithMetrics records pipeline metrics into m instead of a private instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMiddleware inserts extra middlewares in front of the signing layer.
func WithMiddleware(middlewares ...engine.Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, middlewares...) }
}

// Provider is a started signing provider. Call Stop (or Engine().Stop()) when done.
type Provider struct {
	wallets *wallet.Set
	engine  *engine.Engine
	nonces  *engine.NonceTracker
	metrics *metrics.Metrics
}

// New derives the wallet set for cred, connects to rpcURL and starts the pipeline.
// Mnemonic validation happens first, so an invalid mnemonic fails with
// credential.ErrInvalidMnemonic before any network activity.
func New(ctx context.Context, cred credential.Credential, rpcURL string, opts ...Option) (*Provider, error) {
	o := options{wallet: wallet.DefaultOptions()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	wallets, err := wallet.NewSet(ctx, cred, o.wallet)
	if err != nil {
		if errors.Is(err, credential.ErrInvalidMnemonic) {
			return nil, credential.ErrInvalidMnemonic
		}
		return nil, errors.Wrap(err, "failed to derive wallets")
	}

	transport, err := dialTransport(ctx, rpcURL, o.fallbackURLs)
	if err != nil {
		return nil, err
	}

	nonces := engine.NewNonceTracker()
	middlewares := append([]engine.Middleware{
		engine.NewLoggerMiddleware(),
		engine.NewMetricsMiddleware(o.metrics),
	}, o.middlewares...)
	middlewares = append(middlewares,
		newHookedWallet(wallets, signer.NewService(), o.metrics),
		nonces,
	)

	p := &Provider{
		wallets: wallets,
		engine:  engine.New(transport, engine.Options{PollingInterval: o.pollingInterval}, middlewares...),
		nonces:  nonces,
		metrics: o.metrics,
	}

	p.engine.Subscribe(func(blockNumber uint64) {
		nonces.Reset()
		o.metrics.LatestBlock.Set(float64(blockNumber))
	})

	if err := p.engine.Start(); err != nil {
		transport.Close()
		return nil, errors.Wrap(err, "failed to start engine")
	}

	log.Debug().
		Str("component", "provider").
		Str("rpc_url", rpcURL).
		Int("addresses", wallets.Len()).
		Msg("Provider started")

	return p, nil
}

//nolint:ireturn
func dialTransport(ctx context.Context, rpcURL string, fallbackURLs []string) (engine.Transport, error) {
	if len(fallbackURLs) == 0 {
		return engine.DialTransport(ctx, rpcURL)
	}

	return engine.DialFailoverTransport(ctx, append([]string{rpcURL}, fallbackURLs...))
}

// NewFromString parses s as a mnemonic or private key and calls New.
func NewFromString(ctx context.Context, s string, rpcURL string, opts ...Option) (*Provider, error) {
	cred, err := credential.Parse(s)
	if err != nil {
		return nil, err
	}

	return New(ctx, cred, rpcURL, opts...)
}

// Addresses returns the 0x prefixed lowercase addresses, position 0 is the default account.
func (p *Provider) Addresses() []string {
	return p.wallets.Addresses()
}

// PrivateKey returns the signing key of address or wallet.ErrUnknownAddress.
func (p *Provider) PrivateKey(address string) (*ecdsa.PrivateKey, error) {
	return p.wallets.PrivateKey(address)
}

// Wallets exposes the derived wallet set.
func (p *Provider) Wallets() *wallet.Set {
	return p.wallets
}

// Engine exposes the request pipeline, mainly for Stop.
func (p *Provider) Engine() *engine.Engine {
	return p.engine
}

func (p *Provider) Metrics() *metrics.Metrics {
	return p.metrics
}

// Send runs req through the pipeline.
func (p *Provider) Send(ctx context.Context, req *engine.Request) (json.RawMessage, error) {
	return p.engine.Send(ctx, req)
}

// SendAsync runs req in the background and reports (err, result) to callback.
func (p *Provider) SendAsync(ctx context.Context, req *engine.Request, callback func(err error, result json.RawMessage)) {
	p.engine.SendAsync(ctx, req, callback)
}

// Call is a convenience around Send decoding the result into result.
func (p *Provider) Call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	return engine.Call(ctx, p.engine.Send, result, method, params...)
}

// Stop halts the pipeline. The provider must not be used afterwards.
func (p *Provider) Stop() {
	p.engine.Stop()
}

// Close is Stop for io.Closer users.
func (p *Provider) Close() error {
	p.engine.Stop()
	return nil
}
