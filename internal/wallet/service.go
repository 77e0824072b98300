package wallet

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github/chapool/hdwallet-provider/internal/credential"
	"github/chapool/hdwallet-provider/internal/util"
	"github/chapool/hdwallet-provider/internal/wallet/address"
	"github/chapool/hdwallet-provider/internal/wallet/seed"
)

// Set is the ordered, immutable list of wallets derived from a credential.
// Position 0 is the default account. Safe for concurrent use.
type Set struct {
	wallets []Wallet
	index   map[string]*ecdsa.PrivateKey
}

// NewSet derives the wallet set for cred. An undefined or invalid mnemonic fails
// with credential.ErrInvalidMnemonic before anything else happens.
func NewSet(ctx context.Context, cred credential.Credential, opts Options) (*Set, error) {
	log := util.LogFromContext(ctx).With().Str("component", "wallet_set").Logger()
	opts = opts.withDefaults()

	var (
		wallets []Wallet
		err     error
	)

	switch cred.Kind() {
	case credential.KindMnemonic:
		wallets, err = fromMnemonic(ctx, cred.Mnemonic(), opts)
	case credential.KindPrivateKeys:
		wallets, err = fromPrivateKeys(cred.PrivateKeys(), opts.Count)
	default:
		return nil, credential.ErrInvalidMnemonic
	}
	if err != nil {
		return nil, err
	}

	set := &Set{
		wallets: wallets,
		index:   make(map[string]*ecdsa.PrivateKey, len(wallets)),
	}
	for _, w := range wallets {
		set.index[w.AddressHex()] = w.privateKey
	}

	log.Debug().
		Str("credential", cred.String()).
		Int("count", len(wallets)).
		Msg("Derived wallet set")

	return set, nil
}

func fromMnemonic(ctx context.Context, mnemonic string, opts Options) ([]Wallet, error) {
	if opts.StartIndex < 0 {
		return nil, errors.Errorf("invalid address start index %d", opts.StartIndex)
	}

	seedManager := seed.NewManager()
	if err := seedManager.Initialize(mnemonic, opts.Password); err != nil {
		return nil, err
	}
	defer seedManager.Clear()

	addressService, err := address.NewService(opts.HDPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create address service")
	}

	s := seedManager.GetSeed()
	defer func() {
		for i := range s {
			s[i] = 0
		}
	}()

	wallets := make([]Wallet, 0, opts.Count)
	for i := opts.StartIndex; i < opts.StartIndex+opts.Count; i++ {
		path := addressService.GetBIP44Path(i)

		key, err := addressService.DerivePrivateKey(ctx, s, path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive wallet at %s", path)
		}

		wallets = append(wallets, Wallet{
			Address:        address.FromPrivateKey(key),
			DerivationPath: path,
			AddressIndex:   i,
			privateKey:     key,
		})
	}

	return wallets, nil
}

func fromPrivateKeys(keys []string, count int) ([]Wallet, error) {
	if len(keys) == 0 {
		return nil, ErrNoPrivateKeys
	}
	if count > len(keys) {
		count = len(keys)
	}

	wallets := make([]Wallet, 0, count)
	for i, hexKey := range keys[:count] {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X"))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid private key at position %d", i)
		}

		wallets = append(wallets, Wallet{
			Address:      address.FromPrivateKey(key),
			AddressIndex: i,
			privateKey:   key,
		})
	}

	return wallets, nil
}

// Addresses returns the 0x prefixed lowercase addresses in derivation order.
func (s *Set) Addresses() []string {
	res := make([]string, len(s.wallets))
	for i, w := range s.wallets {
		res[i] = w.AddressHex()
	}

	return res
}

// Wallets returns a copy of the ordered wallets.
func (s *Set) Wallets() []Wallet {
	res := make([]Wallet, len(s.wallets))
	copy(res, s.wallets)

	return res
}

func (s *Set) Len() int {
	return len(s.wallets)
}

// Default returns the address at position 0. The zero address is returned for an empty set.
func (s *Set) Default() common.Address {
	if len(s.wallets) == 0 {
		return common.Address{}
	}

	return s.wallets[0].Address
}

// PrivateKey looks up the signing key for address, case-insensitively.
func (s *Set) PrivateKey(addr string) (*ecdsa.PrivateKey, error) {
	if key, ok := s.index[strings.ToLower(addr)]; ok {
		return key, nil
	}

	return nil, errors.Wrapf(ErrUnknownAddress, "%s", addr)
}

// Has reports whether the set holds a key for addr.
func (s *Set) Has(addr common.Address) bool {
	_, ok := s.index[strings.ToLower(addr.Hex())]
	return ok
}
