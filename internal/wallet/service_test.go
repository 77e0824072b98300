package wallet_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hdwallet-provider/internal/credential"
	"github/chapool/hdwallet-provider/internal/wallet"
)

const testMnemonic = "candy maple cake sugar pudding cream honey rich smooth crumble sweet treat"

var testAccounts = []string{
	"0x852dcb4fc2abac2e5d1e641fb0cc61f3d0017491",
	"0x0b1e1d60249144a13e7c1da3a21ebe84b07975ed",
	"0xb57a0f13f3ecce715818f78aab1e11cd6935e43e",
	"0x005f3c64df1405c2d7a2be10ee9e7dca85fc525e",
	"0x6008b748473dc0e050d5de8edd348f74fe974d3f",
	"0xaff3a39f8c6480717fb77726cbfffe3235894273",
	"0x2e30cdd294b6451884a54eb8080d5936bcfe316d",
	"0xf56215c1adda35f947ce871343e2be40cf3de63f",
	"0xfc8ce10b93f1b7a374ddc0161d336abb87034100",
	"0x481921c27af48ab3102291bd9af06678ef4dc2d6",
}

var testPrivateKeys = map[string]string{
	"0xc515db5834d8f110eee96c3036854dbf1d87de2b": "3f841bf589fdf83a521e55d51afddc34fa65351161eead24f064855fc29c9580",
	"0xbd3366a0e5d2fb52691e3e08fabe136b0d4e5929": "9549f39decea7b7504e15572b2c6a72766df0281cea22bd1a3bc87166b1ca290",
}

func mustMnemonic(t *testing.T) credential.Credential {
	t.Helper()

	cred, err := credential.Mnemonic(testMnemonic)
	require.NoError(t, err)

	return cred
}

func TestNewSetFromMnemonic(t *testing.T) {
	set, err := wallet.NewSet(t.Context(), mustMnemonic(t), wallet.Options{StartIndex: 0, Count: 10})
	require.NoError(t, err)

	assert.Equal(t, testAccounts, set.Addresses())
	assert.Equal(t, 10, set.Len())
	assert.Equal(t, common.HexToAddress(testAccounts[0]), set.Default())

	for i, w := range set.Wallets() {
		assert.Equal(t, i, w.AddressIndex)
		assert.Equal(t, crypto.PubkeyToAddress(w.PrivateKey().PublicKey), w.Address)
	}
	assert.Equal(t, "m/44'/237'/0'/0/3", set.Wallets()[3].DerivationPath)
}

func TestNewSetFromMnemonicWithStartIndex(t *testing.T) {
	set, err := wallet.NewSet(t.Context(), mustMnemonic(t), wallet.Options{StartIndex: 4, Count: 3})
	require.NoError(t, err)

	assert.Equal(t, testAccounts[4:7], set.Addresses())
	assert.Equal(t, 4, set.Wallets()[0].AddressIndex)
}

func TestNewSetDefaults(t *testing.T) {
	set, err := wallet.NewSet(t.Context(), mustMnemonic(t), wallet.Options{})
	require.NoError(t, err)
	assert.Equal(t, testAccounts, set.Addresses())

	_, err = wallet.NewSet(t.Context(), mustMnemonic(t), wallet.Options{StartIndex: -1})
	assert.Error(t, err)
}

func TestNewSetUndefinedCredential(t *testing.T) {
	_, err := wallet.NewSet(t.Context(), credential.Credential{}, wallet.DefaultOptions())
	require.ErrorIs(t, err, credential.ErrInvalidMnemonic)
	assert.EqualError(t, err, "Mnemonic invalid or undefined")
}

func TestNewSetFromSinglePrivateKey(t *testing.T) {
	cred, err := credential.Parse("3f841bf589fdf83a521e55d51afddc34fa65351161eead24f064855fc29c9580")
	require.NoError(t, err)

	set, err := wallet.NewSet(t.Context(), cred, wallet.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"0xc515db5834d8f110eee96c3036854dbf1d87de2b"}, set.Addresses())
	for _, addr := range set.Addresses() {
		assert.True(t, common.IsHexAddress(addr))
	}
}

func TestNewSetFromPrivateKeys(t *testing.T) {
	keys := []string{
		"3f841bf589fdf83a521e55d51afddc34fa65351161eead24f064855fc29c9580",
		"0x9549f39decea7b7504e15572b2c6a72766df0281cea22bd1a3bc87166b1ca290",
	}

	set, err := wallet.NewSet(t.Context(), credential.PrivateKeys(keys...), wallet.Options{Count: len(keys)})
	require.NoError(t, err)

	addresses := set.Addresses()
	require.Len(t, addresses, len(keys))
	assert.Equal(t, "0xc515db5834d8f110eee96c3036854dbf1d87de2b", addresses[0])
	assert.Equal(t, "0xbd3366a0e5d2fb52691e3e08fabe136b0d4e5929", addresses[1])

	for _, addr := range addresses {
		key, err := crypto.HexToECDSA(testPrivateKeys[addr])
		require.NoError(t, err)
		assert.Equal(t, addr, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()))

		got, err := set.PrivateKey(addr)
		require.NoError(t, err)
		assert.Equal(t, testPrivateKeys[addr], hex.EncodeToString(crypto.FromECDSA(got)))
	}
}

func TestNewSetFromPrivateKeysClampsCount(t *testing.T) {
	keys := []string{
		"3f841bf589fdf83a521e55d51afddc34fa65351161eead24f064855fc29c9580",
		"9549f39decea7b7504e15572b2c6a72766df0281cea22bd1a3bc87166b1ca290",
	}

	set, err := wallet.NewSet(t.Context(), credential.PrivateKeys(keys...), wallet.Options{Count: 10, StartIndex: 5})
	require.NoError(t, err)
	assert.Len(t, set.Addresses(), 2)

	set, err = wallet.NewSet(t.Context(), credential.PrivateKeys(keys...), wallet.Options{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"0xc515db5834d8f110eee96c3036854dbf1d87de2b"}, set.Addresses())
}

func TestNewSetMalformedPrivateKey(t *testing.T) {
	_, err := wallet.NewSet(t.Context(), credential.PrivateKeys("not-a-key"), wallet.DefaultOptions())
	assert.Error(t, err)
}

func TestNewSetEmptyPrivateKeys(t *testing.T) {
	_, err := wallet.NewSet(t.Context(), credential.PrivateKeys(), wallet.DefaultOptions())
	require.ErrorIs(t, err, wallet.ErrNoPrivateKeys)
}

func TestPrivateKeyLookup(t *testing.T) {
	set, err := wallet.NewSet(t.Context(), mustMnemonic(t), wallet.Options{Count: 2})
	require.NoError(t, err)

	key, err := set.PrivateKey(common.HexToAddress(testAccounts[1]).Hex())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAccounts[1]), crypto.PubkeyToAddress(key.PublicKey))
	assert.True(t, set.Has(common.HexToAddress(testAccounts[1])))

	_, err = set.PrivateKey(testAccounts[5])
	require.ErrorIs(t, err, wallet.ErrUnknownAddress)
	assert.Contains(t, err.Error(), "unknown address")
	assert.False(t, set.Has(common.HexToAddress(testAccounts[5])))
}
