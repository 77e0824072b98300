package command

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/hdwallet-provider/internal/config"
	"github/chapool/hdwallet-provider/internal/credential"
	"github/chapool/hdwallet-provider/internal/provider"
	"golang.org/x/term"
)

const (
	FlagRPCURL           = "rpc-url"
	FlagFallbackURL      = "rpc-fallback-url"
	FlagMnemonic         = "mnemonic"
	FlagPrivateKey       = "private-key"
	FlagKeystore         = "keystore"
	FlagKeystorePassword = "keystore-password"
	FlagPassword         = "password"
	FlagStartIndex       = "start-index"
	FlagCount            = "count"
	FlagHDPath           = "hd-path"
	FlagPollingInterval  = "polling-interval"
)

// ErrNoCredential is returned when neither flags, env nor the terminal provide a credential.
var ErrNoCredential = errors.New("no mnemonic or private key given")

// PromptFunc reads a secret after printing prompt.
type PromptFunc func(prompt string) (string, error)

func NewSubcommandGroup(name string, subCommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("%s related subcommands", name),
		Run: func(cmd *cobra.Command, _ []string) {
			//nolint:errcheck
			cmd.Help()
		},
	}

	cmd.AddCommand(subCommands...)

	return cmd
}

// AddProviderFlags registers the credential and upstream flags on cmd.
func AddProviderFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String(FlagRPCURL, "", "upstream JSON-RPC endpoint (HDWALLET_RPC_URL)")
	flags.StringSlice(FlagFallbackURL, nil, "fallback JSON-RPC endpoint, repeatable (HDWALLET_RPC_FALLBACK_URLS)")
	flags.String(FlagMnemonic, "", "BIP-39 mnemonic (HDWALLET_MNEMONIC)")
	flags.StringSlice(FlagPrivateKey, nil, "hex private key, repeatable (HDWALLET_PRIVATE_KEYS)")
	flags.String(FlagKeystore, "", "path to a v3 keystore file (HDWALLET_KEYSTORE_FILE)")
	flags.String(FlagKeystorePassword, "", "keystore password, prompted when empty (HDWALLET_KEYSTORE_PASSWORD)")
	flags.String(FlagPassword, "", "BIP-39 passphrase of the mnemonic (HDWALLET_PASSWORD)")
	flags.Int(FlagStartIndex, 0, "first address index (HDWALLET_START_INDEX)")
	flags.Int(FlagCount, config.DefaultAddressCount, "number of addresses (HDWALLET_COUNT)")
	flags.String(FlagHDPath, config.DefaultHDPath, "base derivation path (HDWALLET_HD_PATH)")
	flags.Duration(FlagPollingInterval, config.DefaultPollingInterval, "block polling interval (HDWALLET_POLLING_INTERVAL)")
}

// ConfigFromFlags merges changed flags of cmd over the env config.
func ConfigFromFlags(cmd *cobra.Command) (config.Provider, error) {
	cfg := config.DefaultProviderConfigFromEnv()

	v := viper.New()
	v.SetDefault(FlagRPCURL, cfg.RPCURL)
	v.SetDefault(FlagFallbackURL, cfg.FallbackURLs)
	v.SetDefault(FlagMnemonic, cfg.Wallet.Mnemonic)
	v.SetDefault(FlagPrivateKey, cfg.Wallet.PrivateKeys)
	v.SetDefault(FlagKeystore, cfg.Wallet.KeystoreFile)
	v.SetDefault(FlagKeystorePassword, cfg.Wallet.KeystorePassword)
	v.SetDefault(FlagPassword, cfg.Wallet.Password)
	v.SetDefault(FlagStartIndex, cfg.Wallet.StartIndex)
	v.SetDefault(FlagCount, cfg.Wallet.Count)
	v.SetDefault(FlagHDPath, cfg.Wallet.HDPath)
	v.SetDefault(FlagPollingInterval, cfg.PollingInterval)

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return cfg, errors.Wrap(err, "failed to bind flags")
	}

	cfg.RPCURL = v.GetString(FlagRPCURL)
	cfg.FallbackURLs = v.GetStringSlice(FlagFallbackURL)
	cfg.PollingInterval = v.GetDuration(FlagPollingInterval)
	cfg.Wallet.Mnemonic = v.GetString(FlagMnemonic)
	cfg.Wallet.PrivateKeys = v.GetStringSlice(FlagPrivateKey)
	cfg.Wallet.KeystoreFile = v.GetString(FlagKeystore)
	cfg.Wallet.KeystorePassword = v.GetString(FlagKeystorePassword)
	cfg.Wallet.Password = v.GetString(FlagPassword)
	cfg.Wallet.StartIndex = v.GetInt(FlagStartIndex)
	cfg.Wallet.Count = v.GetInt(FlagCount)
	cfg.Wallet.HDPath = v.GetString(FlagHDPath)

	return cfg, nil
}

// ResolveCredential picks the credential from cfg in the order keystore, private
// keys, mnemonic. With none configured it asks prompt, if given.
func ResolveCredential(cfg config.Wallet, prompt PromptFunc) (credential.Credential, error) {
	switch {
	case cfg.KeystoreFile != "":
		keyJSON, err := os.ReadFile(cfg.KeystoreFile)
		if err != nil {
			return credential.Credential{}, errors.Wrap(err, "failed to read keystore file")
		}

		password := cfg.KeystorePassword
		if password == "" && prompt != nil {
			password, err = prompt("Keystore password: ")
			if err != nil {
				return credential.Credential{}, err
			}
		}

		return credential.FromKeystore(keyJSON, password)
	case len(cfg.PrivateKeys) > 0:
		keys := make([]string, 0, len(cfg.PrivateKeys))
		for _, key := range cfg.PrivateKeys {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
		return credential.PrivateKeys(keys...), nil
	case cfg.Mnemonic != "":
		return credential.Mnemonic(cfg.Mnemonic)
	case prompt != nil:
		secret, err := prompt("Mnemonic or private key: ")
		if err != nil {
			return credential.Credential{}, err
		}
		return credential.Parse(secret)
	default:
		return credential.Credential{}, ErrNoCredential
	}
}

// TerminalPrompt reads a secret from the terminal without echo.
//
//nolint:forbidigo // Secret input requires direct terminal I/O
func TerminalPrompt(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", ErrNoCredential
	}

	fmt.Fprint(os.Stderr, prompt)

	secret, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", errors.Wrap(err, "failed to read secret from terminal")
	}

	fmt.Fprintln(os.Stderr)

	return strings.TrimSpace(string(secret)), nil
}

func SetupLogger(cfg config.Logger) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(cfg.Level)
	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = "15:04:05"
		}))
	}
}

// WithProvider builds a provider from cfg and cred, runs f and stops the provider afterwards.
func WithProvider(ctx context.Context, cfg config.Provider, cred credential.Credential, f func(ctx context.Context, p *provider.Provider) error) error {
	p, err := provider.New(ctx, cred, cfg.RPCURL,
		provider.WithStartIndex(cfg.Wallet.StartIndex),
		provider.WithAddressCount(cfg.Wallet.Count),
		provider.WithHDPath(cfg.Wallet.HDPath),
		provider.WithPassword(cfg.Wallet.Password),
		provider.WithPollingInterval(cfg.PollingInterval),
		provider.WithFallbackURLs(cfg.FallbackURLs...),
	)
	if err != nil {
		return err
	}
	defer p.Stop()

	return f(ctx, p)
}
