package config

import (
	"time"

	"github.com/rs/zerolog"
	"github/chapool/hdwallet-provider/internal/util"
)

const (
	// DefaultHDPath is the base derivation path, the address index is appended as last segment.
	DefaultHDPath = "m/44'/237'/0'/0"
	// DefaultAddressCount is the number of addresses derived from a mnemonic.
	DefaultAddressCount = 10
	// DefaultPollingInterval is how often the block tracker asks the upstream node for its head.
	DefaultPollingInterval = 4 * time.Second
)

type Wallet struct {
	Mnemonic         string   `json:"-"`
	PrivateKeys      []string `json:"-"`
	KeystoreFile     string
	KeystorePassword string `json:"-"`
	Password         string `json:"-"`
	StartIndex       int
	Count            int
	HDPath           string
}

type Logger struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
}

type Server struct {
	ListenAddress string
}

// Provider holds everything needed to build a signing provider and serve it.
type Provider struct {
	RPCURL          string
	FallbackURLs    []string
	PollingInterval time.Duration
	Wallet          Wallet
	Logger          Logger
	Server          Server
}

// DefaultProviderConfigFromEnv returns the provider config populated from the HDWALLET_* env.
func DefaultProviderConfigFromEnv() Provider {
	return Provider{
		RPCURL:          util.GetEnv("HDWALLET_RPC_URL", "http://localhost:8545"),
		FallbackURLs:    util.GetEnvAsStringArr("HDWALLET_RPC_FALLBACK_URLS", nil),
		PollingInterval: util.GetEnvAsDuration("HDWALLET_POLLING_INTERVAL", DefaultPollingInterval),
		Wallet: Wallet{
			Mnemonic:         util.GetEnv("HDWALLET_MNEMONIC", ""),
			PrivateKeys:      util.GetEnvAsStringArr("HDWALLET_PRIVATE_KEYS", nil),
			KeystoreFile:     util.GetEnv("HDWALLET_KEYSTORE_FILE", ""),
			KeystorePassword: util.GetEnv("HDWALLET_KEYSTORE_PASSWORD", ""),
			Password:         util.GetEnv("HDWALLET_PASSWORD", ""),
			StartIndex:       util.GetEnvAsInt("HDWALLET_START_INDEX", 0),
			Count:            util.GetEnvAsInt("HDWALLET_COUNT", DefaultAddressCount),
			HDPath:           util.GetEnv("HDWALLET_HD_PATH", DefaultHDPath),
		},
		Logger: Logger{
			Level:              parseLevel(util.GetEnv("LOG_LEVEL", zerolog.InfoLevel.String())),
			PrettyPrintConsole: util.GetEnvAsBool("LOG_PRETTY", true),
		},
		Server: Server{
			ListenAddress: util.GetEnv("SERVER_ADDR", "127.0.0.1:8546"),
		},
	}
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return level
}
