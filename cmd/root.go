package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"github/chapool/hdwallet-provider/cmd/addresses"
	"github/chapool/hdwallet-provider/cmd/probe"
	"github/chapool/hdwallet-provider/cmd/serve"
	"github/chapool/hdwallet-provider/internal/config"
	"github/chapool/hdwallet-provider/internal/util/command"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "hdwallet-provider",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Signs Ethereum JSON-RPC requests with keys derived from a mnemonic or given
as private keys and forwards everything else to an upstream node.
Requires configuration through flags or ENV, a .env file is loaded if present.`, config.ModuleName),
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// .env is optional, values already set in the environment win
		_ = gotenv.Load()

		command.SetupLogger(config.DefaultProviderConfigFromEnv().Logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		addresses.New(),
		probe.New(),
		serve.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
