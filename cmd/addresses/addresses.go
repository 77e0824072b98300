package addresses

import (
	"fmt"

	"github.com/spf13/cobra"
	"github/chapool/hdwallet-provider/internal/config"
	"github/chapool/hdwallet-provider/internal/util/command"
	"github/chapool/hdwallet-provider/internal/wallet"
)

const pathsFlag = "paths"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Prints the addresses of the configured credential",
		Long: `Prints the addresses of the configured credential, one per line, default account first.

Addresses are derived locally, the upstream node is not contacted.`,
		RunE: runAddresses,
	}

	command.AddProviderFlags(cmd)
	cmd.Flags().Bool(pathsFlag, false, "print the derivation path next to each address")

	return cmd
}

func runAddresses(cmd *cobra.Command, _ []string) error {
	cfg, err := command.ConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	cred, err := command.ResolveCredential(cfg.Wallet, command.TerminalPrompt)
	if err != nil {
		return err
	}

	set, err := wallet.NewSet(cmd.Context(), cred, walletOptions(cfg.Wallet))
	if err != nil {
		return err
	}

	withPaths, err := cmd.Flags().GetBool(pathsFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range set.Wallets() {
		if withPaths && w.DerivationPath != "" {
			fmt.Fprintf(out, "%s\t%s\n", w.AddressHex(), w.DerivationPath)
			continue
		}
		fmt.Fprintln(out, w.AddressHex())
	}

	return nil
}

func walletOptions(cfg config.Wallet) wallet.Options {
	return wallet.Options{
		StartIndex: cfg.StartIndex,
		Count:      cfg.Count,
		HDPath:     cfg.HDPath,
		Password:   cfg.Password,
	}
}
