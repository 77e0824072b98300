package serve

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/hdwallet-provider/internal/api"
	"github/chapool/hdwallet-provider/internal/api/router"
	"github/chapool/hdwallet-provider/internal/config"
	"github/chapool/hdwallet-provider/internal/provider"
	"github/chapool/hdwallet-provider/internal/util/command"
)

const (
	listenFlag      = "listen"
	shutdownTimeout = 10 * time.Second
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the signing JSON-RPC proxy",
		Long: `Starts the signing JSON-RPC proxy.

Account, signing and sendTransaction requests are answered with the configured
keys, all other requests are forwarded to the upstream node.`,
		RunE: runServe,
	}

	command.AddProviderFlags(cmd)
	cmd.Flags().String(listenFlag, "", "listen address (SERVER_ADDR)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := command.ConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString(listenFlag); listen != "" {
		cfg.Server.ListenAddress = listen
	}

	cred, err := command.ResolveCredential(cfg.Wallet, command.TerminalPrompt)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return command.WithProvider(ctx, cfg, cred, func(ctx context.Context, p *provider.Provider) error {
		return run(ctx, cfg, p)
	})
}

func run(ctx context.Context, cfg config.Provider, p *provider.Provider) error {
	s := api.NewServer(cfg.Server, p)
	router.Init(s)

	errc := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errc <- err
		}
	}()

	log.Info().
		Str("listen_address", cfg.Server.ListenAddress).
		Str("rpc_url", cfg.RPCURL).
		Strs("addresses", p.Addresses()).
		Msg("Serving signing JSON-RPC proxy")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
		log.Error().Errs("errors", errs).Msg("Failed to shut down cleanly")
	}

	return nil
}
