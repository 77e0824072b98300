package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/hdwallet-provider/internal/config"
)

const probeTimeout = 5 * time.Second

func newLiveness() *cobra.Command {
	return newProbe("liveness", "/-/healthy", `Checks that a running server reaches its upstream node.
Exits non-zero when the server or the node is unreachable.`)
}

func newReadiness() *cobra.Command {
	return newProbe("readiness", "/-/ready", `Checks that a running server has a started provider.
Exits non-zero when the server is not ready.`)
}

func newProbe(name string, path string, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Runs the %s probe against a running server", name),
		Long:  long,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := cmd.Flags().GetString(addrFlag)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = config.DefaultProviderConfigFromEnv().Server.ListenAddress
			}
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			body, err := probe(cmd.Context(), "http://"+addr+path)
			if verbose {
				log.Info().Str("probe", name).Str("response", body).Err(err).Msg("Probe finished")
			}

			return err
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "print the probe response")
	cmd.Flags().String(addrFlag, "", "server address (SERVER_ADDR)")

	return cmd
}

func probe(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create probe request")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "probe request failed")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read probe response")
	}

	if res.StatusCode != http.StatusOK {
		return string(body), errors.Errorf("probe %s returned status %d", url, res.StatusCode)
	}

	return string(body), nil
}
