package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github/chapool/hdwallet-provider/internal/config"
	"github/chapool/hdwallet-provider/internal/metrics"
	"github/chapool/hdwallet-provider/internal/provider"
)

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
}

// Server is the central struct keeping all the dependencies of the JSON-RPC proxy.
// Echo and Router are initialized with router.Init(s).
type Server struct {
	Echo   *echo.Echo
	Router *Router

	Config   config.Server
	Provider *provider.Provider
	Metrics  *metrics.Metrics
}

func NewServer(cfg config.Server, p *provider.Provider) *Server {
	return &Server{
		Config:   cfg,
		Provider: p,
		Metrics:  p.Metrics(),
	}
}

// Ready reports whether all components are set and the provider engine is running.
func (s *Server) Ready() bool {
	if s.Echo == nil || s.Router == nil || s.Provider == nil || s.Metrics == nil {
		log.Debug().Msg("Server is not fully initialized")
		return false
	}

	return s.Provider.Engine().Running()
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Provider != nil {
		log.Debug().Msg("Stopping provider engine")
		s.Provider.Stop()
	}

	return errs
}
