package common

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo/v4"
	"github/chapool/hdwallet-provider/internal/api"
	"github/chapool/hdwallet-provider/internal/util"
)

const healthTimeout = 5 * time.Second

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Health check, the upstream node must answer eth_blockNumber through the pipeline.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		var blockNumber hexutil.Uint64
		if err := s.Provider.Call(ctx, &blockNumber, "eth_blockNumber"); err != nil {
			util.LogFromContext(ctx).Warn().Err(err).Msg("Health check failed")
			return c.String(521, "Not healthy.")
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"healthy":     true,
			"blockNumber": blockNumber,
			"addresses":   len(s.Provider.Addresses()),
		})
	}
}
