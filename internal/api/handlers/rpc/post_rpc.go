package rpc

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/hdwallet-provider/internal/api"
	"github/chapool/hdwallet-provider/internal/util"
)

func PostRPCRoute(s *api.Server) *echo.Route {
	return s.Router.Root.POST("/", postRPCHandler(s))
}

// postRPCHandler serves single and batch JSON-RPC payloads through the provider.
// JSON-RPC errors are part of the 200 response body.
func postRPCHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body").SetInternal(err)
		}

		out, err := s.Provider.HandleJSON(ctx, body)
		if err != nil {
			util.LogFromContext(ctx).Error().Err(err).Msg("Failed to encode JSON-RPC response")
			return err
		}

		if len(out) == 0 {
			return c.NoContent(http.StatusNoContent)
		}

		return c.JSONBlob(http.StatusOK, out)
	}
}
