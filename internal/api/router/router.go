package router

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/hdwallet-provider/internal/api"
	"github/chapool/hdwallet-provider/internal/api/handlers"
	"github/chapool/hdwallet-provider/internal/util"
)

const bodyLimit = "10M"

func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	s.Echo.Pre(middleware.RemoveTrailingSlash())

	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.Echo.Use(middleware.BodyLimit(bodyLimit))
	s.Echo.Use(requestLogger())

	s.Router = &api.Router{
		Routes:     nil,
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
	}

	handlers.AttachAllRoutes(s)
}

// requestLogger stores a request scoped zerolog logger in the request context
// and logs every request once it has been served.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			logger := log.With().
				Str("component", "api").
				Str("request_id", requestID).
				Logger()
			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), logger)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Debug().
				Err(err).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("Request served")

			return nil
		}
	}
}
