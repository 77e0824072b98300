package engine

import (
	"context"
	"encoding/json"
	"time"

	"github/chapool/hdwallet-provider/internal/metrics"
	"github/chapool/hdwallet-provider/internal/util"
)

// NewMetricsMiddleware counts requests, errors and latency per method.
func NewMetricsMiddleware(m *metrics.Metrics) Middleware {
	return MiddlewareFunc{
		ID: "metrics",
		Fn: func(ctx context.Context, req *Request, next Handler) (json.RawMessage, error) {
			start := time.Now()
			result, err := next(ctx, req)

			m.Requests.WithLabelValues(req.Method).Inc()
			m.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
			if err != nil {
				m.Errors.WithLabelValues(req.Method).Inc()
			}

			return result, err
		},
	}
}

// NewLoggerMiddleware debug logs every request with the ctx logger.
func NewLoggerMiddleware() Middleware {
	return MiddlewareFunc{
		ID: "logger",
		Fn: func(ctx context.Context, req *Request, next Handler) (json.RawMessage, error) {
			start := time.Now()
			result, err := next(ctx, req)

			log := util.LogFromContext(ctx)
			log.Debug().
				Err(err).
				Str("method", req.Method).
				RawJSON("id", idOrNull(req.ID)).
				Dur("duration", time.Since(start)).
				Msg("Handled RPC request")

			return result, err
		},
	}
}

func idOrNull(id json.RawMessage) []byte {
	if len(id) == 0 {
		return []byte("null")
	}

	return id
}
