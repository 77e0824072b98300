package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/hdwallet-provider/internal/api"
	"github/chapool/hdwallet-provider/internal/api/handlers/common"
	"github/chapool/hdwallet-provider/internal/api/handlers/rpc"
)

func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetMetricsRoute(s),
		rpc.PostRPCRoute(s),
	}
}
