package api

import (
	"context"
	"net/http"

	"github.com/jrazmi/crudsmith/infrastructure/web"
	"github.com/jrazmi/crudsmith/sdk/version"
)

type healthResponse struct {
	Status  string `json:"status"`
	Build   string `json:"build"`
	Version string `json:"version"`
	Dialect string `json:"dialect"`
}

// health is a liveness check. It does not touch the database server.
func (a *api) health(ctx context.Context, r *http.Request) web.Encoder {
	return web.NewJSONResponse(healthResponse{
		Status:  "ok",
		Build:   a.cfg.Build,
		Version: version.String(),
		Dialect: a.cfg.Admin.Dialect().String(),
	})
}
