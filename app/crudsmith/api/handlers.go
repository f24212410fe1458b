// Package api holds the gateway's JSON endpoints.
package api

import (
	"github.com/jrazmi/crudsmith/app/crudsmith/config"
	"github.com/jrazmi/crudsmith/infrastructure/web"
)

type api struct {
	cfg config.Crudsmith
}

// AddHandlers registers the gateway endpoints on wh.
func AddHandlers(wh *web.WebHandler, cfg config.Crudsmith) *web.WebHandler {
	a := &api{cfg: cfg}

	wh.POST("/sql_code", a.sqlCode)
	wh.GET("/healthz", a.health)

	return wh
}
