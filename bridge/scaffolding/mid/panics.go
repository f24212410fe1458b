package mid

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/jrazmi/crudsmith/bridge/scaffolding/errs"
	"github.com/jrazmi/crudsmith/bridge/scaffolding/metrics"
	"github.com/jrazmi/crudsmith/infrastructure/web"
)

// Panics recovers from a panic in the chain and turns it into an error
// response. It belongs inside Errors so the error gets logged.
func Panics() web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(ctx context.Context, r *http.Request) (resp web.Encoder) {
			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					resp = errs.Newf(errs.InternalOnlyLog, "PANIC [%v] TRACE[%s]", rec, string(trace))
					metrics.AddPanics(ctx)
				}
			}()

			return next(ctx, r)
		}
	}
}
