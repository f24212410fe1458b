// Package metrics keeps the gateway's request counters in expvar, served
// at /debug/vars.
package metrics

import (
	"context"
	"expvar"
	"runtime"
)

type metrics struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
	panics     *expvar.Int
	generated  *expvar.Int
}

// expvar names are process global, so there is one set of counters.
var m = metrics{
	goroutines: expvar.NewInt("goroutines"),
	requests:   expvar.NewInt("requests"),
	errors:     expvar.NewInt("errors"),
	panics:     expvar.NewInt("panics"),
	generated:  expvar.NewInt("services_generated"),
}

type ctxKey int

const key ctxKey = 1

// Set stores the counters in ctx for the request.
func Set(ctx context.Context) context.Context {
	return context.WithValue(ctx, key, &m)
}

func get(ctx context.Context) *metrics {
	v, _ := ctx.Value(key).(*metrics)
	return v
}

// AddGoroutines refreshes the goroutine gauge and returns it.
func AddGoroutines(ctx context.Context) int64 {
	if v := get(ctx); v != nil {
		g := int64(runtime.NumGoroutine())
		v.goroutines.Set(g)
		return g
	}
	return 0
}

// AddRequests increments the request count and returns the new value.
func AddRequests(ctx context.Context) int64 {
	if v := get(ctx); v != nil {
		v.requests.Add(1)
		return v.requests.Value()
	}
	return 0
}

// AddErrors increments the error count and returns the new value.
func AddErrors(ctx context.Context) int64 {
	if v := get(ctx); v != nil {
		v.errors.Add(1)
		return v.errors.Value()
	}
	return 0
}

// AddPanics increments the panic count and returns the new value.
func AddPanics(ctx context.Context) int64 {
	if v := get(ctx); v != nil {
		v.panics.Add(1)
		return v.panics.Value()
	}
	return 0
}

// AddGenerated counts a generated service and returns the new value.
func AddGenerated(ctx context.Context) int64 {
	if v := get(ctx); v != nil {
		v.generated.Add(1)
		return v.generated.Value()
	}
	return 0
}
