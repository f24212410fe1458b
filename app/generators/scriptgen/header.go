package scriptgen

import (
	"github.com/dave/jennifer/jen"
)

// genConfig emits the literal connection the service was generated for.
// The DSN is computed now so the service needs no configuration to start.
func genConfig(f *jen.File, h Header) {
	drv := h.Dialect.Driver()
	if drv.Blank {
		f.Anon(drv.Import)
	}

	f.Comment("dbConfig is the database the service was generated against.")
	f.Var().Id("dbConfig").Op("=").Struct(
		jen.Id("Driver").String(),
		jen.Id("Host").String(),
		jen.Id("User").String(),
		jen.Id("Password").String(),
		jen.Id("Database").String(),
		jen.Id("DSN").String(),
	).Values(jen.Dict{
		jen.Id("Driver"):   jen.Lit(drv.Name),
		jen.Id("Host"):     jen.Lit(h.Connection.Host),
		jen.Id("User"):     jen.Lit(h.Connection.User),
		jen.Id("Password"): jen.Lit(h.Connection.Password),
		jen.Id("Database"): jen.Lit(h.Connection.Database),
		jen.Id("DSN"):      jen.Lit(h.Connection.DSN(h.Dialect)),
	})
}
