package scriptgen

import (
	"github.com/dave/jennifer/jen"
	"github.com/jrazmi/crudsmith/app/generators/routegen"
)

// genRoutes emits the mux holding every pattern in model and verb order.
func genRoutes(f *jen.File, models []routegen.ModelRoutes) {
	f.Comment("routes registers every generated handler.")
	f.Func().Id("routes").Params().Op("*").Qual("net/http", "ServeMux").BlockFunc(func(g *jen.Group) {
		g.Id("mux").Op(":=").Qual("net/http", "NewServeMux").Call()
		for _, mr := range models {
			for _, b := range mr.Routes {
				for _, pattern := range b.Patterns() {
					g.Id("mux").Dot("HandleFunc").Call(jen.Lit(pattern), jen.Id(b.Handler))
				}
			}
		}
		g.Return(jen.Id("mux"))
	})
}

// genMain serves the routes on PORT, 8000 when unset.
func genMain(f *jen.File) {
	f.Func().Id("main").Params().Block(
		jen.Id("addr").Op(":=").Lit(":").Op("+").Qual("cmp", "Or").Call(
			jen.Qual("os", "Getenv").Call(jen.Lit("PORT")),
			jen.Lit("8000"),
		),
		jen.Qual("log/slog", "Info").Call(
			jen.Lit("serving crud api"),
			jen.Lit("addr"), jen.Id("addr"),
			jen.Lit("database"), jen.Id("dbConfig").Dot("Database"),
		),
		jen.If(
			jen.Err().Op(":=").Qual("net/http", "ListenAndServe").Call(jen.Id("addr"), jen.Id("routes").Call()),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Qual("log/slog", "Error").Call(jen.Lit("server stopped"), jen.Lit("error"), jen.Err()),
			jen.Qual("os", "Exit").Call(jen.Lit(1)),
		),
	)
}
