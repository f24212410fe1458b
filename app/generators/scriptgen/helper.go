package scriptgen

import (
	"github.com/dave/jennifer/jen"
	"github.com/jrazmi/crudsmith/schema/dialect"
)

func ifErrReturn(results ...jen.Code) *jen.Statement {
	return jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(results...))
}

// genHelpers emits the response helpers and executeQuery, the single path
// every handler takes to the database.
func genHelpers(f *jen.File, d dialect.Dialect) {
	drv := d.Driver()

	f.Comment("httpError is answered with its status and detail.")
	f.Type().Id("httpError").Struct(
		jen.Id("Status").Int(),
		jen.Id("Detail").String(),
		jen.Id("Err").Error(),
	)

	f.Func().Params(jen.Id("e").Op("*").Id("httpError")).Id("Error").Params().String().Block(
		jen.If(jen.Id("e").Dot("Err").Op("!=").Nil()).Block(
			jen.Return(jen.Id("e").Dot("Detail").Op("+").Lit(": ").Op("+").Id("e").Dot("Err").Dot("Error").Call()),
		),
		jen.Return(jen.Id("e").Dot("Detail")),
	)

	f.Func().Params(jen.Id("e").Op("*").Id("httpError")).Id("Unwrap").Params().Error().Block(
		jen.Return(jen.Id("e").Dot("Err")),
	)

	f.Func().Id("writeJSON").Params(
		jen.Id("w").Qual("net/http", "ResponseWriter"),
		jen.Id("status").Int(),
		jen.Id("v").Any(),
	).Block(
		jen.Id("w").Dot("Header").Call().Dot("Set").Call(jen.Lit("Content-Type"), jen.Lit("application/json")),
		jen.Id("w").Dot("WriteHeader").Call(jen.Id("status")),
		jen.Id("_").Op("=").Qual("encoding/json", "NewEncoder").Call(jen.Id("w")).Dot("Encode").Call(jen.Id("v")),
	)

	f.Comment("writeError answers with the status of an httpError, 500 for anything else.")
	f.Func().Id("writeError").Params(
		jen.Id("w").Qual("net/http", "ResponseWriter"),
		jen.Err().Error(),
	).Block(
		jen.Var().Id("he").Op("*").Id("httpError"),
		jen.If(jen.Op("!").Qual("errors", "As").Call(jen.Err(), jen.Op("&").Id("he"))).Block(
			jen.Id("he").Op("=").Op("&").Id("httpError").Values(jen.Dict{
				jen.Id("Status"): jen.Qual("net/http", "StatusInternalServerError"),
				jen.Id("Detail"): jen.Err().Dot("Error").Call(),
				jen.Id("Err"):    jen.Err(),
			}),
		),
		jen.Id("writeJSON").Call(
			jen.Id("w"),
			jen.Id("he").Dot("Status"),
			jen.Map(jen.String()).String().Values(jen.Dict{jen.Lit("detail"): jen.Id("he").Dot("Detail")}),
		),
	)

	f.Comment("dbError turns a persistence error into a 500 answer.")
	f.Func().Id("dbError").Params(jen.Err().Error()).Error().Block(
		jen.Var().Id("dbErr").Op("*").Qual(drv.ErrorPath, drv.ErrorType),
		jen.If(jen.Qual("errors", "As").Call(jen.Err(), jen.Op("&").Id("dbErr"))).Block(
			jen.Return(jen.Op("&").Id("httpError").Values(jen.Dict{
				jen.Id("Status"): jen.Qual("net/http", "StatusInternalServerError"),
				jen.Id("Detail"): jen.Qual("fmt", "Sprintf").Call(jen.Lit("Database error: %v"), jen.Id("dbErr")),
				jen.Id("Err"):    jen.Err(),
			})),
		),
		jen.Return(jen.Op("&").Id("httpError").Values(jen.Dict{
			jen.Id("Status"): jen.Qual("net/http", "StatusInternalServerError"),
			jen.Id("Detail"): jen.Err().Dot("Error").Call(),
			jen.Id("Err"):    jen.Err(),
		})),
	)

	f.Comment("executeQuery opens a connection, runs one statement with positional")
	f.Comment("params in a transaction, fetches every row, commits and closes.")
	f.Func().Id("executeQuery").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("query").String(),
		jen.Id("params").Op("...").Any(),
	).Params(jen.Index().Map(jen.String()).Any(), jen.Error()).Block(
		jen.List(jen.Id("db"), jen.Err()).Op(":=").Qual("database/sql", "Open").Call(
			jen.Id("dbConfig").Dot("Driver"),
			jen.Id("dbConfig").Dot("DSN"),
		),
		ifErrReturn(jen.Nil(), jen.Id("dbError").Call(jen.Err())),
		jen.Defer().Id("db").Dot("Close").Call(),
		jen.Line(),
		jen.List(jen.Id("conn"), jen.Err()).Op(":=").Id("db").Dot("Conn").Call(jen.Id("ctx")),
		ifErrReturn(jen.Nil(), jen.Id("dbError").Call(jen.Err())),
		jen.Defer().Id("conn").Dot("Close").Call(),
		jen.Line(),
		jen.List(jen.Id("tx"), jen.Err()).Op(":=").Id("conn").Dot("BeginTx").Call(jen.Id("ctx"), jen.Nil()),
		ifErrReturn(jen.Nil(), jen.Id("dbError").Call(jen.Err())),
		jen.Defer().Id("tx").Dot("Rollback").Call(),
		jen.Line(),
		jen.List(jen.Id("rows"), jen.Err()).Op(":=").Id("tx").Dot("QueryContext").Call(
			jen.Id("ctx"),
			jen.Id("query"),
			jen.Id("params").Op("..."),
		),
		ifErrReturn(jen.Nil(), jen.Id("dbError").Call(jen.Err())),
		jen.List(jen.Id("result"), jen.Err()).Op(":=").Id("fetchAll").Call(jen.Id("rows")),
		ifErrReturn(jen.Nil(), jen.Id("dbError").Call(jen.Err())),
		jen.If(
			jen.Err().Op(":=").Id("tx").Dot("Commit").Call(),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Return(jen.Nil(), jen.Id("dbError").Call(jen.Err())),
		),
		jen.Return(jen.Id("result"), jen.Nil()),
	)

	f.Comment("fetchAll reads every row into a column keyed map. Text comes back as")
	f.Comment("bytes from most drivers and is returned as a string.")
	f.Func().Id("fetchAll").Params(jen.Id("rows").Op("*").Qual("database/sql", "Rows")).Params(
		jen.Index().Map(jen.String()).Any(),
		jen.Error(),
	).Block(
		jen.Defer().Id("rows").Dot("Close").Call(),
		jen.List(jen.Id("columns"), jen.Err()).Op(":=").Id("rows").Dot("Columns").Call(),
		ifErrReturn(jen.Nil(), jen.Err()),
		jen.Var().Id("result").Index().Map(jen.String()).Any(),
		jen.For(jen.Id("rows").Dot("Next").Call()).Block(
			jen.Id("values").Op(":=").Make(jen.Index().Any(), jen.Len(jen.Id("columns"))),
			jen.Id("dest").Op(":=").Make(jen.Index().Any(), jen.Len(jen.Id("columns"))),
			jen.For(jen.Id("i").Op(":=").Range().Id("values")).Block(
				jen.Id("dest").Index(jen.Id("i")).Op("=").Op("&").Id("values").Index(jen.Id("i")),
			),
			jen.If(
				jen.Err().Op(":=").Id("rows").Dot("Scan").Call(jen.Id("dest").Op("...")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.Id("row").Op(":=").Make(jen.Map(jen.String()).Any(), jen.Len(jen.Id("columns"))),
			jen.For(jen.List(jen.Id("i"), jen.Id("name")).Op(":=").Range().Id("columns")).Block(
				jen.If(
					jen.List(jen.Id("b"), jen.Id("ok")).Op(":=").Id("values").Index(jen.Id("i")).Assert(jen.Index().Byte()),
					jen.Id("ok"),
				).Block(
					jen.Id("row").Index(jen.Id("name")).Op("=").String().Call(jen.Id("b")),
					jen.Continue(),
				),
				jen.Id("row").Index(jen.Id("name")).Op("=").Id("values").Index(jen.Id("i")),
			),
			jen.Id("result").Op("=").Append(jen.Id("result"), jen.Id("row")),
		),
		jen.Return(jen.Id("result"), jen.Id("rows").Dot("Err").Call()),
	)
}
