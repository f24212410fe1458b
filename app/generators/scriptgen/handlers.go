package scriptgen

import (
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/jrazmi/crudsmith/app/generators/routegen"
	"github.com/jrazmi/crudsmith/app/generators/schema"
)

// genHandler emits one http.HandlerFunc for a RouteBlock.
func genHandler(f *jen.File, b routegen.RouteBlock) {
	f.Commentf("%s %s", b.Handler, b.Doc)
	f.Func().Id(b.Handler).Params(
		jen.Id("w").Qual("net/http", "ResponseWriter"),
		jen.Id("r").Op("*").Qual("net/http", "Request"),
	).BlockFunc(func(g *jen.Group) {
		switch {
		case b.Unsupported != "":
			g.Id("writeError").Call(jen.Id("w"), httpError("StatusNotImplemented", jen.Lit(b.Unsupported), nil))
		case b.Verb == routegen.VerbCreate:
			genCreate(g, b)
		case b.Verb == routegen.VerbRead:
			genRead(g, b)
		default:
			genWrite(g, b)
		}
	})
}

func httpError(status string, detail, cause jen.Code) *jen.Statement {
	d := jen.Dict{
		jen.Id("Status"): jen.Qual("net/http", status),
		jen.Id("Detail"): detail,
	}
	if cause != nil {
		d[jen.Id("Err")] = cause
	}
	return jen.Op("&").Id("httpError").Values(d)
}

func fail(g *jen.Group, err jen.Code) {
	g.Id("writeError").Call(jen.Id("w"), err)
	g.Return()
}

func unprocessable(what string) *jen.Statement {
	return httpError(
		"StatusUnprocessableEntity",
		jen.Qual("fmt", "Sprintf").Call(jen.Lit("invalid "+what+": %v"), jen.Err()),
		jen.Err(),
	)
}

func decodeBody(g *jen.Group, bodyType string) {
	g.Var().Id("input").Id(bodyType)
	g.If(
		jen.Err().Op(":=").Qual("encoding/json", "NewDecoder").Call(jen.Id("r").Dot("Body")).Dot("Decode").Call(jen.Op("&").Id("input")),
		jen.Err().Op("!=").Nil(),
	).BlockFunc(func(g *jen.Group) {
		fail(g, unprocessable("request body"))
	})
}

// parseIdentifier declares the identifier local from the path. String
// identifiers are taken as is.
func parseIdentifier(g *jen.Group, id routegen.Param, raw jen.Code) {
	if id.Type == schema.TypeString {
		g.Id(id.Var).Op(":=").Add(raw)
		return
	}
	g.List(jen.Id(id.Var), jen.Err()).Op(":=").Qual("strconv", "ParseInt").Call(raw, jen.Lit(10), jen.Lit(64))
	g.If(jen.Err().Op("!=").Nil()).BlockFunc(func(g *jen.Group) {
		fail(g, unprocessable(id.Name))
	})
}

func pathValue(name string) *jen.Statement {
	return jen.Id("r").Dot("PathValue").Call(jen.Lit(name))
}

// binds resolves the bound parameter names of a statement to expressions.
func binds(b routegen.RouteBlock, s routegen.Statement) []jen.Code {
	out := []jen.Code{jen.Id("r").Dot("Context").Call(), jen.Lit(s.SQL)}
	for _, name := range s.Binds {
		switch {
		case b.Identifier != nil && name == b.Identifier.Name:
			out = append(out, jen.Id(b.Identifier.Var))
		case b.SoftDelete != nil && name == b.SoftDelete.Name:
			out = append(out, flagValue(*b.SoftDelete))
		default:
			for _, p := range b.BodyParams() {
				if p.Name == name {
					out = append(out, jen.Id("input").Dot(p.GoName))
					break
				}
			}
		}
	}
	return out
}

// flagValue is what a soft delete writes: the current time for a deletion
// timestamp, false for an active flag and true for a deleted flag.
func flagValue(p routegen.Param) jen.Code {
	now := jen.Qual("time", "Now").Call().Dot("UTC").Call()
	switch p.Type {
	case schema.TypeDateTime:
		return now
	case schema.TypeDate:
		return now.Dot("Format").Call(jen.Qual("time", "DateOnly"))
	}
	return jen.Lit(strings.Contains(strings.ToLower(p.Name), "deleted"))
}

func message(msg string, id *routegen.Param) jen.Code {
	if id == nil {
		return jen.Lit(msg)
	}
	return jen.Qual("fmt", "Sprintf").Call(jen.Lit(msg), jen.Id(id.Var))
}

func respondMessage(g *jen.Group, msg jen.Code) {
	g.Id("writeJSON").Call(
		jen.Id("w"),
		jen.Qual("net/http", "StatusOK"),
		jen.Map(jen.String()).String().Values(jen.Dict{jen.Lit("message"): msg}),
	)
}

func genCreate(g *jen.Group, b routegen.RouteBlock) {
	insert, _ := b.Statement(routegen.StmtInsert)

	decodeBody(g, b.BodyType)
	g.If(
		jen.List(jen.Id("_"), jen.Err()).Op(":=").Id("executeQuery").Call(binds(b, insert)...),
		jen.Err().Op("!=").Nil(),
	).BlockFunc(func(g *jen.Group) {
		fail(g, jen.Err())
	})
	respondMessage(g, message(b.Success, nil))
}

func genRead(g *jen.Group, b routegen.RouteBlock) {
	all, _ := b.Statement(routegen.StmtSelectAll)

	if b.Identifier == nil {
		g.List(jen.Id("result"), jen.Err()).Op(":=").Id("executeQuery").Call(jen.Id("r").Dot("Context").Call(), jen.Lit(all.SQL))
	} else {
		one, _ := b.Statement(routegen.StmtSelectOne)
		id := *b.Identifier
		g.List(jen.Id("query"), jen.Id("params")).Op(":=").List(jen.Lit(all.SQL), jen.Index().Any().Call(jen.Nil()))
		g.If(
			jen.Id("raw").Op(":=").Add(pathValue(id.Name)),
			jen.Id("raw").Op("!=").Lit(""),
		).BlockFunc(func(g *jen.Group) {
			parseIdentifier(g, id, jen.Id("raw"))
			g.List(jen.Id("query"), jen.Id("params")).Op("=").List(jen.Lit(one.SQL), jen.Index().Any().Values(jen.Id(id.Var)))
		})
		g.List(jen.Id("result"), jen.Err()).Op(":=").Id("executeQuery").Call(
			jen.Id("r").Dot("Context").Call(),
			jen.Id("query"),
			jen.Id("params").Op("..."),
		)
	}
	g.If(jen.Err().Op("!=").Nil()).BlockFunc(func(g *jen.Group) {
		fail(g, jen.Err())
	})
	g.If(jen.Len(jen.Id("result")).Op("==").Lit(0)).BlockFunc(func(g *jen.Group) {
		fail(g, httpError("StatusNotFound", jen.Lit(b.NotFound), nil))
	})
	g.Id("writeJSON").Call(
		jen.Id("w"),
		jen.Qual("net/http", "StatusOK"),
		jen.Map(jen.String()).Any().Values(jen.Dict{jen.Lit("data"): jen.Id("result")}),
	)
}

// genWrite covers update and delete: parse the identifier, decode the body
// when there is one, check the row exists, then run the write.
func genWrite(g *jen.Group, b routegen.RouteBlock) {
	exists, _ := b.Statement(routegen.StmtExists)
	write, _ := b.Statement(routegen.StmtUpdate)
	if b.Verb == routegen.VerbDelete {
		write, _ = b.Statement(routegen.StmtDelete)
	}

	parseIdentifier(g, *b.Identifier, pathValue(b.Identifier.Name))
	if b.BodyType != "" {
		decodeBody(g, b.BodyType)
	}

	g.List(jen.Id("existing"), jen.Err()).Op(":=").Id("executeQuery").Call(binds(b, exists)...)
	g.If(jen.Err().Op("!=").Nil()).BlockFunc(func(g *jen.Group) {
		fail(g, jen.Err())
	})
	g.If(jen.Len(jen.Id("existing")).Op("==").Lit(0)).BlockFunc(func(g *jen.Group) {
		fail(g, httpError("StatusNotFound", message(b.NotFound, b.Identifier), nil))
	})

	g.If(
		jen.List(jen.Id("_"), jen.Err()).Op(":=").Id("executeQuery").Call(binds(b, write)...),
		jen.Err().Op("!=").Nil(),
	).BlockFunc(func(g *jen.Group) {
		fail(g, jen.Err())
	})
	respondMessage(g, message(b.Success, b.Identifier))
}
