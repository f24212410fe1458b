package scriptgen

import (
	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"github.com/jrazmi/crudsmith/app/generators/routegen"
	"github.com/jrazmi/crudsmith/app/generators/schema"
)

// goType maps a semantic type to the Go type of a struct field. Nullable
// scalars become pointers; slices are already nilable.
func goType(t schema.Type, nullable bool) *jen.Statement {
	var base *jen.Statement
	switch t {
	case schema.TypeInt:
		base = jen.Int64()
	case schema.TypeFloat:
		base = jen.Float64()
	case schema.TypeDecimal:
		base = jen.Qual("encoding/json", "Number")
	case schema.TypeBool:
		base = jen.Bool()
	case schema.TypeDateTime:
		base = jen.Qual("time", "Time")
	case schema.TypeBytes:
		return jen.Index().Byte()
	case schema.TypeJSON:
		return jen.Qual("encoding/json", "RawMessage")
	default:
		// str, date and time travel as text.
		base = jen.String()
	}
	if nullable {
		return jen.Op("*").Add(base)
	}
	return base
}

func structField(g *jen.Group, f schema.Field) {
	g.Id(inflect.Camelize(f.Name)).Add(goType(f.Type, f.Nullable)).Tag(map[string]string{"json": f.Name})
}

// genModelTypes emits the row type of a model and, when it can be updated,
// the update body without the identifier.
func genModelTypes(f *jen.File, mr routegen.ModelRoutes) {
	f.Commentf("%s is a row of %s. It is also the create request body.", mr.TypeName, mr.Model.Name)
	f.Type().Id(mr.TypeName).StructFunc(func(g *jen.Group) {
		for _, field := range mr.Model.Fields {
			structField(g, field)
		}
	})

	update, ok := mr.Route(routegen.VerbUpdate)
	if !ok || update.BodyType == "" {
		return
	}
	f.Commentf("%s is the update request body of %s.", update.BodyType, mr.Model.Name)
	f.Type().Id(update.BodyType).StructFunc(func(g *jen.Group) {
		for _, field := range mr.Introspection.Fields {
			structField(g, field)
		}
	})
}
