package schema

import (
	"regexp"
	"strings"
)

// sqlTypeMap maps a normalized SQL base type to its semantic type. The keys
// cover mysql, postgres and sqlite spellings.
var sqlTypeMap = map[string]Type{
	// Integers
	"int":         TypeInt,
	"integer":     TypeInt,
	"tinyint":     TypeInt,
	"smallint":    TypeInt,
	"mediumint":   TypeInt,
	"bigint":      TypeInt,
	"int2":        TypeInt,
	"int4":        TypeInt,
	"int8":        TypeInt,
	"serial":      TypeInt,
	"smallserial": TypeInt,
	"bigserial":   TypeInt,
	"year":        TypeInt,

	// Strings
	"char":              TypeString,
	"character":         TypeString,
	"varchar":           TypeString,
	"character varying": TypeString,
	"nchar":             TypeString,
	"nvarchar":          TypeString,
	"text":              TypeString,
	"tinytext":          TypeString,
	"mediumtext":        TypeString,
	"longtext":          TypeString,
	"enum":              TypeString,
	"set":               TypeString,
	"uuid":              TypeString,
	"citext":            TypeString,
	"clob":              TypeString,

	// Exact numerics
	"decimal": TypeDecimal,
	"numeric": TypeDecimal,
	"dec":     TypeDecimal,
	"money":   TypeDecimal,

	// Approximate numerics
	"float":            TypeFloat,
	"float4":           TypeFloat,
	"float8":           TypeFloat,
	"double":           TypeFloat,
	"double precision": TypeFloat,
	"real":             TypeFloat,

	// Booleans
	"bool":    TypeBool,
	"boolean": TypeBool,
	"bit":     TypeBool,

	// Temporal
	"datetime":                    TypeDateTime,
	"timestamp":                   TypeDateTime,
	"timestamptz":                 TypeDateTime,
	"timestamp with time zone":    TypeDateTime,
	"timestamp without time zone": TypeDateTime,
	"date":                        TypeDate,
	"time":                        TypeTime,
	"timetz":                      TypeTime,
	"time with time zone":         TypeTime,
	"time without time zone":      TypeTime,

	// Binary
	"blob":       TypeBytes,
	"tinyblob":   TypeBytes,
	"mediumblob": TypeBytes,
	"longblob":   TypeBytes,
	"binary":     TypeBytes,
	"varbinary":  TypeBytes,
	"bytea":      TypeBytes,

	// Documents
	"json":  TypeJSON,
	"jsonb": TypeJSON,
}

var (
	typeParamsRe = regexp.MustCompile(`\([^)]*\)`)
	spacesRe     = regexp.MustCompile(`\s+`)
)

// TypeFromSQL maps a column type as written in DDL or reported by a database
// catalog to a semantic type. Parameters, array brackets and trailing
// modifiers such as UNSIGNED are ignored. Unknown types map to TypeString
// with ok set to false.
func TypeFromSQL(dbType string) (t Type, ok bool) {
	base := extractBaseType(dbType)
	if t, ok := sqlTypeMap[base]; ok {
		return t, true
	}

	// Drop trailing modifiers word by word: "int unsigned zerofill" -> "int".
	words := strings.Fields(base)
	for n := len(words) - 1; n > 0; n-- {
		if t, ok := sqlTypeMap[strings.Join(words[:n], " ")]; ok {
			return t, true
		}
	}

	// sqlite affinity rules for anything else.
	switch {
	case strings.Contains(base, "int"):
		return TypeInt, true
	case strings.Contains(base, "char"), strings.Contains(base, "clob"), strings.Contains(base, "text"):
		return TypeString, true
	case strings.Contains(base, "real"), strings.Contains(base, "floa"), strings.Contains(base, "doub"):
		return TypeFloat, true
	}
	return TypeString, false
}

// extractBaseType lower cases a type, removes parameters and array markers and
// collapses whitespace. "VARCHAR(100)" -> "varchar", "numeric(10, 2)" -> "numeric".
func extractBaseType(dbType string) string {
	s := strings.ToLower(strings.TrimSpace(dbType))
	s = typeParamsRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "[]", " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}
