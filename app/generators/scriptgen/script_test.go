package scriptgen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrazmi/crudsmith/app/generators/routegen"
	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/schema/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carModel() schema.Model {
	return schema.Model{
		Name: "Car",
		Fields: []schema.Field{
			{Name: "CarID", Type: schema.TypeInt, PrimaryKey: true},
			{Name: "ModelID", Type: schema.TypeInt},
			{Name: "DealershipID", Type: schema.TypeInt},
			{Name: "VIN", Type: schema.TypeString},
			{Name: "Price", Type: schema.TypeDecimal},
			{Name: "Status", Type: schema.TypeString, Nullable: true},
		},
	}
}

func logModel() schema.Model {
	return schema.Model{
		Name: "Log",
		Fields: []schema.Field{
			{Name: "line", Type: schema.TypeString},
			{Name: "at", Type: schema.TypeDateTime},
		},
	}
}

func render(t *testing.T, models []schema.Model, d dialect.Dialect, opts ...routegen.Option) string {
	t.Helper()
	plan, err := routegen.New(append([]routegen.Option{routegen.WithDialect(d)}, opts...)...).Plan(models)
	require.NoError(t, err)
	src, err := Assemble(plan, WithDialect(d)).Bytes()
	require.NoError(t, err)
	return string(src)
}

// funcs parses generated source and returns its top level function names.
func funcs(t *testing.T, src string) map[string]bool {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), FileName, src, parser.ParseComments)
	require.NoError(t, err, "generated source does not parse:\n%s", src)
	assert.Equal(t, "main", file.Name.Name)

	names := make(map[string]bool)
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil {
			names[fn.Name.Name] = true
		}
	}
	return names
}

func TestRenderCar(t *testing.T) {
	src := render(t, []schema.Model{carModel()}, dialect.MySQL)

	assert.True(t, strings.HasPrefix(src, "// "+headerComment))

	names := funcs(t, src)
	for _, fn := range []string{"createCar", "readCar", "updateCar", "deleteCar", "executeQuery", "fetchAll", "dbError", "routes", "main"} {
		assert.True(t, names[fn], "missing func %s", fn)
	}

	for _, want := range []string{
		`"github.com/go-sql-driver/mysql"`,
		`DSN:      "root@tcp(localhost:3306)/newdb?parseTime=true"`,
		`Database: "newdb"`,
		`Host:     "localhost"`,
		"type Car struct",
		"CarID        int64       `json:\"CarID\"`",
		"Price        json.Number `json:\"Price\"`",
		"Status       *string     `json:\"Status\"`",
		"type CarUpdate struct",
		"var dbErr *mysql.MySQLError",
		`"INSERT INTO Car (ModelID, DealershipID, VIN, Price, Status) VALUES (?, ?, ?, ?, ?)", input.ModelID, input.DealershipID, input.VIN, input.Price, input.Status)`,
		`"SELECT ModelID, DealershipID, VIN, Price, Status FROM Car WHERE CarID = ?", []any{carID}`,
		`"SELECT * FROM Car WHERE CarID = ?", carID)`,
		`"UPDATE Car SET ModelID = ?, DealershipID = ?, VIN = ?, Price = ?, Status = ? WHERE CarID = ?", input.ModelID, input.DealershipID, input.VIN, input.Price, input.Status, carID)`,
		`fmt.Sprintf("Car with ID %v not found", carID)`,
		`fmt.Sprintf("Car with ID %v successfully updated", carID)`,
		`"message": "Car successfully created"`,
		`"Data not found"`,
		`"delete is not defined for Car"`,
		`http.StatusNotImplemented`,
		`mux.HandleFunc("POST /Car/{$}", createCar)`,
		`mux.HandleFunc("GET /Car/{CarID}", readCar)`,
		`mux.HandleFunc("GET /Car/{$}", readCar)`,
		`mux.HandleFunc("PUT /Car/{CarID}", updateCar)`,
		`mux.HandleFunc("DELETE /Car/{CarID}", deleteCar)`,
		`cmp.Or(os.Getenv("PORT"), "8000")`,
	} {
		assert.Contains(t, src, want)
	}
}

func TestRenderQueryLiteralsOnly(t *testing.T) {
	src := render(t, []schema.Model{carModel()}, dialect.MySQL, routegen.WithDeleteMode(routegen.DeleteHard, ""))

	// Values only ever reach the database as bound params.
	assert.NotContains(t, src, "Sprintf(\"SELECT")
	assert.NotContains(t, src, "Sprintf(\"UPDATE")
	assert.NotContains(t, src, "Sprintf(\"DELETE")
	assert.Contains(t, src, `"DELETE FROM Car WHERE CarID = ?", carID)`)
	assert.Contains(t, src, `fmt.Sprintf("Car with ID %v successfully deleted", carID)`)
}

func TestRenderDeterministic(t *testing.T) {
	models := []schema.Model{carModel(), logModel()}
	first := render(t, models, dialect.MySQL)
	second := render(t, models, dialect.MySQL)
	assert.Equal(t, first, second)

	// Model order drives handler order.
	assert.Less(t, strings.Index(first, "func createCar"), strings.Index(first, "func createLog"))
	assert.Less(t, strings.Index(first, "func deleteCar"), strings.Index(first, "func createLog"))
}

func TestRenderNoIdentifier(t *testing.T) {
	src := render(t, []schema.Model{logModel()}, dialect.MySQL)
	funcs(t, src)

	assert.Contains(t, src, `mux.HandleFunc("GET /Log/None", readLog)`)
	assert.Contains(t, src, `mux.HandleFunc("PUT /Log/None", updateLog)`)
	assert.Contains(t, src, `mux.HandleFunc("DELETE /Log/None", deleteLog)`)
	assert.Contains(t, src, `executeQuery(r.Context(), "SELECT line, at FROM Log")`)
	assert.Contains(t, src, `"Log declares no identifier field"`)
	assert.NotContains(t, src, "LogUpdate")
	assert.NotContains(t, src, "strconv")
}

func TestRenderDialects(t *testing.T) {
	tests := []struct {
		dialect dialect.Dialect
		want    []string
	}{
		{
			dialect: dialect.Postgres,
			want: []string{
				`_ "github.com/jackc/pgx/v5/stdlib"`,
				`"github.com/jackc/pgx/v5/pgconn"`,
				"var dbErr *pgconn.PgError",
				`Driver:   "pgx"`,
				`"postgres://root:@localhost:5432/newdb?sslmode=disable"`,
				`"UPDATE Car SET ModelID = $1, DealershipID = $2, VIN = $3, Price = $4, Status = $5 WHERE CarID = $6"`,
			},
		},
		{
			dialect: dialect.SQLite,
			want: []string{
				`"modernc.org/sqlite"`,
				"var dbErr *sqlite.Error",
				`Driver:   "sqlite"`,
				`DSN:      "newdb.db"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			src := render(t, []schema.Model{carModel()}, tt.dialect)
			funcs(t, src)
			for _, want := range tt.want {
				assert.Contains(t, src, want)
			}
			assert.NotContains(t, src, "go-sql-driver")
		})
	}
}

func TestRenderSoftDelete(t *testing.T) {
	m := carModel()
	m.Fields = append(m.Fields, schema.Field{Name: "deleted_at", Type: schema.TypeDateTime, Nullable: true})

	src := render(t, []schema.Model{m}, dialect.MySQL, routegen.WithDeleteMode(routegen.DeleteSoft, "deleted_at"))
	funcs(t, src)

	assert.Contains(t, src, `"UPDATE Car SET deleted_at = ? WHERE CarID = ?", time.Now().UTC(), carID)`)
	assert.Contains(t, src, "DeletedAt    *time.Time")

	m.Fields = append(m.Fields,
		schema.Field{Name: "Active", Type: schema.TypeBool},
		schema.Field{Name: "is_deleted", Type: schema.TypeBool},
	)
	src = render(t, []schema.Model{m}, dialect.MySQL, routegen.WithDeleteMode(routegen.DeleteSoft, "Active"))
	assert.Contains(t, src, `"UPDATE Car SET Active = ? WHERE CarID = ?", false, carID)`)

	src = render(t, []schema.Model{m}, dialect.MySQL, routegen.WithDeleteMode(routegen.DeleteSoft, "is_deleted"))
	assert.Contains(t, src, `"UPDATE Car SET is_deleted = ? WHERE CarID = ?", true, carID)`)
}

func TestRenderStringIdentifier(t *testing.T) {
	m := schema.Model{Name: "tag", Fields: []schema.Field{
		{Name: "name", Type: schema.TypeString, PrimaryKey: true},
		{Name: "color", Type: schema.TypeString},
	}}
	src := render(t, []schema.Model{m}, dialect.SQLite)
	funcs(t, src)

	assert.Contains(t, src, `name := r.PathValue("name")`)
	assert.Contains(t, src, `[]any{name}`)
	assert.NotContains(t, src, "strconv")
}

func TestWriteBytes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	plan, err := routegen.New().Plan([]schema.Model{carModel()})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(stale, []byte(strings.Repeat("stale\n", 10000)), 0o644))

	want, err := Assemble(plan).Bytes()
	require.NoError(t, err)
	path, err := WriteBytes(dir, want)
	require.NoError(t, err)
	assert.Equal(t, stale, path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
	assert.NotContains(t, string(got), "stale")
}
