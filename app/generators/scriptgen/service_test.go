package scriptgen

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/jrazmi/crudsmith/app/generators/routegen"
	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/schema/dialect"
	"github.com/stretchr/testify/require"
)

func tagModel() schema.Model {
	return schema.Model{Name: "tag", Fields: []schema.Field{
		{Name: "name", Type: schema.TypeString, PrimaryKey: true},
		{Name: "color", Type: schema.TypeString},
	}}
}

// jobModel names its identifier after a generated helper.
func jobModel() schema.Model {
	return schema.Model{Name: "Job", Fields: []schema.Field{
		{Name: "writeError", Type: schema.TypeInt, PrimaryKey: true},
		{Name: "title", Type: schema.TypeString, Nullable: true},
	}}
}

// goTool returns the go binary. The generated service is built with it, so
// the test is skipped in short mode or without a toolchain.
func goTool(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the generated service")
	}
	bin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not found")
	}
	return bin
}

// modulePackage makes a scratch directory inside this module, so the
// generated service resolves its drivers from our go.mod.
func modulePackage(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp(".", "generated")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func writeService(t *testing.T, dir string, models []schema.Model, d dialect.Dialect, opts ...routegen.Option) {
	t.Helper()
	_, err := WriteBytes(dir, []byte(render(t, models, d, opts...)))
	require.NoError(t, err)
}

func runGo(t *testing.T, bin string, args ...string) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "go %v:\n%s", args, out)
}

func TestGeneratedServiceServes(t *testing.T) {
	bin := goTool(t)
	dir := modulePackage(t)

	writeService(t, dir, []schema.Model{carModel(), logModel(), tagModel(), jobModel()}, dialect.SQLite)

	harness, err := os.ReadFile(filepath.Join("testdata", "service_test.go.txt"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "service_test.go"), harness, 0o644))

	runGo(t, bin, "test", "-count=1", "./"+dir)
}

func TestGeneratedServiceCompiles(t *testing.T) {
	bin := goTool(t)
	root := modulePackage(t)

	soft := carModel()
	soft.Fields = append(soft.Fields,
		schema.Field{Name: "Active", Type: schema.TypeBool},
		schema.Field{Name: "deleted_at", Type: schema.TypeDateTime, Nullable: true},
	)

	variants := []struct {
		name   string
		models []schema.Model
		opts   []routegen.Option
	}{
		{"unspecified", []schema.Model{carModel(), logModel(), tagModel(), jobModel()}, nil},
		{"hard", []schema.Model{carModel(), tagModel(), jobModel()}, []routegen.Option{routegen.WithDeleteMode(routegen.DeleteHard, "")}},
		{"soft_flag", []schema.Model{soft}, []routegen.Option{routegen.WithDeleteMode(routegen.DeleteSoft, "Active")}},
		{"soft_time", []schema.Model{soft}, []routegen.Option{routegen.WithDeleteMode(routegen.DeleteSoft, "deleted_at")}},
	}

	for _, d := range dialect.All() {
		for _, v := range variants {
			writeService(t, filepath.Join(root, d.String()+"_"+v.name), v.models, d, v.opts...)
		}
	}

	runGo(t, bin, "vet", "./"+root+"/...")
}
