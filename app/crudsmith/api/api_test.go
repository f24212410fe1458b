package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrazmi/crudsmith/app/crudsmith/config"
	"github.com/jrazmi/crudsmith/app/generators/orchestrator"
	"github.com/jrazmi/crudsmith/app/generators/scriptgen"
	"github.com/jrazmi/crudsmith/bridge/scaffolding/mid"
	"github.com/jrazmi/crudsmith/infrastructure/sqldb"
	"github.com/jrazmi/crudsmith/infrastructure/web"
	"github.com/jrazmi/crudsmith/schema/reflector"
	"github.com/jrazmi/crudsmith/sdk/logger"
)

const carSQL = `
CREATE TABLE Car (
    CarID INTEGER PRIMARY KEY,
    Make VARCHAR(50) NOT NULL,
    Model VARCHAR(50) NOT NULL,
    Price DECIMAL(10, 2)
);
INSERT INTO Car (CarID, Make, Model, Price) VALUES (1, 'Saab', '900', 9000.50);
`

type gateway struct {
	handler   http.Handler
	sqliteDir string
	outputDir string
}

func newGateway(t *testing.T) gateway {
	t.Helper()
	log := logger.Discard()

	dir := t.TempDir()
	admin, err := sqldb.Open(context.Background(), sqldb.Options{Dialect: "sqlite", SQLiteDir: dir}, sqldb.WithLogger(log))
	require.NoError(t, err)
	t.Cleanup(func() { admin.Close() })

	out := t.TempDir()
	cfg := config.Crudsmith{
		Build:     "test",
		Logger:    log,
		Gateway:   config.Gateway{OutputDir: out},
		Generator: orchestrator.DefaultConfig(),
		Admin:     admin,
	}

	wh := web.NewWebHandler(web.HandlerOptions{},
		web.WithGlobalMiddleware(mid.Errors(log), mid.Metrics(), mid.Panics()),
	)
	AddHandlers(wh, cfg)

	return gateway{handler: wh, sqliteDir: dir, outputDir: out}
}

func (g gateway) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sql_code", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	g.handler.ServeHTTP(rec, req)
	return rec
}

func sqlCodeBody(t *testing.T, sql, dbName string) string {
	t.Helper()
	data, err := json.Marshal(sqlCodeRequest{SQLCode: sql, DBName: dbName})
	require.NoError(t, err)
	return string(data)
}

func TestSQLCode(t *testing.T) {
	g := newGateway(t)

	rec := g.post(t, sqlCodeBody(t, carSQL, "Car Shop"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		SQLCode string                     `json:"sql_code"`
		API     string                     `json:"api"`
		DBInfo  *reflector.ReflectedSchema `json:"db_info"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, carSQL, resp.SQLCode)
	assert.Contains(t, resp.API, "package main")
	assert.Contains(t, resp.API, `"modernc.org/sqlite"`)
	assert.Contains(t, resp.API, filepath.Join(g.sqliteDir, "car_shop.db"))
	assert.Contains(t, resp.API, `"SELECT Make, Model, Price FROM Car WHERE CarID = ?"`)

	require.NotNil(t, resp.DBInfo)
	assert.Equal(t, "sqlite", resp.DBInfo.Source)
	require.Len(t, resp.DBInfo.Tables, 1)
	assert.Equal(t, "Car", resp.DBInfo.Tables[0].TableName)
	assert.Len(t, resp.DBInfo.Tables[0].Columns, 4)

	written, err := os.ReadFile(filepath.Join(g.outputDir, "car_shop", scriptgen.FileName))
	require.NoError(t, err)
	assert.Equal(t, resp.API, string(written))
}

func TestSQLCodeDefaultDatabase(t *testing.T) {
	g := newGateway(t)

	rec := g.post(t, `{"sql_code": "CREATE TABLE Item (ItemID INTEGER PRIMARY KEY, Name TEXT);"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.FileExists(t, filepath.Join(g.sqliteDir, config.DefaultDatabase+".db"))
	assert.FileExists(t, filepath.Join(g.outputDir, config.DefaultDatabase, scriptgen.FileName))
}

func TestSQLCodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"empty body", ``, http.StatusBadRequest, "request body is empty"},
		{"missing sql_code", `{"db_name": "shop"}`, http.StatusBadRequest, "sql_code is required"},
		{"null sql_code", `{"sql_code": null, "db_name": "shop"}`, http.StatusBadRequest, "sql_code is required"},
		{"bad json", `{"sql_code": `, http.StatusBadRequest, "json decode"},
		{"unusable name", `{"sql_code": "CREATE TABLE a (id INTEGER PRIMARY KEY);", "db_name": "!!!"}`, http.StatusBadRequest, "no usable characters"},
		{"unparsable table", `{"sql_code": "CREATE TABLE a (id INTEGER PRIMARY KEY,,);", "db_name": "shop"}`, http.StatusBadRequest, "statement 1"},
		{"missing table", `{"sql_code": "CREATE TABLE a (id INTEGER PRIMARY KEY); INSERT INTO b VALUES (1);", "db_name": "shop"}`, http.StatusUnprocessableEntity, "statement 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t)
			rec := g.post(t, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.msg)
		})
	}
}

func TestSQLCodeRerunConflicts(t *testing.T) {
	g := newGateway(t)

	body := sqlCodeBody(t, carSQL, "shop")
	require.Equal(t, http.StatusOK, g.post(t, body).Code)

	rec := g.post(t, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestHealth(t *testing.T) {
	g := newGateway(t)

	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Build)
	assert.Equal(t, "sqlite", resp.Dialect)
}
