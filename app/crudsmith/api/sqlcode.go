package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jrazmi/crudsmith/app/crudsmith/config"
	"github.com/jrazmi/crudsmith/app/generators/orchestrator"
	"github.com/jrazmi/crudsmith/app/generators/routegen"
	"github.com/jrazmi/crudsmith/app/generators/schema"
	"github.com/jrazmi/crudsmith/app/generators/sqlparser"
	"github.com/jrazmi/crudsmith/bridge/scaffolding/errs"
	"github.com/jrazmi/crudsmith/bridge/scaffolding/metrics"
	"github.com/jrazmi/crudsmith/infrastructure/sqldb"
	"github.com/jrazmi/crudsmith/infrastructure/web"
	"github.com/jrazmi/crudsmith/schema/reflector"
	"github.com/jrazmi/crudsmith/sdk/validation"
)

type sqlCodeRequest struct {
	SQLCode string `json:"sql_code"`
	DBName  string `json:"db_name"`
}

func (r sqlCodeRequest) Validate() error {
	if strings.TrimSpace(r.SQLCode) == "" {
		return errors.New("sql_code is required")
	}
	return nil
}

type sqlCodeResponse struct {
	SQLCode string                     `json:"sql_code"`
	API     string                     `json:"api"`
	DBInfo  *reflector.ReflectedSchema `json:"db_info"`
}

// sqlCode runs a SQL script against a fresh or existing database, generates
// the CRUD service for its tables and answers with the source and what the
// database now holds.
func (a *api) sqlCode(ctx context.Context, r *http.Request) web.Encoder {
	var req sqlCodeRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if req.DBName == "" {
		req.DBName = config.DefaultDatabase
	}
	name, err := validation.DatabaseName(req.DBName)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	models, err := sqlparser.ParseModels(req.SQLCode)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	admin := a.cfg.Admin
	if err := admin.CreateDatabase(ctx, name); err != nil {
		return adminError(err)
	}
	if err := admin.ExecScript(ctx, name, req.SQLCode); err != nil {
		return adminError(err)
	}

	genCfg := a.cfg.Generator
	genCfg.Dialect = admin.Dialect().String()
	genCfg.OutputDir = filepath.Join(a.cfg.Gateway.OutputDir, name)
	genCfg.UseConnection(admin.Connection(name))

	gen, err := orchestrator.New(genCfg, orchestrator.WithLogger(a.cfg.Logger))
	if err != nil {
		return errs.New(errs.Internal, err)
	}
	result, err := gen.GenerateModels(ctx, models)
	if err != nil {
		return generateError(err)
	}
	metrics.AddGenerated(ctx)

	info, err := admin.Reflect(ctx, name)
	if err != nil {
		return adminError(err)
	}

	return web.NewJSONResponse(sqlCodeResponse{
		SQLCode: req.SQLCode,
		API:     string(result.Source),
		DBInfo:  info,
	})
}

// adminError classifies a database server failure. Most come from the
// caller's SQL.
func adminError(err error) *errs.Error {
	var scriptErr *sqldb.ScriptError
	switch {
	case errors.Is(err, sqldb.ErrInvalidName),
		errors.Is(err, sqldb.ErrEmptyScript),
		errors.Is(err, sqldb.ErrSyntax):
		return errs.New(errs.InvalidArgument, err)
	case errors.Is(err, sqldb.ErrDuplicateObject),
		errors.Is(err, sqldb.ErrDBDuplicatedEntry):
		return errs.New(errs.AlreadyExists, err)
	case errors.As(err, &scriptErr):
		return errs.New(errs.FailedPrecondition, err)
	}
	return errs.New(errs.Internal, err)
}

func generateError(err error) *errs.Error {
	if errors.Is(err, routegen.ErrInvalidModel) || errors.Is(err, schema.ErrIdentifier) {
		return errs.New(errs.FailedPrecondition, err)
	}
	return errs.New(errs.Internal, err)
}
