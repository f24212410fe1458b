// Package config holds what the gateway's handlers share.
package config

import (
	"fmt"

	"github.com/jrazmi/crudsmith/app/generators/orchestrator"
	"github.com/jrazmi/crudsmith/infrastructure/sqldb"
	"github.com/jrazmi/crudsmith/sdk/environment"
	"github.com/jrazmi/crudsmith/sdk/logger"
	"github.com/jrazmi/crudsmith/sdk/telemetry"
)

// AppName prefixes the gateway's environment variables.
const AppName = "CRUDSMITH"

// DefaultDatabase is used when a request names no database.
const DefaultDatabase = "newdb"

// Gateway is read from CRUDSMITH_* variables.
type Gateway struct {
	// OutputDir receives one directory per database holding its generated service.
	OutputDir   string   `env:"OUTPUT_DIR" default:"generated"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"*" separator:","`
}

// GatewayFromEnv reads the gateway settings.
func GatewayFromEnv() (Gateway, error) {
	var cfg Gateway
	if err := environment.ParseEnvTags(AppName, &cfg); err != nil {
		return Gateway{}, fmt.Errorf("parsing gateway config: %w", err)
	}
	return cfg, nil
}

// Crudsmith is the overall configuration for the gateway.
type Crudsmith struct {
	Build     string
	Logger    *logger.Logger
	Telemetry telemetry.Telemetry

	Gateway Gateway

	// Generator is the base configuration for every generation. The
	// dialect, connection and output directory are set per request.
	Generator orchestrator.Config

	// Admin creates, scripts and reflects the databases requests name.
	Admin sqldb.Admin
}
