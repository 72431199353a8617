package container

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	apisource "gobasket/adapters/api"
	"gobasket/adapters/excel"
	"gobasket/adapters/sqlstore"
	"gobasket/app"
	"gobasket/domain/rules"
	"gobasket/internal"
	"gobasket/internal/api"
	"gobasket/internal/apriori"
	"gobasket/internal/config"
	"gobasket/internal/errors"
	"gobasket/internal/migration"
	"gobasket/internal/telemetry"
	"gobasket/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Metrics *telemetry.Collector

	// Data access
	Reader   ports.DatasetReader
	RuleRuns ports.RuleRunRepository

	// Analysis
	Sessions *app.SessionHolder
	Miner    *app.MiningService
}

// New creates a container without a database. Mining runs are not persisted
// until InitWithDatabase is called.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	reader, err := NewReader(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to configure data source: %w", err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level)),
		Metrics:  telemetry.NewCollector("gobasket"),
		Reader:   reader,
		Sessions: &app.SessionHolder{},
	}
	c.initMiner()
	return c, nil
}

// InitWithDatabase migrates the rule store and enables run persistence
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.RuleRuns = sqlstore.NewRuleRunRepository(db)
	c.initMiner()

	c.Logger.Named("Container").Info("rule store ready (%s)", db.DriverName())
	return nil
}

func (c *Container) initMiner() {
	c.Miner = app.NewMiningService(c.RuleRuns, c.MiningDefaults(), c.Logger)
}

// MiningDefaults maps the analysis configuration onto mining defaults
func (c *Container) MiningDefaults() app.MiningDefaults {
	a := c.Config.Analysis
	return app.MiningDefaults{
		Options: apriori.Options{
			MinSupport:    a.MinSupport,
			MinConfidence: a.MinConfidence,
			MaxSize:       a.MaxItemsetSize,
			Workers:       a.Workers,
		},
		TopK:    a.TopK,
		SortBy:  rules.Metric(a.SortBy),
		Timeout: a.MineTimeout,
	}
}

// LoadSession reads the data source, indexes it and publishes the new session.
// The previous session keeps serving until the new one is complete.
func (c *Container) LoadSession(ctx context.Context) (*app.Session, error) {
	start := time.Now()
	ds, err := c.Reader.Read(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", c.Reader.Source())
	}

	sess, err := app.NewSession(ds, app.WithObserver(c.Metrics), app.WithLogger(c.Logger))
	if err != nil {
		return nil, err
	}
	c.Sessions.Store(sess)

	c.Logger.Named("Container").Info("session %s loaded from %s in %v", sess.ID(), c.Reader.Source(), time.Since(start))
	return sess, nil
}

// Router builds the HTTP router over the container's services
func (c *Container) Router() *gin.Engine {
	h := api.NewHandler(c.Sessions, c.Miner, api.QueryDefaults{
		TopK:   c.Config.Analysis.TopK,
		SortBy: rules.Metric(c.Config.Analysis.SortBy),
	}, c.Logger)
	return api.NewRouter(h, c.Metrics)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	_ = c.Logger.Sync()

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// NewReader picks the file reader when a file is configured, otherwise the REST reader
func NewReader(data config.DataConfig) (ports.DatasetReader, error) {
	if data.File != "" {
		columns, err := excel.ParseColumnBindings(data.Columns)
		if err != nil {
			return nil, err
		}
		return excel.NewDataReader(excel.ExcelConfig{
			FilePath:          data.File,
			Sheet:             data.Sheet,
			TransactionColumn: data.TransactionColumn,
			Columns:           columns,
		}), nil
	}

	if data.APIURL == "" {
		return nil, fmt.Errorf("no data source configured")
	}
	bindings, err := excel.ParseColumnBindings(data.APIFields)
	if err != nil {
		return nil, err
	}
	source := apisource.DefaultAPIDataSource()
	source.BaseURL = data.APIURL
	if data.APIDataPath != "" {
		source.DataPath = data.APIDataPath
	}
	source.LinesPath = data.APILinesPath
	if data.APITransactionPath != "" {
		source.TransactionPath = data.APITransactionPath
	}
	if data.APIToken != "" {
		source.AuthMethod = "bearer"
		source.AuthToken = data.APIToken
	}
	for _, b := range bindings {
		source.Fields = append(source.Fields, apisource.FieldBinding{Dimension: b.Dimension, Path: b.Column})
	}
	return apisource.NewAPIReader(&source)
}
