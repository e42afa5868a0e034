package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
	"github.com/vantagebi/vantage-engine/pkg/config"
	"github.com/vantagebi/vantage-engine/pkg/models"
	"github.com/vantagebi/vantage-engine/pkg/retry"
)

// DatasourceProvider is the slice of datasource.Manager the execution
// service needs. Defined here so tests can substitute a fake.
type DatasourceProvider interface {
	Executor(ctx context.Context, name string) (datasource.QueryExecutor, error)
	Dialect(name string) (string, error)
}

// ExecutionService renders stored templates and runs the result against a
// configured datasource. Retries live here, never in the substitution core:
// a rendered template is deterministic, a network is not.
type ExecutionService struct {
	templates   *TemplateService
	datasources DatasourceProvider
	retryCfg    *retry.Config
	timeout     time.Duration
	maxRows     int
	logger      *zap.Logger
}

// NewExecutionService creates an ExecutionService.
func NewExecutionService(templates *TemplateService, datasources DatasourceProvider, cfg *config.ExecutionConfig, logger *zap.Logger) *ExecutionService {
	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries >= 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}

	timeout := time.Duration(cfg.QueryTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	maxRows := cfg.MaxRows
	if maxRows <= 0 || maxRows > datasource.MaxRowLimit {
		maxRows = datasource.MaxRowLimit
	}

	return &ExecutionService{
		templates:   templates,
		datasources: datasources,
		retryCfg:    retryCfg,
		timeout:     timeout,
		maxRows:     maxRows,
		logger:      logger,
	}
}

// ExecuteTemplate renders the stored template with the supplied bindings and
// runs it on the named datasource. The template is rendered for the
// datasource's dialect: the target database decides the syntax, whatever the
// template declares.
func (s *ExecutionService) ExecuteTemplate(ctx context.Context, templateID uuid.UUID, datasourceName string, supplied []models.ScriptVariable, limit int) (*datasource.QueryExecutionResult, error) {
	tmpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	dialectName, err := s.datasources.Dialect(datasourceName)
	if err != nil {
		return nil, err
	}
	if dialectName != tmpl.Dialect {
		s.logger.Warn("Template dialect differs from datasource dialect; rendering for the datasource",
			zap.String("template", tmpl.Name),
			zap.String("template_dialect", tmpl.Dialect),
			zap.String("datasource_dialect", dialectName))
	}

	finalSQL, err := s.templates.RenderTemplate(ctx, tmpl, supplied, dialectName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > s.maxRows {
		limit = s.maxRows
	}

	exec, err := s.datasources.Executor(ctx, datasourceName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	var result *datasource.QueryExecutionResult
	err = retry.DoIfRetryable(ctx, s.retryCfg, func() error {
		r, qerr := exec.Query(ctx, finalSQL, limit)
		if qerr != nil {
			return qerr
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute template %q on %q: %w", tmpl.Name, datasourceName, err)
	}

	s.logger.Info("Executed query template",
		zap.String("template", tmpl.Name),
		zap.String("datasource", datasourceName),
		zap.Int("rows", result.RowCount),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}
