package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/apperrors"
	"github.com/vantagebi/vantage-engine/pkg/config"
	"github.com/vantagebi/vantage-engine/pkg/logging"
	"github.com/vantagebi/vantage-engine/pkg/models"
	"github.com/vantagebi/vantage-engine/pkg/sql"
)

// SubstitutionService wraps the substitution engine with request policy:
// injection screening of bound values and sanitized logging. The engine is
// mechanism, this service is policy.
type SubstitutionService struct {
	engine *sql.Engine
	screen bool
	logger *zap.Logger
}

// NewSubstitutionService builds the engine from configuration.
func NewSubstitutionService(cfg *config.Config, logger *zap.Logger) (*SubstitutionService, error) {
	var opts []sql.Option
	if cfg.Engine.MarkerPrefix != "" || cfg.Engine.MarkerSuffix != "" {
		opts = append(opts, sql.WithMarkerDelimiters(cfg.Engine.MarkerPrefix, cfg.Engine.MarkerSuffix))
	}
	if cfg.Engine.StrictVariables {
		opts = append(opts, sql.WithStrictVariables())
	}
	if cfg.Engine.PlanCacheSize > 0 {
		opts = append(opts, sql.WithPlanCacheSize(cfg.Engine.PlanCacheSize))
	}

	engine, err := sql.NewEngine(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build substitution engine: %w", err)
	}

	return &SubstitutionService{
		engine: engine,
		screen: cfg.Security.InjectionScreening,
		logger: logger,
	}, nil
}

// Substitute renders the template for the named dialect. When injection
// screening is enabled, string values that fingerprint as SQL injection
// reject the whole request before any rewriting happens.
func (s *SubstitutionService) Substitute(ctx context.Context, template string, vars []models.ScriptVariable, dialectName string) (string, error) {
	dialect, err := sql.DialectByName(dialectName)
	if err != nil {
		return "", err
	}

	if s.screen {
		findings := sql.CheckVariablesForInjection(vars)
		for _, f := range findings {
			// Log the fingerprint, never the value.
			s.logger.Warn("Rejected variable value flagged as SQL injection",
				zap.String("variable", f.VariableName),
				zap.String("fingerprint", f.Fingerprint))
		}
		if len(findings) > 0 {
			return "", fmt.Errorf("variable %q value failed injection screening: %w",
				findings[0].VariableName, apperrors.ErrInvalidInput)
		}
	}

	final, err := s.engine.Substitute(template, vars, dialect)
	if err != nil {
		return "", err
	}

	s.logger.Debug("Substituted SQL template",
		zap.String("dialect", dialect.Name()),
		zap.Int("variables", len(vars)),
		zap.String("sql", logging.SanitizeQuery(final)))
	return final, nil
}

// Variables returns the distinct variable names the template references.
func (s *SubstitutionService) Variables(template string) []string {
	return s.engine.Variables(template)
}
