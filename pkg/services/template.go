package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/apperrors"
	"github.com/vantagebi/vantage-engine/pkg/models"
	"github.com/vantagebi/vantage-engine/pkg/repositories"
	"github.com/vantagebi/vantage-engine/pkg/sql"
)

// TemplateService manages stored query templates and renders them with
// caller-supplied bindings. Validation happens at storage time so a template
// that made it into the store is known to parse.
type TemplateService struct {
	repo   repositories.TemplateRepository
	sub    *SubstitutionService
	logger *zap.Logger
}

// NewTemplateService creates a TemplateService.
func NewTemplateService(repo repositories.TemplateRepository, sub *SubstitutionService, logger *zap.Logger) *TemplateService {
	return &TemplateService{repo: repo, sub: sub, logger: logger}
}

// Create validates and stores a new template.
func (s *TemplateService) Create(ctx context.Context, tmpl *models.QueryTemplate) error {
	if err := s.validate(tmpl); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, tmpl); err != nil {
		return err
	}
	s.logger.Info("Created query template",
		zap.String("template_id", tmpl.ID.String()),
		zap.String("name", tmpl.Name))
	return nil
}

// Get returns the stored template with the given ID.
func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*models.QueryTemplate, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all stored templates ordered by name.
func (s *TemplateService) List(ctx context.Context) ([]*models.QueryTemplate, error) {
	return s.repo.List(ctx)
}

// Update validates and stores changes to an existing template.
func (s *TemplateService) Update(ctx context.Context, tmpl *models.QueryTemplate) error {
	if err := s.validate(tmpl); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, tmpl); err != nil {
		return err
	}
	s.logger.Info("Updated query template",
		zap.String("template_id", tmpl.ID.String()),
		zap.String("name", tmpl.Name))
	return nil
}

// Delete removes a stored template.
func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted query template", zap.String("template_id", id.String()))
	return nil
}

// Render substitutes the stored template with the supplied bindings using
// the template's declared dialect.
func (s *TemplateService) Render(ctx context.Context, id uuid.UUID, supplied []models.ScriptVariable) (string, error) {
	tmpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.RenderTemplate(ctx, tmpl, supplied, tmpl.Dialect)
}

// RenderTemplate substitutes an already-loaded template for the named
// dialect. Declared variables supply kinds, value types, and defaults;
// supplied bindings provide the values.
func (s *TemplateService) RenderTemplate(ctx context.Context, tmpl *models.QueryTemplate, supplied []models.ScriptVariable, dialectName string) (string, error) {
	vars, err := bindTemplateVariables(tmpl, supplied)
	if err != nil {
		return "", err
	}
	return s.sub.Substitute(ctx, tmpl.SQLText, vars, dialectName)
}

// Describe returns the output columns of a stored SELECT template.
func (s *TemplateService) Describe(ctx context.Context, id uuid.UUID) ([]sql.OutputColumn, error) {
	tmpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sql.DescribeColumns(tmpl.SQLText)
}

// validate checks a template is storable: named, a known dialect, a single
// parseable statement, and declarations matching its markers exactly.
// The SQL text is normalized in place (trailing semicolon stripped).
func (s *TemplateService) validate(tmpl *models.QueryTemplate) error {
	tmpl.Name = strings.TrimSpace(tmpl.Name)
	if tmpl.Name == "" {
		return fmt.Errorf("template name is required: %w", apperrors.ErrInvalidInput)
	}

	if _, err := sql.DialectByName(tmpl.Dialect); err != nil {
		return fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}

	result := sql.ValidateAndNormalize(tmpl.SQLText)
	if result.Error != nil {
		return fmt.Errorf("%v: %w", result.Error, apperrors.ErrInvalidInput)
	}
	tmpl.SQLText = result.NormalizedSQL

	if err := sql.ValidateTemplate(tmpl.SQLText); err != nil {
		return fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}

	for i := range tmpl.Variables {
		d := &tmpl.Variables[i]
		if d.Kind == "" {
			d.Kind = models.KindValue
		}
		if d.ValueType == "" {
			d.ValueType = models.TypeString
		}
		if !models.ValidKind(d.Kind) {
			return fmt.Errorf("variable %q has unknown kind %q: %w", d.Name, d.Kind, apperrors.ErrInvalidInput)
		}
		if !models.ValidValueType(d.ValueType) {
			return fmt.Errorf("variable %q has unknown value type %q: %w", d.Name, d.ValueType, apperrors.ErrInvalidInput)
		}
	}

	if err := sql.ValidateVariableDefinitions(tmpl.SQLText, tmpl.Variables); err != nil {
		return fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}

	if inert := sql.FindMarkersInStringLiterals(tmpl.SQLText); len(inert) > 0 {
		s.logger.Warn("Template has markers inside string literals or comments; they will not be substituted",
			zap.String("name", tmpl.Name),
			zap.Strings("variables", inert))
	}

	return nil
}

// bindTemplateVariables merges supplied bindings with the template's
// declarations. Kinds and value types always come from the declaration; a
// missing binding falls back to declared defaults, then to an empty binding
// unless the variable is required. Supplying an undeclared variable is an
// error: it would otherwise be silently ignored or, worse, override the
// template author's typing.
func bindTemplateVariables(tmpl *models.QueryTemplate, supplied []models.ScriptVariable) ([]models.ScriptVariable, error) {
	byName := make(map[string][]string, len(supplied))
	for _, v := range supplied {
		if tmpl.VariableByName(v.Name) == nil {
			return nil, fmt.Errorf("variable %q is not declared by template %q: %w",
				v.Name, tmpl.Name, apperrors.ErrInvalidInput)
		}
		byName[v.Name] = v.Values
	}

	vars := make([]models.ScriptVariable, 0, len(tmpl.Variables))
	for _, def := range tmpl.Variables {
		values, ok := byName[def.Name]
		if !ok {
			if len(def.DefaultValues) > 0 {
				values = def.DefaultValues
			} else if def.Required {
				return nil, fmt.Errorf("required variable %q has no binding: %w",
					def.Name, apperrors.ErrInvalidInput)
			}
			// No binding, no default, not required: an empty binding, which
			// value-kind comparisons collapse to a null test.
		}
		vars = append(vars, models.ScriptVariable{
			Name:      def.Name,
			Kind:      def.Kind,
			ValueType: def.ValueType,
			Values:    values,
		})
	}
	return vars, nil
}
