package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vantagebi/vantage-engine/pkg/apperrors"
	"github.com/vantagebi/vantage-engine/pkg/database"
	"github.com/vantagebi/vantage-engine/pkg/models"
)

// TemplateRepository provides data access for stored query templates.
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *models.QueryTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QueryTemplate, error)
	GetByName(ctx context.Context, name string) (*models.QueryTemplate, error)
	List(ctx context.Context) ([]*models.QueryTemplate, error)
	Update(ctx context.Context, tmpl *models.QueryTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateRepository struct {
	db *database.DB
}

// NewTemplateRepository creates a TemplateRepository over the template store.
func NewTemplateRepository(db *database.DB) TemplateRepository {
	return &templateRepository{db: db}
}

var _ TemplateRepository = (*templateRepository)(nil)

func (r *templateRepository) Create(ctx context.Context, tmpl *models.QueryTemplate) error {
	now := time.Now()
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	vars, err := marshalVariables(tmpl.Variables)
	if err != nil {
		return err
	}

	sql := `
		INSERT INTO query_templates (id, name, sql_text, dialect, variables, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.Exec(ctx, sql,
		tmpl.ID, tmpl.Name, tmpl.SQLText, tmpl.Dialect, vars, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("template name %q already exists: %w", tmpl.Name, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (r *templateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QueryTemplate, error) {
	sql := `
		SELECT id, name, sql_text, dialect, variables, created_at, updated_at
		FROM query_templates
		WHERE id = $1`

	tmpl, err := scanTemplate(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("template %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return tmpl, nil
}

func (r *templateRepository) GetByName(ctx context.Context, name string) (*models.QueryTemplate, error) {
	sql := `
		SELECT id, name, sql_text, dialect, variables, created_at, updated_at
		FROM query_templates
		WHERE name = $1`

	tmpl, err := scanTemplate(r.db.QueryRow(ctx, sql, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("template %q: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return tmpl, nil
}

func (r *templateRepository) List(ctx context.Context) ([]*models.QueryTemplate, error) {
	sql := `
		SELECT id, name, sql_text, dialect, variables, created_at, updated_at
		FROM query_templates
		ORDER BY name`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*models.QueryTemplate, 0)
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, tmpl *models.QueryTemplate) error {
	tmpl.UpdatedAt = time.Now()

	vars, err := marshalVariables(tmpl.Variables)
	if err != nil {
		return err
	}

	sql := `
		UPDATE query_templates
		SET name = $2,
		    sql_text = $3,
		    dialect = $4,
		    variables = $5,
		    updated_at = $6
		WHERE id = $1`

	result, err := r.db.Exec(ctx, sql,
		tmpl.ID, tmpl.Name, tmpl.SQLText, tmpl.Dialect, vars, tmpl.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("template name %q already exists: %w", tmpl.Name, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to update template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("template %s: %w", tmpl.ID, apperrors.ErrNotFound)
	}

	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM query_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("template %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func marshalVariables(defs []models.VariableDef) ([]byte, error) {
	if defs == nil {
		defs = []models.VariableDef{}
	}
	data, err := json.Marshal(defs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template variables: %w", err)
	}
	return data, nil
}

func scanTemplate(row pgx.Row) (*models.QueryTemplate, error) {
	var t models.QueryTemplate
	var vars []byte
	err := row.Scan(&t.ID, &t.Name, &t.SQLText, &t.Dialect, &vars, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(vars, &t.Variables); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template variables: %w", err)
	}
	return &t, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
