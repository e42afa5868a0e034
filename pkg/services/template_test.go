package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/apperrors"
	"github.com/vantagebi/vantage-engine/pkg/models"
)

// fakeTemplateRepo is an in-memory TemplateRepository for service tests.
type fakeTemplateRepo struct {
	byID map[uuid.UUID]*models.QueryTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{byID: make(map[uuid.UUID]*models.QueryTemplate)}
}

func (f *fakeTemplateRepo) Create(_ context.Context, tmpl *models.QueryTemplate) error {
	for _, existing := range f.byID {
		if existing.Name == tmpl.Name {
			return fmt.Errorf("template name %q already exists: %w", tmpl.Name, apperrors.ErrConflict)
		}
	}
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	cp := *tmpl
	f.byID[tmpl.ID] = &cp
	return nil
}

func (f *fakeTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*models.QueryTemplate, error) {
	tmpl, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, apperrors.ErrNotFound)
	}
	cp := *tmpl
	return &cp, nil
}

func (f *fakeTemplateRepo) GetByName(_ context.Context, name string) (*models.QueryTemplate, error) {
	for _, tmpl := range f.byID {
		if tmpl.Name == name {
			cp := *tmpl
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("template %q: %w", name, apperrors.ErrNotFound)
}

func (f *fakeTemplateRepo) List(_ context.Context) ([]*models.QueryTemplate, error) {
	out := make([]*models.QueryTemplate, 0, len(f.byID))
	for _, tmpl := range f.byID {
		cp := *tmpl
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeTemplateRepo) Update(_ context.Context, tmpl *models.QueryTemplate) error {
	if _, ok := f.byID[tmpl.ID]; !ok {
		return fmt.Errorf("template %s: %w", tmpl.ID, apperrors.ErrNotFound)
	}
	cp := *tmpl
	f.byID[tmpl.ID] = &cp
	return nil
}

func (f *fakeTemplateRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return fmt.Errorf("template %s: %w", id, apperrors.ErrNotFound)
	}
	delete(f.byID, id)
	return nil
}

func newTestTemplateService(t *testing.T) (*TemplateService, *fakeTemplateRepo) {
	t.Helper()
	repo := newFakeTemplateRepo()
	sub := newTestSubstitutionService(t, testConfig())
	return NewTemplateService(repo, sub, zap.NewNop()), repo
}

func regionTemplate() *models.QueryTemplate {
	return &models.QueryTemplate{
		Name:    "orders_by_region",
		SQLText: "SELECT * FROM orders WHERE region IN (${region})",
		Dialect: "postgres",
		Variables: []models.VariableDef{
			{Name: "region", Kind: models.KindValue, ValueType: models.TypeString},
		},
	}
}

func TestTemplateService_Create(t *testing.T) {
	svc, repo := newTestTemplateService(t)
	ctx := context.Background()

	tmpl := regionTemplate()
	tmpl.SQLText += ";" // trailing semicolon is normalized away
	require.NoError(t, svc.Create(ctx, tmpl))
	require.NotEqual(t, uuid.Nil, tmpl.ID)
	assert.Equal(t, "SELECT * FROM orders WHERE region IN (${region})", tmpl.SQLText)
	assert.Len(t, repo.byID, 1)
}

func TestTemplateService_Create_Invalid(t *testing.T) {
	svc, _ := newTestTemplateService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.QueryTemplate)
	}{
		{"empty name", func(m *models.QueryTemplate) { m.Name = "  " }},
		{"unknown dialect", func(m *models.QueryTemplate) { m.Dialect = "oracle" }},
		{"multiple statements", func(m *models.QueryTemplate) { m.SQLText += "; DROP TABLE orders" }},
		{"not valid SQL", func(m *models.QueryTemplate) { m.SQLText = "SELECT FROM WHERE ${region}" }},
		{"undeclared marker", func(m *models.QueryTemplate) { m.Variables = nil }},
		{"unreferenced declaration", func(m *models.QueryTemplate) {
			m.Variables = append(m.Variables, models.VariableDef{Name: "ghost"})
		}},
		{"bad kind", func(m *models.QueryTemplate) { m.Variables[0].Kind = "column" }},
		{"bad value type", func(m *models.QueryTemplate) { m.Variables[0].ValueType = "blob" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := regionTemplate()
			tt.mutate(tmpl)
			err := svc.Create(ctx, tmpl)
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestTemplateService_Render(t *testing.T) {
	svc, _ := newTestTemplateService(t)
	ctx := context.Background()

	tmpl := regionTemplate()
	require.NoError(t, svc.Create(ctx, tmpl))

	got, err := svc.Render(ctx, tmpl.ID, []models.ScriptVariable{
		{Name: "region", Values: []string{"east", "west"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE region IN ('east', 'west')", got)
}

func TestTemplateService_Render_EmptyBindingCollapsesToNullTest(t *testing.T) {
	svc, _ := newTestTemplateService(t)
	ctx := context.Background()

	tmpl := regionTemplate()
	require.NoError(t, svc.Create(ctx, tmpl))

	// Optional variable, no default, no binding: the IN collapses to IS NULL.
	got, err := svc.Render(ctx, tmpl.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE region IS NULL", got)
}

func TestTemplateService_Render_Defaults(t *testing.T) {
	svc, _ := newTestTemplateService(t)
	ctx := context.Background()

	tmpl := regionTemplate()
	tmpl.Variables[0].DefaultValues = []string{"north"}
	require.NoError(t, svc.Create(ctx, tmpl))

	got, err := svc.Render(ctx, tmpl.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE region IN ('north')", got)
}

func TestTemplateService_Render_RequiredMissing(t *testing.T) {
	svc, _ := newTestTemplateService(t)
	ctx := context.Background()

	tmpl := regionTemplate()
	tmpl.Variables[0].Required = true
	require.NoError(t, svc.Create(ctx, tmpl))

	_, err := svc.Render(ctx, tmpl.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTemplateService_Render_UndeclaredVariable(t *testing.T) {
	svc, _ := newTestTemplateService(t)
	ctx := context.Background()

	tmpl := regionTemplate()
	require.NoError(t, svc.Create(ctx, tmpl))

	_, err := svc.Render(ctx, tmpl.ID, []models.ScriptVariable{
		{Name: "intruder", Values: []string{"x"}},
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTemplateService_Render_DeclaredTypingWins(t *testing.T) {
	svc, _ := newTestTemplateService(t)
	ctx := context.Background()

	tmpl := regionTemplate()
	tmpl.Variables[0].ValueType = models.TypeNumeric
	tmpl.SQLText = "SELECT * FROM orders WHERE total > ${region}"
	require.NoError(t, svc.Create(ctx, tmpl))

	// The caller's declared type is ignored; the template's declaration
	// renders the value as a numeric literal.
	got, err := svc.Render(ctx, tmpl.ID, []models.ScriptVariable{
		{Name: "region", ValueType: models.TypeString, Values: []string{"42"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE total > 42", got)
}

func TestTemplateService_Describe(t *testing.T) {
	svc, _ := newTestTemplateService(t)
	ctx := context.Background()

	tmpl := regionTemplate()
	tmpl.SQLText = "SELECT id, total AS amount FROM orders WHERE region IN (${region})"
	require.NoError(t, svc.Create(ctx, tmpl))

	cols, err := svc.Describe(ctx, tmpl.ID)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "amount", cols[1].Name)
}

func TestTemplateService_Get_NotFound(t *testing.T) {
	svc, _ := newTestTemplateService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
