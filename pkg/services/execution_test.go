package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
	"github.com/vantagebi/vantage-engine/pkg/apperrors"
	"github.com/vantagebi/vantage-engine/pkg/config"
	"github.com/vantagebi/vantage-engine/pkg/models"
)

// fakeExecutor records the SQL it was asked to run.
type fakeExecutor struct {
	lastSQL   string
	lastLimit int
	result    *datasource.QueryExecutionResult
	errs      []error // consumed one per call; nil entry means success
	calls     int
}

func (f *fakeExecutor) Query(_ context.Context, sqlQuery string, limit int) (*datasource.QueryExecutionResult, error) {
	f.lastSQL = sqlQuery
	f.lastLimit = limit
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.result, nil
}

func (f *fakeExecutor) Execute(_ context.Context, _ string) (*datasource.ExecuteResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeExecutor) ValidateQuery(_ context.Context, _ string) error { return nil }
func (f *fakeExecutor) QuoteIdentifier(name string) string              { return `"` + name + `"` }
func (f *fakeExecutor) Close() error                                    { return nil }

// fakeProvider serves one executor under one datasource name.
type fakeProvider struct {
	name    string
	dialect string
	exec    *fakeExecutor
}

func (f *fakeProvider) Executor(_ context.Context, name string) (datasource.QueryExecutor, error) {
	if name != f.name {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrDatasourceDisabled, name)
	}
	return f.exec, nil
}

func (f *fakeProvider) Dialect(name string) (string, error) {
	if name != f.name {
		return "", fmt.Errorf("%w: %q", apperrors.ErrDatasourceDisabled, name)
	}
	return f.dialect, nil
}

func newTestExecutionService(t *testing.T, provider DatasourceProvider) (*ExecutionService, *TemplateService) {
	t.Helper()
	templates, _ := newTestTemplateService(t)
	execCfg := &config.ExecutionConfig{
		QueryTimeoutSeconds: 5,
		MaxRows:             100,
		MaxRetries:          2,
	}
	return NewExecutionService(templates, provider, execCfg, zap.NewNop()), templates
}

func TestExecutionService_ExecuteTemplate(t *testing.T) {
	exec := &fakeExecutor{result: &datasource.QueryExecutionResult{
		Columns:  []datasource.ColumnInfo{{Name: "id", Type: "INT4"}},
		Rows:     []map[string]any{{"id": 1}},
		RowCount: 1,
	}}
	provider := &fakeProvider{name: "warehouse", dialect: "postgres", exec: exec}
	svc, templates := newTestExecutionService(t, provider)
	ctx := context.Background()

	tmpl := regionTemplate()
	require.NoError(t, templates.Create(ctx, tmpl))

	result, err := svc.ExecuteTemplate(ctx, tmpl.ID, "warehouse", []models.ScriptVariable{
		{Name: "region", Values: []string{"east"}},
	}, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, "SELECT * FROM orders WHERE region IN ('east')", exec.lastSQL)
	assert.Equal(t, 50, exec.lastLimit)
}

func TestExecutionService_RendersForDatasourceDialect(t *testing.T) {
	exec := &fakeExecutor{result: &datasource.QueryExecutionResult{}}
	provider := &fakeProvider{name: "reports", dialect: "mysql", exec: exec}
	svc, templates := newTestExecutionService(t, provider)
	ctx := context.Background()

	// Template declares postgres but runs on a mysql datasource; identifier
	// quoting must follow the target.
	tmpl := regionTemplate()
	tmpl.SQLText = "SELECT * FROM orders WHERE region = ${col}"
	tmpl.Variables = []models.VariableDef{
		{Name: "col", Kind: models.KindIdentifier, ValueType: models.TypeString},
	}
	require.NoError(t, templates.Create(ctx, tmpl))

	_, err := svc.ExecuteTemplate(ctx, tmpl.ID, "reports", []models.ScriptVariable{
		{Name: "col", Values: []string{"home_region"}},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders WHERE region = `home_region`", exec.lastSQL)
}

func TestExecutionService_LimitClamped(t *testing.T) {
	exec := &fakeExecutor{result: &datasource.QueryExecutionResult{}}
	provider := &fakeProvider{name: "warehouse", dialect: "postgres", exec: exec}
	svc, templates := newTestExecutionService(t, provider)
	ctx := context.Background()

	tmpl := regionTemplate()
	require.NoError(t, templates.Create(ctx, tmpl))

	_, err := svc.ExecuteTemplate(ctx, tmpl.ID, "warehouse", []models.ScriptVariable{
		{Name: "region", Values: []string{"east"}},
	}, 99999)
	require.NoError(t, err)
	assert.Equal(t, 100, exec.lastLimit) // clamped to configured MaxRows
}

func TestExecutionService_RetriesTransientFailure(t *testing.T) {
	exec := &fakeExecutor{
		result: &datasource.QueryExecutionResult{RowCount: 3},
		errs:   []error{errors.New("connection refused"), nil},
	}
	provider := &fakeProvider{name: "warehouse", dialect: "postgres", exec: exec}
	svc, templates := newTestExecutionService(t, provider)
	ctx := context.Background()

	tmpl := regionTemplate()
	require.NoError(t, templates.Create(ctx, tmpl))

	result, err := svc.ExecuteTemplate(ctx, tmpl.ID, "warehouse", []models.ScriptVariable{
		{Name: "region", Values: []string{"east"}},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowCount)
	assert.Equal(t, 2, exec.calls)
}

func TestExecutionService_NoRetryOnPermanentFailure(t *testing.T) {
	exec := &fakeExecutor{
		errs: []error{errors.New(`relation "nope" does not exist`)},
	}
	provider := &fakeProvider{name: "warehouse", dialect: "postgres", exec: exec}
	svc, templates := newTestExecutionService(t, provider)
	ctx := context.Background()

	tmpl := regionTemplate()
	require.NoError(t, templates.Create(ctx, tmpl))

	_, err := svc.ExecuteTemplate(ctx, tmpl.ID, "warehouse", []models.ScriptVariable{
		{Name: "region", Values: []string{"east"}},
	}, 0)
	require.Error(t, err)
	assert.Equal(t, 1, exec.calls)
}

func TestExecutionService_UnknownDatasource(t *testing.T) {
	provider := &fakeProvider{name: "warehouse", dialect: "postgres", exec: &fakeExecutor{}}
	svc, templates := newTestExecutionService(t, provider)
	ctx := context.Background()

	tmpl := regionTemplate()
	require.NoError(t, templates.Create(ctx, tmpl))

	_, err := svc.ExecuteTemplate(ctx, tmpl.ID, "missing", nil, 0)
	require.ErrorIs(t, err, apperrors.ErrDatasourceDisabled)
}

func TestExecutionService_TemplateNotFound(t *testing.T) {
	provider := &fakeProvider{name: "warehouse", dialect: "postgres", exec: &fakeExecutor{}}
	svc, _ := newTestExecutionService(t, provider)

	_, err := svc.ExecuteTemplate(context.Background(), uuid.New(), "warehouse", nil, 0)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
