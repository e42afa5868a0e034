//go:build postgres || all_adapters

package postgres

import (
	"context"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Driver:      "postgres",
			DisplayName: "PostgreSQL",
			Description: "Connect to PostgreSQL 12+, Aurora PostgreSQL, Supabase",
		},
		TesterFactory: func(ctx context.Context, dsn string) (datasource.ConnectionTester, error) {
			return NewAdapter(ctx, dsn)
		},
		ExecutorFactory: func(ctx context.Context, dsn string) (datasource.QueryExecutor, error) {
			return NewQueryExecutor(ctx, dsn)
		},
	})
}
