//go:build sqlite || all_adapters

package sqlite

import (
	"context"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Driver:      "sqlite",
			DisplayName: "SQLite",
			Description: "Query local SQLite database files",
		},
		TesterFactory: func(ctx context.Context, dsn string) (datasource.ConnectionTester, error) {
			return NewAdapter(ctx, dsn)
		},
		ExecutorFactory: func(ctx context.Context, dsn string) (datasource.QueryExecutor, error) {
			return NewQueryExecutor(ctx, dsn)
		},
	})
}
