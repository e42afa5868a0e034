//go:build mssql || all_adapters

package mssql

import (
	"context"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Driver:      "mssql",
			DisplayName: "Microsoft SQL Server",
			Description: "Connect to SQL Server 2019+, Azure SQL Database",
		},
		TesterFactory: func(ctx context.Context, dsn string) (datasource.ConnectionTester, error) {
			return NewAdapter(ctx, dsn)
		},
		ExecutorFactory: func(ctx context.Context, dsn string) (datasource.QueryExecutor, error) {
			return NewQueryExecutor(ctx, dsn)
		},
	})
}
