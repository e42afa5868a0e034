//go:build mssql || all_adapters

package main

import _ "github.com/vantagebi/vantage-engine/pkg/adapters/datasource/mssql"
