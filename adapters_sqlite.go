//go:build sqlite || all_adapters

package main

import _ "github.com/vantagebi/vantage-engine/pkg/adapters/datasource/sqlite"
