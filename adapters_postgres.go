//go:build postgres || all_adapters

package main

// Linking the adapter package runs its init(), which registers the driver
// with the datasource registry. Build tags alone gate compilation; without
// this import the registration never runs.
import _ "github.com/vantagebi/vantage-engine/pkg/adapters/datasource/postgres"
