// Command substitute renders a YAML-described substitution job to stdout.
// Development tool: iterate on a template and its bindings without a server
// or a template store.
//
// Usage:
//
//	go run ./scripts/substitute -job job.yaml
//
// Job file:
//
//	dialect: postgres
//	template: SELECT * FROM orders WHERE region IN (${region})
//	variables:
//	  - name: region
//	    kind: value
//	    type: string
//	    values: [east, west]
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vantagebi/vantage-engine/pkg/models"
	"github.com/vantagebi/vantage-engine/pkg/sql"
)

type jobVariable struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Type   string   `yaml:"type"`
	Values []string `yaml:"values"`
}

type job struct {
	Template  string        `yaml:"template"`
	Dialect   string        `yaml:"dialect"`
	Variables []jobVariable `yaml:"variables"`
}

func main() {
	jobPath := flag.String("job", "job.yaml", "path to the YAML job file")
	strict := flag.Bool("strict", false, "fail when a supplied variable is not referenced")
	flag.Parse()

	if err := run(*jobPath, *strict); err != nil {
		fmt.Fprintf(os.Stderr, "substitute: %v\n", err)
		os.Exit(1)
	}
}

func run(jobPath string, strict bool) error {
	data, err := os.ReadFile(jobPath)
	if err != nil {
		return err
	}

	var j job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("failed to parse job file: %w", err)
	}
	if j.Dialect == "" {
		j.Dialect = "postgres"
	}

	dialect, err := sql.DialectByName(j.Dialect)
	if err != nil {
		return err
	}

	var opts []sql.Option
	if strict {
		opts = append(opts, sql.WithStrictVariables())
	}
	engine, err := sql.NewEngine(opts...)
	if err != nil {
		return err
	}

	vars := make([]models.ScriptVariable, 0, len(j.Variables))
	for _, v := range j.Variables {
		sv := models.ScriptVariable{
			Name:      v.Name,
			Kind:      models.VariableKind(v.Kind),
			ValueType: models.ValueType(v.Type),
			Values:    v.Values,
		}
		sv.Normalize()
		vars = append(vars, sv)
	}

	final, err := engine.Substitute(j.Template, vars, dialect)
	if err != nil {
		return err
	}

	fmt.Println(final)
	return nil
}
