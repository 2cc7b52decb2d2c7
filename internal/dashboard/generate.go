package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"saaspulse-sim/internal/metrics"
	"saaspulse-sim/internal/sim"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

var templateFiles = []string{
	"grafana-greptime.json.tmpl",
	"grafana-prometheus.json.tmpl",
}

// Tables names the GreptimeDB tables the dashboards query.
type Tables struct {
	Snapshots string
	History   string
	Activity  string
}

// DefaultTables returns the tables written by the GreptimeDB writer.
func DefaultTables() Tables {
	return Tables{
		Snapshots: metrics.Snapshot{}.TableName(),
		History:   sim.HistoryTableName,
		Activity:  sim.ActivityTableName,
	}
}

// Render executes every dashboard template and writes the results to outDir.
// Datasource UIDs are read from the environment through the env function.
func Render(outDir string, tables Tables) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, name := range templateFiles {
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, tables); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		if !json.Valid(buf.Bytes()) {
			return fmt.Errorf("render %s: output is not valid JSON", name)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
