// Command igreja-export writes the annual panel or the member roster of a
// SQLite database to an xlsx file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"igreja/internal/cli"
	"igreja/internal/export"
	applog "igreja/internal/log"
	"igreja/internal/services"
	"igreja/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	var (
		dbPath  = flag.String("db", envOr("SQLITE_DB_PATH", "./data/igreja.db"), "SQLite database path")
		year    = flag.Int("year", time.Now().Year(), "panel year")
		members = flag.Bool("members", false, "export the member roster instead of the panel")
		out     = flag.String("out", "", "output file (default painel-<year>.xlsx or membros.xlsx)")
	)
	flag.Parse()

	logger := cli.SetupLogger(envOr("LOG_LEVEL", "info"), envOr("LOG_FORMAT", "text"), applog.ComponentApp)
	ctx := context.Background()
	file, err := run(ctx, *dbPath, *year, *members, *out)
	if err != nil {
		logger.ErrorContext(ctx, "Export failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Export written", "file", file)
}

func run(ctx context.Context, dbPath string, year int, members bool, out string) (string, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return "", err
	}
	defer repo.Close()

	if out == "" {
		out = fmt.Sprintf("painel-%d.xlsx", year)
		if members {
			out = "membros.xlsx"
		}
	}

	var write func(io.Writer) error
	if members {
		roster, err := services.NewRegistryService(repo, nil).Members(ctx)
		if err != nil {
			return "", err
		}
		write = func(w io.Writer) error { return export.WriteMembersXLSX(w, roster) }
	} else {
		panel, err := services.NewReportService(repo, nil).AnnualPanel(ctx, true, year)
		if err != nil {
			return "", err
		}
		write = func(w io.Writer) error { return export.WritePanelXLSX(w, panel) }
	}

	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	return out, f.Close()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
