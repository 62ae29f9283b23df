// CLI tool to run pending database migrations from db/.
// Applied files are recorded in the migrations table and skipped on later runs.
// Each migration and its record insert share one transaction.
// Usage: go run ./cmd/migrate [-dir db] [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"lg/nutri-coach-go-api/internal/config"
	"lg/nutri-coach-go-api/internal/logging"
)

var migrationPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{3}-`)

func main() {
	dir := flag.String("dir", "db", "directory holding the *.sql migrations")
	dryRun := flag.Bool("dry-run", false, "list pending migrations without applying them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg, "migrate")
	if cfg.DB.URL == "" {
		log.Fatal("[migrate] db.url (DB_URL) is required")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DB.URL)
	if err != nil {
		log.WithError(err).Fatal("[migrate] unable to connect to database")
	}
	defer conn.Close(ctx)

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil || len(files) == 0 {
		log.WithField("dir", *dir).Fatal("[migrate] no migration files found")
	}

	todo := pending(files, appliedMigrations(ctx, conn, log))
	if *dryRun {
		for _, f := range todo {
			fmt.Printf("  pending: %s\n", filepath.Base(f))
		}
		return
	}

	for _, f := range todo {
		if err := apply(ctx, conn, f); err != nil {
			log.WithError(err).WithField("file", filepath.Base(f)).Fatal("[migrate] migration failed")
		}
		log.WithField("file", filepath.Base(f)).Info("[migrate] applied")
	}

	if len(todo) == 0 {
		fmt.Println("No pending migrations.")
	} else {
		fmt.Printf("\n%d migration(s) applied.\n", len(todo))
	}
}

// appliedMigrations reads the migrations table. It is empty on a fresh
// database where the table does not exist yet.
func appliedMigrations(ctx context.Context, conn *pgx.Conn, log *logrus.Logger) map[string]bool {
	applied := make(map[string]bool)
	rows, err := conn.Query(ctx, "SELECT migration FROM migrations")
	if err != nil {
		return applied
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		log.WithError(err).Warn("[appliedMigrations] could not read migrations table")
	}
	for _, n := range names {
		applied[n] = true
	}
	return applied
}

// pending returns the files not yet applied, in filename order.
func pending(files []string, applied map[string]bool) []string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	var out []string
	for _, f := range sorted {
		if !applied[filepath.Base(f)] {
			out = append(out, f)
		}
	}
	return out
}

func apply(ctx context.Context, conn *pgx.Conn, path string) error {
	filename := filepath.Base(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("run %s: %w", filename, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO migrations (migration, description) VALUES ($1, $2)",
		filename, descriptionFromFilename(filename)); err != nil {
		return fmt.Errorf("record %s: %w", filename, err)
	}
	return tx.Commit(ctx)
}

// descriptionFromFilename strips the YYYY-MM-DD-NNN- prefix and .sql suffix.
func descriptionFromFilename(filename string) string {
	name := migrationPrefix.ReplaceAllString(strings.TrimSuffix(filename, ".sql"), "")
	return strings.ReplaceAll(name, "-", " ")
}
