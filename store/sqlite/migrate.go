package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migration commands accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// MigrationStatus describes one embedded migration.
type MigrationStatus struct {
	Version   int64     `json:"version"`
	Source    string    `json:"source"`
	Applied   bool      `json:"applied"`
	AppliedAt time.Time `json:"applied_at,omitempty"`
}

// MigrationReport is the result of a Migrate call.
type MigrationReport struct {
	Command    string            `json:"command"`
	Version    int64             `json:"version"`
	Applied    []string          `json:"applied,omitempty"`
	Migrations []MigrationStatus `json:"migrations,omitempty"`
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}

// Migrate runs one goose command against the store's database.
func (s *Store) Migrate(ctx context.Context, command string) (MigrationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := MigrationReport{Command: command}
	p, err := newProvider(s.db.DB)
	if err != nil {
		return report, err
	}

	switch command {
	case MigrateUp:
		results, err := p.Up(ctx)
		if err != nil {
			return report, fmt.Errorf("failed to migrate up: %w", err)
		}
		for _, r := range results {
			report.Applied = append(report.Applied, r.Source.Path)
		}
	case MigrateDown:
		result, err := p.Down(ctx)
		if err != nil {
			return report, fmt.Errorf("failed to migrate down: %w", err)
		}
		report.Applied = append(report.Applied, result.Source.Path)
	case MigrateStatus:
		statuses, err := p.Status(ctx)
		if err != nil {
			return report, fmt.Errorf("failed to read migration status: %w", err)
		}
		for _, st := range statuses {
			report.Migrations = append(report.Migrations, MigrationStatus{
				Version:   st.Source.Version,
				Source:    st.Source.Path,
				Applied:   st.State == goose.StateApplied,
				AppliedAt: st.AppliedAt,
			})
		}
	case MigrateVersion:
	default:
		return report, fmt.Errorf("unknown migration command %q (want up, down, status or version)", command)
	}

	report.Version, err = p.GetDBVersion(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read schema version: %w", err)
	}
	return report, nil
}
