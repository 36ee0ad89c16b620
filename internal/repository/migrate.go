package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	// Registers the postgres:// driver, which talks to the database through lib/pq.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/autodoc/autodoc/migrations"
)

// ErrDirtySchema indicates a migration failed part way and the schema must be
// repaired by hand before the service can start.
var ErrDirtySchema = errors.New("schema is dirty")

// MigrationVersions returns the versions of the migrations in fsys in the
// order they are applied. Files that do not follow the
// NNNNNN_name.up.sql / .down.sql naming are ignored.
func MigrationVersions(fsys fs.FS) ([]uint, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return nil, fmt.Errorf("first migration: %w", err)
	}
	versions := []uint{v}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return versions, nil
		}
		if err != nil {
			return nil, fmt.Errorf("migration after %d: %w", v, err)
		}
		versions = append(versions, next)
		v = next
	}
}

// Migrate applies the pending embedded migrations and returns the versions
// it applied. The postgres driver holds an advisory lock while it runs, so
// instances starting together migrate one at a time. Cancelling ctx stops
// after the migration in progress.
func Migrate(ctx context.Context, databaseURL string) ([]uint, error) {
	versions, err := MigrationVersions(migrations.FS)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	from, err := schemaVersion(m)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	to, err := schemaVersion(m)
	if err != nil {
		return nil, err
	}

	var applied []uint
	for _, v := range versions {
		if v > from && v <= to {
			applied = append(applied, v)
		}
	}
	return applied, nil
}

// schemaVersion reads the recorded version; an empty database is version 0.
func schemaVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("%w at version %d", ErrDirtySchema, v)
	}
	return v, nil
}
