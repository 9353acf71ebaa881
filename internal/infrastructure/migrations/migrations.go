// Package migrations applies the SQL schema for the payments/outbox
// tables, grounded on the pack's golang-migrate file-source usage.
package migrations

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Run applies all pending up migrations for dataSourceName. The driver
// directory under db/migrations is chosen from the DSN scheme, so the
// same call works against postgres:// today and any future driver this
// service might add.
func Run(dataSourceName string) error {
	if !strings.Contains(dataSourceName, "://") {
		return fmt.Errorf("migrations: undefined data source name %q", dataSourceName)
	}
	driverName := strings.ToLower(strings.Split(dataSourceName, "://")[0])

	m, err := migrate.New(fmt.Sprintf("file://db/migrations/%s", driverName), dataSourceName)
	if err != nil {
		return fmt.Errorf("migrations: open: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}
