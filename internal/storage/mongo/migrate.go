package mongo

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemongo "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

//go:embed migrations/*.json
var migrationsFS embed.FS

// RunMigrations applies the embedded index migrations. The indexes are plain
// (non-unique) lookup indexes: email and category uniqueness is intentionally
// NOT enforced at the store level, matching the check-then-insert semantics of
// the services.
func RunMigrations(client *mongodriver.Client, dbName string) error {
	driver, err := migratemongo.WithInstance(client, &migratemongo.Config{
		DatabaseName: dbName,
	})
	if err != nil {
		return fmt.Errorf("create mongodb driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, dbName, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
