// Command migrate applies, rolls back or forces the schema migrations embedded in the store.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/PortNumber53/content-strategy-engine/internal/store"
	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	msg, err := run(os.Args[1:], defaultDeps())
	if err != nil {
		logrus.WithError(err).Fatal("[Migrate] failed")
	}
	fmt.Println(msg)
}

type deps struct {
	loadEnv  func(...string) error
	getenv   func(string) string
	openDB   func(driverName, dataSourceName string) (*sql.DB, error)
	migrateF func(db *sql.DB, dialect store.Dialect, direction string, steps int) error
}

func defaultDeps() deps {
	return deps{
		loadEnv:  godotenv.Load,
		getenv:   os.Getenv,
		openDB:   store.Open,
		migrateF: performMigrations,
	}
}

type options struct {
	direction  string
	steps      int
	force      int
	forceDirty bool
}

type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
}

// Overridden in tests to avoid a real database.
var newMigrator = func(db *sql.DB, dialect store.Dialect) (migrator, error) {
	m, err := store.NewMigrator(db, dialect)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

func parseArgs(args []string) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.direction, "direction", "up", "Migration direction: up or down")
	fs.IntVar(&o.steps, "steps", 0, "Number of migration steps (0 = all)")
	fs.IntVar(&o.force, "force", -1, "Force set migration version (clears dirty state). Example: -force=1")
	fs.BoolVar(&o.forceDirty, "force-dirty", false, "If the database is dirty, force it to the current version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.steps < 0 {
		return options{}, fmt.Errorf("invalid steps: %d (must be >= 0)", o.steps)
	}
	switch o.direction {
	case "up", "down":
		return o, nil
	default:
		return options{}, fmt.Errorf("invalid direction: %s (must be 'up' or 'down')", o.direction)
	}
}

func run(args []string, d deps) (string, error) {
	o, err := parseArgs(args)
	if err != nil {
		return "", err
	}

	if d.loadEnv != nil {
		_ = d.loadEnv()
	}
	getenv := d.getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	databaseURL := getenv("DATABASE_URL")
	if databaseURL == "" {
		return "", errors.New("DATABASE_URL environment variable is required")
	}
	dialect, err := store.ParseDialect(getenv("DATABASE_DRIVER"))
	if err != nil {
		return "", err
	}

	if d.openDB == nil {
		return "", errors.New("openDB dependency is required")
	}
	db, err := d.openDB(string(dialect), databaseURL)
	if err != nil {
		return "", fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if o.force >= 0 || o.forceDirty {
		return force(db, dialect, o)
	}

	if d.migrateF == nil {
		return "", errors.New("migrateF dependency is required")
	}
	err = d.migrateF(db, dialect, o.direction, o.steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return "No migrations to apply", nil
	}
	if err != nil {
		return "", fmt.Errorf("migration failed: %w", err)
	}
	return fmt.Sprintf("Migration %s completed successfully", o.direction), nil
}

// force clears a dirty state or pins the version, then exits without migrating.
func force(db *sql.DB, dialect store.Dialect, o options) (string, error) {
	m, err := newMigrator(db, dialect)
	if err != nil {
		return "", err
	}
	if o.forceDirty {
		v, dirty, err := m.Version()
		if err != nil {
			return "", fmt.Errorf("read migration version: %w", err)
		}
		if !dirty {
			return "Database is not dirty (no force needed)", nil
		}
		if err := m.Force(int(v)); err != nil {
			return "", fmt.Errorf("force dirty version %d: %w", v, err)
		}
		return fmt.Sprintf("Forced dirty database to version %d", v), nil
	}
	if err := m.Force(o.force); err != nil {
		return "", fmt.Errorf("force version %d: %w", o.force, err)
	}
	return fmt.Sprintf("Forced database to version %d", o.force), nil
}

func performMigrations(db *sql.DB, dialect store.Dialect, direction string, steps int) error {
	m, err := newMigrator(db, dialect)
	if err != nil {
		return err
	}
	return applyDirection(m, direction, steps)
}

func applyDirection(m migrator, direction string, steps int) error {
	switch direction {
	case "up":
		if steps > 0 {
			return m.Steps(steps)
		}
		return m.Up()
	case "down":
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	default:
		return fmt.Errorf("invalid direction: %s (must be 'up' or 'down')", direction)
	}
}
