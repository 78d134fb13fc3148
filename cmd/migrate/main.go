// Migrate the database from one schema version to another.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"tokensale-go/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		source = flag.String("source", "file://migrations", "migration source URL")
		down   = flag.Bool("down", false, "roll back one migration instead of applying")
		steps  = flag.Int("steps", 0, "apply exactly this many steps (negative rolls back)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %s\n", err)
		os.Exit(1)
	}

	migrator, err := migrate.New(*source, "sqlite3://"+cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open migrations: %s\n", err)
		os.Exit(1)
	}
	defer migrator.Close()

	switch {
	case *steps != 0:
		err = migrator.Steps(*steps)
	case *down:
		err = migrator.Steps(-1)
	default:
		err = migrator.Up()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("database is up to date")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %s\n", err)
		os.Exit(1)
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read version: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("database at version %d (dirty: %v)\n", version, dirty)
}
