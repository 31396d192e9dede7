// Command migrate applies the intake platform schema migrations embedded in
// the migrations package.
//
// Usage:
//
//	migrate              apply all pending migrations
//	migrate force <v>    mark the schema at version <v> after a manual repair
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	appmigrations "github.com/leadforgehq/intake-platform/migrations"
)

func main() {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required: migrations run against the intake submissions database")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		log.Fatalf("open intake database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("reach intake database: %v", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("postgres migration driver: %v", err)
	}

	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		log.Fatalf("embedded migration source: %v", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	// "force <version>" clears a dirty flag after a failed migration has been
	// repaired by hand; it does not run any SQL.
	if len(os.Args) >= 3 && os.Args[1] == "force" {
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("force expects a numeric version, got %q", os.Args[2])
		}
		if err := m.Force(version); err != nil {
			log.Fatalf("force schema version: %v", err)
		}
		fmt.Printf("intake schema forced to version %d\n", version)
		return
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("intake schema already up to date")
			return
		}
		log.Fatalf("apply migrations: %v", err)
	}

	fmt.Println("intake schema migrations applied")
}
