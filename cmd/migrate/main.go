package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"funding-core/pkg/config"
)

func main() {
	var (
		dir  = flag.String("dir", "migrations", "directory with migration files")
		down = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	config.Init()
	c := config.Global.DB

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)

	m, err := migrate.New("file://"+*dir, dsn)
	if err != nil {
		log.Fatalf("migrate init: %v", err)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && verr != migrate.ErrNilVersion {
		log.Fatalf("read version: %v", verr)
	}
	log.Printf("migrations applied. version=%d dirty=%v", version, dirty)
}
