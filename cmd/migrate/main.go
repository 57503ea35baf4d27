// migrate applies the embedded schema migrations to the admin account store.
package main

import (
	"flag"
	"fmt"
	"os"

	"cloudpad-admin/backend/internal/config"
	"cloudpad-admin/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "apply migrations: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fatal(fmt.Sprintf("load config: %v", err))
	}
	if cfg.DatabaseURL == "" {
		fatal("DATABASE_URL is empty; set it in the environment or in .env")
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		fatal(err.Error())
	}
	fmt.Println("migrations applied:", *direction)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
