// Aplica las migraciones embebidas contra la base configurada.
//
//	migrate [-config ruta] [up|down|status|version]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dropDatabas3/depotmaster/internal/config"
	migrations "github.com/dropDatabas3/depotmaster/migrations/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "ruta al config YAML (vacío = defaults + env)")
	flag.Parse()

	action := "up"
	if args := flag.Args(); len(args) > 0 {
		action = args[0]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.DSN == "" {
		return fmt.Errorf("falta DATABASE_DSN")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	switch action {
	case "up":
		return goose.Up(db, ".")
	case "down":
		return goose.Down(db, ".")
	case "status":
		return goose.Status(db, ".")
	case "version":
		return goose.Version(db, ".")
	default:
		return fmt.Errorf("acción desconocida: %q (up|down|status|version)", action)
	}
}
