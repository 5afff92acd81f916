// Command migrate manages the fee ledger schema: versioned SQL files for
// postgres, model-driven tables for the sqlite development database.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/schoolerp/feeledger/internal/infrastructure/config"
	"github.com/schoolerp/feeledger/internal/infrastructure/logger"
	"github.com/schoolerp/feeledger/internal/infrastructure/migration"
	"github.com/schoolerp/feeledger/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const usage = `Fee ledger database migrations

Usage:
  migrate [-path dir] [-log-level level] <command> [arguments]

Commands:
  up                    apply pending migrations (sqlite: create tables from models)
  down                  roll back every migration
  step <n>              apply n migrations, negative n rolls back
  goto <version>        migrate up or down to version
  version               print the applied version
  status                print the applied version and the pending count
  force <version>       mark version as applied after repairing a dirty state
  create <name> [desc]  write a new up/down file pair
  list                  list migration files

Connection settings come from config.toml, .env and ERP_* variables
(ERP_DATABASE_DRIVER, ERP_DATABASE_HOST, ERP_DATABASE_PASSWORD, ...).`

// cli carries what every command needs
type cli struct {
	log  *zap.Logger
	cfg  *config.Config
	dir  string
	args []string
}

// dbCommand runs against an open postgres migrator
type dbCommand func(c *cli, m *migration.Migrator) error

var dbCommands = map[string]dbCommand{
	"up":   func(_ *cli, m *migration.Migrator) error { return m.Up() },
	"down": func(_ *cli, m *migration.Migrator) error { return m.Down() },
	"step": func(c *cli, m *migration.Migrator) error {
		n, err := c.intArg("step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(c *cli, m *migration.Migrator) error {
		v, err := c.intArg("version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative: %d", v)
		}
		return m.GoTo(uint(v))
	},
	"force": func(c *cli, m *migration.Migrator) error {
		v, err := c.intArg("version")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(c *cli, m *migration.Migrator) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		c.log.Info("Applied migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	},
	"status": (*cli).status,
}

func main() {
	_ = godotenv.Load()

	dir := flag.String("path", "", "migrations directory (default ./migrations)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(log, *dir, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatal("Migration command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}

func run(log *zap.Logger, dir, command string, args []string) error {
	abs, err := filepath.Abs(migrationsDir(dir))
	if err != nil {
		return err
	}
	c := &cli{log: log, dir: abs, args: args}
	log.Debug("Running migration command", zap.String("command", command), zap.String("dir", abs))

	// file commands need no database
	switch command {
	case "create":
		return c.create()
	case "list":
		return c.list()
	}

	if c.cfg, err = config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.cfg.Database.Driver == config.DriverSQLite {
		return c.sqlite(command)
	}

	cmd, ok := dbCommands[command]
	if !ok {
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	db, err := sql.Open("postgres", c.cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, abs, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return cmd(c, m)
}

// sqlite has no version table; "up" brings the tables in line with the models
func (c *cli) sqlite(command string) error {
	if command != "up" {
		return fmt.Errorf("the sqlite driver supports only up, got %q", command)
	}
	db, err := persistence.NewDatabase(&c.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migration.AutoMigrate(db.DB); err != nil {
		return err
	}
	c.log.Info("SQLite schema is up to date", zap.String("path", c.cfg.Database.SQLitePath))
	return nil
}

func (c *cli) create() error {
	if len(c.args) == 0 {
		return errors.New("usage: migrate create <name> [description]")
	}
	desc := strings.Join(c.args[1:], " ")
	mf, err := migration.CreateMigration(c.dir, c.args[0], desc)
	if err != nil {
		return err
	}
	c.log.Info("Migration created", zap.String("version", mf.Version), zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
	return nil
}

func (c *cli) list() error {
	names, err := migration.ListMigrations(c.dir)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func (c *cli) status(m *migration.Migrator) error {
	applied, dirty, err := m.Version()
	if err != nil {
		return err
	}
	names, err := migration.ListMigrations(c.dir)
	if err != nil {
		return err
	}
	var pending int
	for _, n := range names {
		prefix, _, _ := strings.Cut(n, "_")
		if v, err := strconv.ParseUint(prefix, 10, 64); err == nil && uint(v) > applied {
			pending++
		}
	}
	c.log.Info("Migration status",
		zap.Uint("version", applied),
		zap.Bool("dirty", dirty),
		zap.Int("files", len(names)),
		zap.Int("pending", pending),
	)
	return nil
}

func (c *cli) intArg(what string) (int, error) {
	if len(c.args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(c.args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, c.args[0])
	}
	return n, nil
}

// migrationsDir resolves the flag, then ./migrations, then migrations/ two
// levels above the binary.
func migrationsDir(flagValue string) string {
	const def = "migrations"
	if flagValue != "" {
		return flagValue
	}
	if _, err := os.Stat(def); err == nil {
		return def
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "..", "..", def)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return def
}
