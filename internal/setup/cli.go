package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/oncokb/oncokb-transcript-sub003/internal/database"
	"github.com/oncokb/oncokb-transcript-sub003/internal/drugs"
)

// Migrator is the schema migration surface the CLI drives.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context, steps int) error
	Version() (database.MigrationVersion, error)
}

// CLI runs maintenance commands for the drug registry and the
// submissions schema.
type CLI struct {
	store    drugs.Store
	migrator Migrator
	out      io.Writer
}

// CLIOption configures a CLI.
type CLIOption func(*CLI)

// WithDrugStore enables the drugs commands.
func WithDrugStore(store drugs.Store) CLIOption {
	return func(c *CLI) { c.store = store }
}

// WithMigrator enables the migrate commands.
func WithMigrator(m Migrator) CLIOption {
	return func(c *CLI) { c.migrator = m }
}

// NewCLI creates a CLI writing its report to out.
func NewCLI(out io.Writer, opts ...CLIOption) *CLI {
	c := &CLI{out: out}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one command, e.g. "drugs import <file>" or "migrate up".
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "drugs":
		return c.runDrugs(ctx, args[1:])
	case "migrate":
		return c.runMigrate(ctx, args[1:])
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		return c.unknown(args[0])
	}
}

func (c *CLI) unknown(cmd string) error {
	fmt.Fprintf(c.out, "Unknown command: %s\n", cmd)
	c.showHelp()
	return fmt.Errorf("unknown command %q", cmd)
}

func (c *CLI) showHelp() error {
	help := `
Evidence resolver maintenance

Usage:
  server <group> <command> [options]

Drug registry:
  drugs import <file>   Import drugs from a JSON export, skipping known uuids
  drugs export [file]   Export all drugs as JSON (stdout when file is omitted or "-")
  drugs count           Print the number of registered drugs

Submissions schema:
  migrate up            Apply pending migrations
  migrate down [n]      Roll back n migrations (default 1)
  migrate version       Print the current schema version

  help                  Show this help message
`
	fmt.Fprint(c.out, help)
	return nil
}

func (c *CLI) runDrugs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}
	if c.store == nil {
		return fmt.Errorf("drug store is not configured")
	}

	switch args[0] {
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("import requires a file argument")
		}
		return c.importFile(ctx, args[1])
	case "export":
		path := "-"
		if len(args) > 1 {
			path = args[1]
		}
		return c.exportFile(ctx, path)
	case "count":
		n, err := c.store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%d drugs\n", n)
		return nil
	default:
		return c.unknown("drugs " + args[0])
	}
}

func (c *CLI) importFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	imported, skipped, err := c.store.ImportJSON(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Imported %d drugs (%d skipped)\n", imported, skipped)
	return nil
}

func (c *CLI) exportFile(ctx context.Context, path string) error {
	if path == "-" {
		return c.store.ExportJSON(ctx, c.out)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := c.store.ExportJSON(ctx, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Exported drugs to %s\n", path)
	return nil
}

func (c *CLI) runMigrate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}
	if c.migrator == nil {
		return fmt.Errorf("database is not configured")
	}

	switch args[0] {
	case "up":
		if err := c.migrator.Up(ctx); err != nil {
			return err
		}
		return c.printVersion()
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid rollback steps %q", args[1])
			}
			steps = n
		}
		if err := c.migrator.Down(ctx, steps); err != nil {
			return err
		}
		return c.printVersion()
	case "version":
		return c.printVersion()
	default:
		return c.unknown("migrate " + args[0])
	}
}

func (c *CLI) printVersion() error {
	v, err := c.migrator.Version()
	if err != nil {
		return err
	}
	switch {
	case !v.Applied:
		fmt.Fprintln(c.out, "Schema version: none")
	case v.Dirty:
		fmt.Fprintf(c.out, "Schema version: %d (dirty)\n", v.Version)
	default:
		fmt.Fprintf(c.out, "Schema version: %d\n", v.Version)
	}
	return nil
}
