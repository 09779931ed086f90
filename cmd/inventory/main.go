/*
main.go - Application entry point

PURPOSE:
  Loads configuration and runs the inventory CLI.

STARTUP SEQUENCE:
  1. Load .env (if present) into the environment
  2. Parse INVENTORY_* variables
  3. Execute the cobra command tree
  4. Exit with the command's exit code

EXAMPLES:
  # Run the demonstration session against ./inventory.db
  ./inventory

  # Sell from a specific database
  ./inventory sell "MacBook Pro" 2 85000 --db ./data/shop.db

  # Start the HTTP API
  ./inventory serve --port 3000

ENVIRONMENT:
  See config/config.go. Flags override the environment.

SEE ALSO:
  - cli/root.go: Command tree
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/warp/inventory-ledger/cli"
	"github.com/warp/inventory-ledger/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}

	cmd := cli.NewRootCommand(cfg)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
