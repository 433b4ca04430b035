// Command studioctl runs operator tasks against the studio backend: storing
// the server-wide Gemini key, granting credits, creating the schema and
// composing or running a generation from local files.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"studio/internal/infra"
)

var appEnv string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studioctl",
		Short:         "Operator tools for the product photo studio",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVar(&appEnv, "env", "cli", "logger environment (development prints human readable logs)")
	root.AddCommand(newAPIKeyCmd(), newCreditsCmd(), newDBCmd(), newPromptCmd(), newGenerateCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliLogger(name string) infra.Logger {
	return infra.NewLogger(appEnv).With().Str("cmd", name).Logger()
}

// openRunner connects to DATABASE_URL.
func openRunner(ctx context.Context, name string) (*infra.SQLRunner, func(), error) {
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return infra.NewSQLRunner(pool, cliLogger(name)), pool.Close, nil
}
