package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studio/internal/adapter/supabase"
	"studio/internal/sqlinline"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database setup",
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, closeDB, err := openRunner(cmd.Context(), "db")
			if err != nil {
				return err
			}
			defer closeDB()
			if _, err := runner.Exec(cmd.Context(), sqlinline.QCreateSchema); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}

	supabaseSQL := &cobra.Command{
		Use:   "supabase-sql",
		Short: "Print the SQL function the Supabase backend calls for balance changes",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), supabase.AdjustCreditsFunctionSQL)
		},
	}

	cmd.AddCommand(migrate, supabaseSQL)
	return cmd
}
