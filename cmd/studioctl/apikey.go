package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studio/internal/infra/credentials"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the server-wide Gemini API key",
	}

	var key, setBy string
	set := &cobra.Command{
		Use:   "set",
		Short: "Store the Gemini key used when a session has none",
		RunE: func(cmd *cobra.Command, args []string) error {
			key = strings.TrimSpace(key)
			if key == "" {
				key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
			}
			if key == "" {
				return fmt.Errorf("GEMINI API key is required via --key or GEMINI_API_KEY")
			}

			runner, closeDB, err := openRunner(cmd.Context(), "apikey")
			if err != nil {
				return err
			}
			defer closeDB()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := credentials.NewStore(runner).SetGeminiAPIKey(ctx, key, setBy); err != nil {
				return fmt.Errorf("failed to persist gemini api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GEMINI API key stored successfully")
			return nil
		},
	}
	set.Flags().StringVar(&key, "key", "", "API key (falls back to GEMINI_API_KEY)")
	set.Flags().StringVar(&setBy, "by", os.Getenv("USER"), "operator recorded with the key")

	cmd.AddCommand(set)
	return cmd
}
