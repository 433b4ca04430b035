package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studio/internal/account"
	"studio/internal/adapter/repo"
	"studio/internal/adapter/supabase"
	"studio/internal/domain"
	"studio/internal/infra"
)

func newCreditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect and adjust credit balances",
	}

	var (
		userID  string
		amount  int
		backend string
	)
	grant := &cobra.Command{
		Use:   "grant",
		Short: "Add credits to a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if amount <= 0 {
				return fmt.Errorf("--amount must be positive")
			}
			profiles, closeStore, err := openProfiles(cmd, backend)
			if err != nil {
				return err
			}
			defer closeStore()

			logger := cliLogger("credits")
			gw := account.NewGateway(nil, profiles, account.Options{Logger: &logger})
			balance, err := gw.PurchaseCredits(cmd.Context(), userID, amount)
			if err != nil {
				return fmt.Errorf("failed to grant credits: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s now has %d credits\n", userID, balance)
			return nil
		},
	}
	grant.Flags().StringVar(&userID, "user", "", "profile id")
	grant.Flags().IntVar(&amount, "amount", 0, "credits to add")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print a profile's balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, closeStore, err := openProfiles(cmd, backend)
			if err != nil {
				return err
			}
			defer closeStore()
			acct, err := profiles.Get(cmd.Context(), strings.TrimSpace(userID))
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", acct.ID, acct.Email, acct.Credits)
			return nil
		},
	}
	show.Flags().StringVar(&userID, "user", "", "profile id")

	cmd.PersistentFlags().StringVar(&backend, "backend", "", "postgres or supabase (defaults to ACCOUNT_BACKEND)")
	cmd.AddCommand(grant, show)
	return cmd
}

func openProfiles(cmd *cobra.Command, backend string) (domain.ProfileStore, func(), error) {
	if backend == "" {
		backend = strings.ToLower(os.Getenv("ACCOUNT_BACKEND"))
	}
	switch backend {
	case infra.BackendSupabase:
		client, err := supabase.NewClient(os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_KEY"))
		if err != nil {
			return nil, nil, err
		}
		return supabase.NewProfileStore(client), func() {}, nil
	case "", infra.BackendPostgres:
		runner, closeDB, err := openRunner(cmd.Context(), "credits")
		if err != nil {
			return nil, nil, err
		}
		return repo.NewProfileRepository(runner), closeDB, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", backend)
}
