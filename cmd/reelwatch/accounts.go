package main

import (
	"fmt"
	"strconv"

	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/spf13/cobra"
)

func openDatabase() (*models.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return models.NewDatabase(cfg.DatabaseFile)
}

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage tracked accounts",
	}
	cmd.AddCommand(newAccountsListCommand())
	cmd.AddCommand(newAccountsSeedCommand())
	cmd.AddCommand(newAccountsToggleCommand())
	return cmd
}

func newAccountsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			accounts, err := db.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts tracked")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderAccounts(accounts))
			return nil
		},
	}
}

func renderAccounts(accounts []models.SocialAccount) string {
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		active := "yes"
		if !a.Active {
			active = "no"
		}
		lastChecked := "-"
		if a.LastCheckedAt != nil {
			lastChecked = a.LastCheckedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(a.ID), 10),
			string(a.Platform),
			a.Username,
			a.Name,
			string(a.AccountType),
			string(a.Language),
			active,
			lastChecked,
		})
	}
	headers := []string{"ID", "Platform", "Username", "Name", "Type", "Language", "Active", "Last checked"}
	return renderTable(headers, rows, []columnAlignment{alignRight})
}

func newAccountsSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default accounts that are not tracked yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			inserted, err := db.SeedAccounts(cmd.Context(), models.DefaultAccounts())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d accounts\n", inserted)
			return nil
		},
	}
}

func newAccountsToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate or deactivate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			account, err := db.ToggleAccount(cmd.Context(), uint(id))
			if err != nil {
				return err
			}
			state := "inactive"
			if account.Active {
				state = "active"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s is now %s\n", account.Platform, account.Username, state)
			return nil
		},
	}
}
