package main

import (
	"os"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/itsharshx/niftypool/internal/account"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage saved accounts",
	}
	cmd.AddCommand(accountsListCmd(), accountsDeleteCmd())
	return cmd
}

func accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			accounts, err := account.NewStore(credentialsPath(settings)).List()
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				color.Yellowln("No saved accounts found.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Session", "Name", "Username", "Last Used"})
			table.SetAutoFormatHeaders(true)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetBorder(false)
			for _, acct := range accounts {
				name := acct.FirstName
				if name == "" {
					name = "Unknown"
				}
				username := "None"
				if acct.Username != "" {
					username = "@" + acct.Username
				}
				lastUsed := "Never"
				if acct.LastUsed != nil {
					lastUsed = acct.LastUsed.Format("2006-01-02 15:04")
				}
				table.Append([]string{acct.SessionName, name, username, lastUsed})
			}
			table.Render()
			return nil
		},
	}
}

func accountsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete local data for a saved account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			if err := account.NewStore(credentialsPath(settings)).Delete(args[0]); err != nil {
				return err
			}
			color.Greenln("Deleted local data for account:", args[0])
			return nil
		},
	}
}
