package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/itsharshx/niftypool/internal/history"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent join attempts across runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			failedOnly, _ := cmd.Flags().GetBool("failed")

			store, err := history.Open(historyPath(settings))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit, failedOnly)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				color.Yellowln("No join attempts recorded yet.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"When", "Session", "Link", "Group", "Members", "Outcome"})
			table.SetAutoFormatHeaders(true)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetBorder(false)
			for _, e := range entries {
				outcome := "joined"
				if e.Success && e.Error != "" {
					outcome = e.Error
				} else if !e.Success {
					outcome = "failed: " + e.Error
				}
				members := ""
				if e.MemberCount > 0 {
					members = fmt.Sprint(e.MemberCount)
				}
				table.Append([]string{
					e.JoinTime.Local().Format("2006-01-02 15:04"),
					e.Session,
					e.Link,
					e.GroupName,
					members,
					outcome,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int("limit", 50, "Maximum number of attempts to show")
	cmd.Flags().Bool("failed", false, "Show only failed attempts")
	return cmd
}
