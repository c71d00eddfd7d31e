/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/vifgate/pkg/journal"
)

// journalCmd represents the journal command
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect recorded venue exchanges",
}

// journalListCmd represents the journal list command
var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent exchanges, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		j, err := openJournal()
		if err != nil {
			return err
		}
		entries, err := j.List(limit)
		if err != nil {
			return err
		}
		return writeEntries(cmd.OutOrStdout(), entries)
	},
}

// journalShowCmd represents the journal show command
var journalShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one exchange with its request and response text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		entry, err := j.Get(args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), entry)
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalListCmd.Flags().IntP("limit", "n", 20, "Number of entries to list")
}

func openJournal() (*journal.Journal, error) {
	j, err := container.Journal()
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, errors.New("the journal is disabled in this configuration")
	}
	return j, nil
}

func writeEntries(w io.Writer, entries []journal.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tREQUEST\tPACKET\tDURATION\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.ID,
			e.Started.Local().Format(time.DateTime),
			e.RequestCode,
			e.PacketID,
			e.Duration.Round(time.Millisecond),
			e.Error)
	}
	return tw.Flush()
}
