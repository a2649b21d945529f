package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/blacktop/imagine/internal/download"
	"github.com/blacktop/imagine/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear past generations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past generations, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()
		printHistory(cmd.OutOrStdout(), a.store.Records())
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all past generations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()
		n := a.store.Len()
		if err := a.store.Clear(); err != nil {
			return err
		}
		logger.Info("History cleared", "removed", n)
		return nil
	},
}

var historySaveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Save a past generation's image to disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()
		rec, ok := a.store.Get(id)
		if !ok {
			return fmt.Errorf("no history record with id %d", id)
		}
		path, err := download.Save(cfg.OutputFolder, rec, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Image saved: %s\n", path)
		return nil
	},
}

func printHistory(w io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No history yet.")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%d  %s\n", rec.ID, historyLine(rec))
	}
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyClearCmd, historySaveCmd)
	rootCmd.AddCommand(historyCmd)
}
