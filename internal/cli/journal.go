package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/hubsession/internal/journal"
)

// JournalOptions holds flags for the journal commands.
type JournalOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// JournalEntry is one outcome as shown by journal list.
type JournalEntry struct {
	Seq           int64     `json:"seq"`
	Kind          string    `json:"kind"`
	Device        string    `json:"device"`
	MessageID     string    `json:"message_id,omitempty"`
	ItemID        uint32    `json:"item_id,omitempty"`
	Result        string    `json:"result"`
	Status        int       `json:"status,omitempty"`
	PayloadSize   int64     `json:"payload_size"`
	PayloadDigest string    `json:"payload_digest,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// JournalSummary counts outcomes by kind and result.
type JournalSummary struct {
	Counts []JournalCount `json:"counts"`
	Total  int64          `json:"total"`
}

// JournalCount is one row of a JournalSummary.
type JournalCount struct {
	Kind   string `json:"kind"`
	Result string `json:"result"`
	Count  int64  `json:"count"`
}

// NewJournalCommand creates the journal command and its subcommands.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the outcome journal",
		Long: `Inspect the SQLite journal of telemetry confirmations and reported-state
outcomes written by sessions that run with --journal.

Examples:
  hubsession journal list --db ./outcomes.db --limit 20
  hubsession journal summary --db ./outcomes.db --format json`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the journal database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List recent outcomes, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalList(opts, cmd)
		},
	}
	list.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "number of outcomes to show; 0 shows all")

	summary := &cobra.Command{
		Use:           "summary",
		Short:         "Count outcomes by kind and result",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalSummary(opts, cmd)
		},
	}

	cmd.AddCommand(list, summary)
	return cmd
}

func openJournal(opts *JournalOptions) (*journal.Journal, error) {
	if _, err := os.Stat(opts.Database); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	j, err := journal.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}

func runJournalList(opts *JournalOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	j, err := openJournal(opts)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.List(context.Background(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	rows := make([]JournalEntry, len(entries))
	for i, e := range entries {
		rows[i] = JournalEntry{
			Seq:           e.Seq,
			Kind:          string(e.Kind),
			Device:        deviceLabel(e.DeviceID, e.ModuleID),
			MessageID:     e.MessageID,
			ItemID:        e.ItemID,
			Result:        e.Result,
			Status:        e.Status,
			PayloadSize:   e.PayloadSize,
			PayloadDigest: e.PayloadDigest,
			RecordedAt:    e.At,
		}
	}

	now := opts.now().Now()
	return out.Emit(rows, func(w io.Writer) {
		if len(rows) == 0 {
			fmt.Fprintln(w, "Journal is empty.")
			return
		}
		for _, r := range rows {
			ref := r.MessageID
			if r.Kind != "telemetry" {
				ref = fmt.Sprintf("item %d status %d", r.ItemID, r.Status)
			}
			fmt.Fprintf(w, "%4d  %-14s %-16s %-28s %8s  %s\n",
				r.Seq, r.Kind, r.Result, ref,
				humanize.Bytes(uint64(r.PayloadSize)),
				humanize.RelTime(r.RecordedAt, now, "ago", "from now"))
		}
	})
}

func runJournalSummary(opts *JournalOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	j, err := openJournal(opts)
	if err != nil {
		return err
	}
	defer j.Close()

	counts, err := j.Summary(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize journal", err)
	}

	summary := JournalSummary{Counts: make([]JournalCount, len(counts))}
	for i, c := range counts {
		summary.Counts[i] = JournalCount{Kind: string(c.Kind), Result: c.Result, Count: c.Count}
		summary.Total += c.Count
	}

	return out.Emit(summary, func(w io.Writer) {
		for _, c := range summary.Counts {
			fmt.Fprintf(w, "%-14s %-16s %s\n", c.Kind, c.Result, humanize.Comma(c.Count))
		}
		fmt.Fprintf(w, "Total: %s\n", humanize.Comma(summary.Total))
	})
}
