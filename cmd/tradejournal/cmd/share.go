package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/share"
	"github.com/rustyeddy/tradejournal/share/firebase"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Publish read-only snapshots of a trading day",
}

var shareExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a day's reflection, notes, trades and calendar",
	Long: `Export a snapshot of one day. Referenced images are copied first; an
image that cannot be copied keeps its original URL and is listed as degraded.
The snapshot documents are then written in one batch.

Examples:
  tradejournal share export --day 2024-05-14 --account ACC-1`,
	Args: cobra.NoArgs,
	RunE: runShareExport,
}

var shareShowCmd = &cobra.Command{
	Use:   "show <share-id>",
	Short: "Print a snapshot written by the file backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareShow,
}

var (
	shareDay     string
	shareAccount string
)

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.AddCommand(shareExportCmd, shareShowCmd)

	shareExportCmd.Flags().StringVar(&shareDay, "day", "", "day as YYYY-MM-DD (default today)")
	shareExportCmd.Flags().StringVar(&shareAccount, "account", "", "account ID")
}

// newShareBuilder wires the configured share backend to j. The returned
// func releases backend clients.
func newShareBuilder(ctx context.Context, j share.Source) (*share.Builder, func(), error) {
	opts := cfg.ShareOptions()

	switch cfg.Share.Backend {
	case "firebase":
		app, err := firebase.NewApp(ctx, firebase.Config{
			ProjectID:       cfg.Share.ProjectID,
			StorageBucket:   cfg.Share.Bucket,
			CredentialsPath: cfg.Share.CredentialsPath,
		}.WithEnv())
		if err != nil {
			return nil, nil, err
		}
		store, err := firebase.NewFirestoreStore(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		images, err := firebase.NewStorageCopier(ctx, app, cfg.Share.Bucket)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return share.NewBuilder(j, images, store, opts...), func() { store.Close() }, nil

	default:
		images := &share.DirCopier{
			Dir:    cfg.Share.OutDir,
			Client: &http.Client{Timeout: 30 * time.Second},
		}
		return share.NewBuilder(j, images, share.NewFileStore(cfg.Share.OutDir), opts...), func() {}, nil
	}
}

func runShareExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	day, err := time.ParseInLocation(journal.DayLayout, dayOrToday(shareDay), location())
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	b, done, err := newShareBuilder(ctx, j)
	if err != nil {
		return fmt.Errorf("share backend: %w", err)
	}
	defer done()

	res, err := b.Export(ctx, day, shareAccount)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Shared %s as %s\n", res.Snapshot.Date, res.ShareID)
	fmt.Printf("  Trades: %d  Blocks: %d  Notes: %d\n",
		len(res.Snapshot.Trades), len(res.Snapshot.Blocks), len(res.Snapshot.Notes))
	if len(res.Degraded) > 0 {
		fmt.Printf("  %d image(s) kept their original URL:\n", len(res.Degraded))
		for _, d := range res.Degraded {
			fmt.Printf("  - %s (%s)\n", d.URL, d.Err)
		}
	}
	return nil
}

func runShareShow(cmd *cobra.Command, args []string) error {
	if cfg.Share.Backend != "file" {
		return fmt.Errorf("share show reads the file backend only (backend is %q)", cfg.Share.Backend)
	}

	doc, err := share.NewFileStore(cfg.Share.OutDir).Load(share.SharesCollection, args[0])
	if err != nil {
		return fmt.Errorf("load share %s: %w", args[0], err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
