package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
)

var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Write and read daily reflections",
	Long: `Record the reflection of a trading day: mood, a summary and insight
blocks with optional image URLs.

Blocks are given as "Title|Content|url1,url2".

Examples:
  tradejournal reflect set --account ACC-1 --mood calm --summary "Patient day" \
      --block "Open|Waited for the pullback|https://img.example.com/open.png"
  tradejournal reflect show --day 2024-05-14 --account ACC-1`,
}

var reflectSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace a day's reflection",
	Args:  cobra.NoArgs,
	RunE:  runReflectSet,
}

var reflectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a day's reflection",
	Args:  cobra.NoArgs,
	RunE:  runReflectShow,
}

var (
	reflectDay     string
	reflectAccount string
	reflectMood    string
	reflectSummary string
	reflectBlocks  []string
)

func init() {
	rootCmd.AddCommand(reflectCmd)
	reflectCmd.AddCommand(reflectSetCmd, reflectShowCmd)

	reflectCmd.PersistentFlags().StringVar(&reflectDay, "day", "", "day as YYYY-MM-DD (default today)")
	reflectCmd.PersistentFlags().StringVar(&reflectAccount, "account", "", "account ID")

	reflectSetCmd.Flags().StringVar(&reflectMood, "mood", "", "overall mood")
	reflectSetCmd.Flags().StringVar(&reflectSummary, "summary", "", "summary of the day")
	reflectSetCmd.Flags().StringArrayVar(&reflectBlocks, "block", nil, `insight block "Title|Content|url1,url2" (repeatable)`)
}

// parseBlock reads "Title|Content|url1,url2"; content and images are optional.
func parseBlock(s string) (journal.Block, error) {
	parts := strings.SplitN(s, "|", 3)
	b := journal.Block{Title: strings.TrimSpace(parts[0])}
	if b.Title == "" {
		return b, errors.New("block title is required")
	}
	if len(parts) > 1 {
		b.Content = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		for _, u := range strings.Split(parts[2], ",") {
			if u = strings.TrimSpace(u); u != "" {
				b.Images = append(b.Images, u)
			}
		}
	}
	return b, nil
}

func runReflectSet(cmd *cobra.Command, args []string) error {
	r := journal.Reflection{
		AccountID: reflectAccount,
		Day:       dayOrToday(reflectDay),
		Mood:      reflectMood,
		Summary:   reflectSummary,
	}
	for _, s := range reflectBlocks {
		b, err := parseBlock(s)
		if err != nil {
			return err
		}
		r.Blocks = append(r.Blocks, b)
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	saved, err := j.SaveReflection(cmd.Context(), r)
	if err != nil {
		return fmt.Errorf("save reflection: %w", err)
	}
	fmt.Printf("✓ Saved reflection for %s (%d blocks)\n", saved.Day, len(saved.Blocks))
	return nil
}

func runReflectShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	r, err := j.GetReflection(cmd.Context(), reflectAccount, dayOrToday(reflectDay))
	if err != nil {
		return fmt.Errorf("get reflection: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
