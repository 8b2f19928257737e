package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Add and list notes for a day",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Add a note",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNoteAdd,
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a day's notes",
	Args:  cobra.NoArgs,
	RunE:  runNoteList,
}

var (
	noteDay     string
	noteAccount string
)

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd)

	noteCmd.PersistentFlags().StringVar(&noteDay, "day", "", "day as YYYY-MM-DD (default today)")
	noteCmd.PersistentFlags().StringVar(&noteAccount, "account", "", "account ID")
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	n, err := j.AddNote(cmd.Context(), journal.Note{
		AccountID: noteAccount,
		Day:       dayOrToday(noteDay),
		Body:      strings.Join(args, " "),
	})
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	fmt.Printf("✓ Added note %s to %s\n", n.ID, n.Day)
	return nil
}

func runNoteList(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	day := dayOrToday(noteDay)
	notes, err := j.ListNotes(cmd.Context(), noteAccount, day)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	fmt.Printf("* Notes %s\n", day)
	for _, n := range notes {
		fmt.Printf("- [%s] %s\n", n.CreatedAt.In(location()).Format("15:04"), n.Body)
	}
	return nil
}
