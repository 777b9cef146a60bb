package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moasq/bbtool/internal/terminal"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show applied restructures",
	Long:  "Lists the restructures recorded in the journal, most recent last.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyClear {
			if err := journalStore().Clear(); err != nil {
				return err
			}
			terminal.Success("Journal cleared")
			return nil
		}

		records, err := journalStore().Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			terminal.Info("No restructures recorded yet.")
			return nil
		}

		terminal.Header("Restructure History")
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.GroupName,
				joinGroups(r.CreatedGroups),
				joinGroups(r.MergedGroups),
				fmt.Sprintf("%d", r.Relocated),
				r.Manifest,
			})
		}
		terminal.Println(terminal.RenderTable(
			[]string{"Date", "Group", "Created", "Merged", "Files", "Manifest"},
			rows,
			[]terminal.Alignment{terminal.AlignLeft, terminal.AlignLeft, terminal.AlignLeft, terminal.AlignLeft, terminal.AlignRight},
		))
		return nil
	},
}

func joinGroups(groups map[string]string) string {
	if len(groups) == 0 {
		return "-"
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of records to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all recorded restructures")
}
