package restructure

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/moasq/bbtool/internal/terminal"
)

// WriteReport prints the plan. After an apply the group column shows the
// assigned ids; in a dry run new groups are marked "new".
func WriteReport(w io.Writer, plan *Plan) {
	fmt.Fprintf(w, "Found %d items in group %s [%s]\n", len(plan.Entries), plan.GroupName, plan.GroupID)
	if plan.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d items without a label\n", plan.Skipped)
	}
	if len(plan.Malformed) > 0 {
		fmt.Fprintf(w, "\nWarning: %d items have an empty prefix or file name and block --apply:\n", len(plan.Malformed))
		for _, m := range plan.Malformed {
			fmt.Fprintf(w, "  - %s [%s]\n", m.Label, m.ID)
		}
	}

	constants := append([]Entry(nil), plan.Constants...)
	sort.Slice(constants, func(i, j int) bool { return constants[i].ID < constants[j].ID })

	fmt.Fprintf(w, "\nConstants files (%d):\n", len(constants))
	if len(constants) > 0 {
		rows := make([][]string, 0, len(constants))
		for _, c := range constants {
			rows = append(rows, []string{c.Label, c.ID})
		}
		fmt.Fprintln(w, terminal.RenderTable([]string{"File", "ID"}, rows, nil))
	}

	fmt.Fprintf(w, "\nSubdirectories (%d):\n", len(plan.Buckets))
	if len(plan.Buckets) > 0 {
		var rows [][]string
		for _, b := range plan.Buckets {
			group := b.GroupID
			switch {
			case b.Existing:
				group += " (existing)"
			case group == "":
				group = "new"
			}
			for i, r := range b.Entries {
				dir := ""
				if i == 0 {
					dir = b.Prefix + Separator
				}
				rows = append(rows, []string{dir, r.Label, r.Name, r.ID, group})
			}
		}
		fmt.Fprintln(w, terminal.RenderTable([]string{"Directory", "File", "New label", "ID", "Group"}, rows, nil))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  - Constants files: %d\n", len(plan.Constants))
	fmt.Fprintf(w, "  - Subdirectories to create: %d\n", len(plan.NewGroups()))
	if merged := len(plan.Buckets) - len(plan.NewGroups()); merged > 0 {
		fmt.Fprintf(w, "  - Subdirectories to merge into: %d\n", merged)
	}
	fmt.Fprintf(w, "  - Total relocated files: %d\n", plan.Relocated())
	fmt.Fprintln(w, strings.Repeat("=", 70))
}
