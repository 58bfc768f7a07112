package cmd

import (
	"fmt"
	"io"

	"github.com/jsphweid/cpword/db"
	"github.com/jsphweid/cpword/util"
	"github.com/spf13/cobra"
)

var reportFiles bool

func init() {
	reportCmd.Flags().BoolVar(&reportFiles, "files", false, "List every file of each run")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarizes generate runs from the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := db.Open(activeCfg.Paths.Catalog)
		if err != nil {
			return err
		}
		defer catalog.Close()
		return report(cmd, catalog)
	},
}

func report(cmd *cobra.Command, catalog *db.Catalog) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	runs, err := catalog.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}

	for _, run := range runs {
		counts, err := catalog.StatusCounts(ctx, run.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  %-10s  %s\n", run.Created.UTC().Format("2006-01-02 15:04:05"), run.Split, run.ID)
		fmt.Fprintf(w, "  artifact:   %s\n", run.Artifact)
		fmt.Fprintf(w, "  shape:      [%d, %d, 4] (group size %d)\n", run.Rows, run.Length, run.GroupSize)
		printCounts(w, counts)

		if !reportFiles {
			continue
		}
		files, err := catalog.Files(ctx, run.ID)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(w, "    %-7s %s words=%d chunks=%d dropped=%d %s\n",
				f.Status, f.Path, f.Words, f.Chunks, f.Dropped, f.Error)
		}
	}
	return nil
}

func printCounts(w io.Writer, counts map[string]int) {
	values := make([]int, 0, len(counts))
	for _, n := range counts {
		values = append(values, n)
	}
	fmt.Fprintf(w, "  files:      %d", util.Sum(values))
	for _, status := range util.GetKeysSorted(counts) {
		fmt.Fprintf(w, "  %s=%d", status, counts[status])
	}
	fmt.Fprintln(w)
}
