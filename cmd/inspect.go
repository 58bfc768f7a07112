package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/cpword/artifact"
	"github.com/jsphweid/cpword/chunk"
	"github.com/jsphweid/cpword/midi"
	"github.com/jsphweid/cpword/model"
	"github.com/jsphweid/cpword/sample"
	"github.com/jsphweid/cpword/word"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	renderPath string
	showRows   int
)

func init() {
	inspectCmd.Flags().StringVar(&renderPath, "render", "", "Write the words back out as a 4/4 MIDI preview")
	inspectCmd.Flags().IntVar(&showRows, "rows", 1, "Rows of a batch to print")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid|file.safetensors>",
	Short: "Prints the words of a MIDI file or the contents of a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if strings.EqualFold(filepath.Ext(path), ".safetensors") {
			return inspectBatch(cmd.OutOrStdout(), path)
		}
		return inspectMidi(cmd.OutOrStdout(), path)
	},
}

func inspectMidi(w io.Writer, path string) error {
	score, err := midi.ReadScore(path, activeCfg.Pipeline.Track)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, midi.Describe(score))

	words, err := word.Assemble(score, vocab)
	if err != nil {
		return err
	}
	chunks, stats, err := chunk.SplitWithStats(words, activeCfg.Pipeline.MaxLength)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "words=%d chunks=%d dropped=%d\n", len(words), stats.Chunks, stats.Dropped)
	for i, c := range chunks {
		fmt.Fprintf(w, "chunk %d (%d words)\n", i, len(c))
		printWords(w, c)
	}

	if renderPath == "" {
		return nil
	}
	if err := sample.Render(words, score.Resolution, vocab).WriteFile(renderPath); err != nil {
		return errors.Wrapf(err, "writing %s", renderPath)
	}
	fmt.Fprintf(w, "wrote %s\n", renderPath)
	return nil
}

func inspectBatch(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	b, meta, err := artifact.Decode(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "shape=%v split=%s run_id=%s group_size=%d pad=%v\n",
		b.Shape(), meta.Split, meta.RunID, meta.GroupSize, meta.PadWord)

	pad := model.PadWord(vocab)
	for i := 0; i < b.N && i < showRows; i++ {
		row := b.Row(i)
		n := len(row)
		for n > 0 && row[n-1] == pad {
			n--
		}
		fmt.Fprintf(w, "row %d (%d words)\n", i, n)
		printWords(w, row[:n])
	}
	return nil
}

func printWords(w io.Writer, seq model.Sequence) {
	for _, wd := range seq {
		fmt.Fprintf(w, "  %v\n", wd)
	}
}
