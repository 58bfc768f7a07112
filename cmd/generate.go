package cmd

import (
	"fmt"
	"log/slog"

	"github.com/jsphweid/cpword/artifact"
	"github.com/jsphweid/cpword/dataset"
	"github.com/jsphweid/cpword/db"
	"github.com/jsphweid/cpword/file"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [split...]",
	Short: "Builds padded word batches for dataset splits",
	Long: `Builds one padded word batch per split (train, validation, evaluation)
from <dataset-root>/midi_files/<split>/midi and stores it as
<split>/<split>.safetensors. With no arguments every split is built.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		splits := args
		if len(splits) == 0 {
			splits = file.Splits
		}
		for _, split := range splits {
			if err := file.CheckSplit(split); err != nil {
				return err
			}
		}

		store, err := artifact.OpenStore(activeCfg.StoreLocation(), artifact.S3Options{
			Region:   activeCfg.Storage.S3Region,
			Endpoint: activeCfg.Storage.S3Endpoint,
		})
		if err != nil {
			return err
		}

		var catalog *db.Catalog
		if activeCfg.Paths.Catalog != "" {
			catalog, err = db.Open(activeCfg.Paths.Catalog)
			if err != nil {
				return err
			}
			defer catalog.Close()
		}

		builder := &dataset.Builder{
			Config:  activeCfg,
			Vocab:   vocab,
			Store:   store,
			Catalog: catalog,
			Logger:  slog.Default(),
		}
		for _, split := range splits {
			res, err := builder.BuildSplit(cmd.Context(), split)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows of %d words from %d/%d files -> %s\n",
				res.Split, res.Rows, res.Length, res.OK, res.Files, res.Location)
		}
		return nil
	},
}
