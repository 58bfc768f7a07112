package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jsphweid/cpword/db"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	ctx := context.Background()
	catalog, err := db.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer catalog.Close()

	run := db.Run{ID: "run-1", Split: "train", Artifact: "/data/train/train.safetensors", Rows: 8, Length: 512, GroupSize: 4, Created: time.Unix(0, 0)}
	require.NoError(t, catalog.RecordRun(ctx, run, []db.FileRecord{
		{Path: "a.mid", Status: db.StatusOK, Words: 40, Chunks: 1},
		{Path: "b.mid", Status: db.StatusOK, Words: 20, Chunks: 1},
		{Path: "c.mid", Status: db.StatusFailed, Error: "file parse error"},
	}))

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	cmd.SetOut(&out)
	require.NoError(t, report(cmd, catalog))

	assert := assert.New(t)
	assert.Contains(out.String(), "1970-01-01 00:00:00  train       run-1")
	assert.Contains(out.String(), "shape:      [8, 512, 4] (group size 4)")
	assert.Contains(out.String(), "files:      3  failed=1  ok=2")
}

func TestReportEmpty(t *testing.T) {
	catalog, err := db.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer catalog.Close()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	require.NoError(t, report(cmd, catalog))
	assert.Equal(t, "no runs recorded\n", out.String())
}
