package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndReport(t *testing.T) {
	ctx := context.Background()
	c, err := Open(filepath.Join(t.TempDir(), "catalog", "runs.db"))
	require.NoError(t, err)
	defer c.Close()

	older := Run{ID: "a", Split: "train", Artifact: "x", Rows: 8, Length: 512, GroupSize: 4, Created: time.Unix(100, 0)}
	newer := Run{ID: "b", Split: "validation", Artifact: "y", Rows: 4, Length: 512, GroupSize: 4, Created: time.Unix(200, 0)}
	files := []FileRecord{
		{Path: "2.mid", Status: StatusOK, Words: 30, Chunks: 1},
		{Path: "1.mid", Status: StatusFailed, Error: "file parse error"},
		{Path: "3.mid", Status: StatusEmpty},
		{Path: "4.mid", Status: StatusOK, Words: 700, Chunks: 2, Dropped: 3},
	}
	require.NoError(t, c.RecordRun(ctx, older, files))
	require.NoError(t, c.RecordRun(ctx, newer, nil))

	runs, err := c.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert := assert.New(t)
	assert.Equal(newer, runs[0])
	assert.Equal(older, runs[1])

	counts, err := c.StatusCounts(ctx, "a")
	require.NoError(t, err)
	assert.Equal(map[string]int{StatusOK: 2, StatusFailed: 1, StatusEmpty: 1}, counts)

	got, err := c.Files(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal("1.mid", got[0].Path)
	assert.Equal(files[3], got[3])

	counts, err = c.StatusCounts(ctx, "b")
	require.NoError(t, err)
	assert.Empty(counts)
}
