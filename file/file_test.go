package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestGatherAllMidiPaths(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.mid"))
	touch(t, filepath.Join(root, "a.MIDI"))
	touch(t, filepath.Join(root, "nested", "deeper", "c.mid"))
	touch(t, filepath.Join(root, "notes.txt"))

	paths, err := GatherAllMidiPaths(root, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.MIDI"),
		filepath.Join(root, "b.mid"),
		filepath.Join(root, "nested", "deeper", "c.mid"),
	}, paths)

	paths, err = GatherAllMidiPaths(root, 2)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	_, err = GatherAllMidiPaths(root, -1)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestGatherMissingRoot(t *testing.T) {
	_, err := GatherAllMidiPaths(filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, err)
}

func TestParentDir(t *testing.T) {
	assert := assert.New(t)

	p, err := ParentDir("/a/b/c", 0)
	assert.NoError(err)
	assert.Equal("/a/b/c", p)

	p, err = ParentDir("/a/b/c", 2)
	assert.NoError(err)
	assert.Equal("/a", p)

	_, err = ParentDir("/a/b/c", -1)
	assert.True(errors.Is(err, model.ErrConfiguration))
}

func TestLayout(t *testing.T) {
	l := Layout{Root: "/data"}
	assert.Equal(t, "/data/midi_files/train/midi", l.MidiDir(Train))
	assert.Equal(t, "/data/midi_files", l.ArtifactRoot())
	assert.Equal(t, "evaluation/evaluation.safetensors", ArtifactKey(Evaluation))
}

func TestCheckSplit(t *testing.T) {
	for _, s := range Splits {
		assert.NoError(t, CheckSplit(s))
	}
	assert.True(t, errors.Is(CheckSplit("test"), model.ErrConfiguration))
}
