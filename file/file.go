package file

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
)

const (
	Train      = "train"
	Validation = "validation"
	Evaluation = "evaluation"
)

var Splits = []string{Train, Validation, Evaluation}

func CheckSplit(split string) error {
	for _, s := range Splits {
		if s == split {
			return nil
		}
	}
	return errors.Wrapf(model.ErrConfiguration, "unknown split %q (want one of %v)", split, Splits)
}

func isMidi(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".mid") || strings.HasSuffix(lower, ".midi")
}

// GatherAllMidiPaths lists every .mid/.midi file below root in lexical order.
// maxNum 0 means no limit.
func GatherAllMidiPaths(root string, maxNum int) ([]string, error) {
	if maxNum < 0 {
		return nil, errors.Wrapf(model.ErrConfiguration, "max number of files %d is negative", maxNum)
	}
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isMidi(s) {
			res = append(res, s)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	sort.Strings(res)
	if maxNum > 0 && len(res) > maxNum {
		res = res[:maxNum]
	}
	return res, nil
}

// ParentDir walks level directories up from path.
func ParentDir(path string, level int) (string, error) {
	if level < 0 {
		return "", errors.Wrapf(model.ErrConfiguration, "parent directory level must not be negative, got %d", level)
	}
	for i := 0; i < level; i++ {
		path = filepath.Dir(path)
	}
	return path, nil
}

// Layout is the on-disk dataset shape:
//
//	<root>/midi_files/<split>/midi/*.mid
//
// with each split's artifact stored under <split>/<split>.safetensors.
type Layout struct {
	Root string
}

func (l Layout) MidiDir(split string) string {
	return filepath.Join(l.Root, "midi_files", split, "midi")
}

// ArtifactRoot is the default local store: artifacts then sit next to the
// midi dir of their split.
func (l Layout) ArtifactRoot() string {
	p, _ := ParentDir(l.MidiDir(Train), 2)
	return p
}

func ArtifactKey(split string) string {
	return split + "/" + split + ".safetensors"
}
