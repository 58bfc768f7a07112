package dataset

import (
	"context"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/cpword/artifact"
	"github.com/jsphweid/cpword/batch"
	"github.com/jsphweid/cpword/chunk"
	"github.com/jsphweid/cpword/config"
	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/db"
	"github.com/jsphweid/cpword/file"
	"github.com/jsphweid/cpword/midi"
	"github.com/jsphweid/cpword/model"
	"github.com/jsphweid/cpword/word"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/iter"
)

type Builder struct {
	Config config.Config
	Vocab  constants.Vocabulary
	Store  artifact.Store
	// optional
	Catalog *db.Catalog
	Logger  *slog.Logger
}

type Result struct {
	RunID     string
	Split     string
	Location  string
	Files     int
	OK        int
	Empty     int
	Failed    int
	Rows      int
	Length    int
	GroupSize int
	Dropped   int
}

// FileResult is everything one source file contributes to a split.
type FileResult struct {
	Path   string
	Groups []model.Group
	Record db.FileRecord
	Err    error
}

// Tokenized is one file's words before augmentation.
type Tokenized struct {
	Words  model.Sequence
	Chunks []model.Sequence
	Stats  chunk.Stats
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// Tokenize runs quantization and splitting on one score.
func (b *Builder) Tokenize(score model.Score) (Tokenized, error) {
	var res Tokenized
	words, err := word.Assemble(score, b.Vocab)
	if err != nil {
		return res, err
	}
	chunks, stats, err := chunk.SplitWithStats(words, b.Config.Pipeline.MaxLength)
	if err != nil {
		return res, err
	}
	res.Words = words
	res.Chunks = chunks
	res.Stats = stats
	return res, nil
}

// ProcessFile takes one file from disk to its augmentation groups. index
// seeds the file's own random source, so results don't depend on which
// worker ran the file or when.
func (b *Builder) ProcessFile(index int, path string) FileResult {
	res := FileResult{Path: path, Record: db.FileRecord{Path: path}}
	fail := func(err error) FileResult {
		res.Err = err
		res.Record.Error = err.Error()
		if errors.Is(err, model.ErrEmptyTrack) {
			res.Record.Status = db.StatusEmpty
		} else {
			res.Record.Status = db.StatusFailed
		}
		return res
	}

	score, err := midi.ReadScore(path, b.Config.Pipeline.Track)
	if err != nil {
		return fail(err)
	}
	tok, err := b.Tokenize(score)
	if err != nil {
		return fail(err)
	}

	rng := rand.New(rand.NewSource(b.Config.Pipeline.Seed + int64(index)))
	augmenter := b.Config.Augmenter()
	for _, c := range tok.Chunks {
		group, err := augmenter.Group(c, rng)
		if err != nil {
			return fail(err)
		}
		res.Groups = append(res.Groups, group)
	}

	res.Record.Status = db.StatusOK
	res.Record.Words = len(tok.Words)
	res.Record.Chunks = tok.Stats.Chunks
	res.Record.Dropped = tok.Stats.Dropped
	return res
}

type job struct {
	index int
	path  string
}

// ProcessFiles runs ProcessFile over paths on a bounded pool of workers.
// Results come back in the order of paths.
func (b *Builder) ProcessFiles(ctx context.Context, paths []string) []FileResult {
	jobs := make([]job, len(paths))
	for i, p := range paths {
		jobs[i] = job{index: i, path: p}
	}

	log := b.logger()
	var done atomic.Int64
	mapper := iter.Mapper[job, FileResult]{MaxGoroutines: b.Config.Pipeline.Workers}
	return mapper.Map(jobs, func(j *job) FileResult {
		if err := ctx.Err(); err != nil {
			return FileResult{Path: j.path, Err: err, Record: db.FileRecord{Path: j.path, Status: db.StatusFailed, Error: err.Error()}}
		}
		res := b.ProcessFile(j.index, j.path)
		n := done.Add(1)
		switch {
		case res.Err == nil:
			log.Debug("processed file", "n", n, "of", len(jobs), "path", j.path,
				"words", res.Record.Words, "chunks", res.Record.Chunks, "dropped", res.Record.Dropped)
		case errors.Is(res.Err, model.ErrEmptyTrack):
			log.Debug("skipping file with no notes", "path", j.path)
		default:
			log.Warn("skipping file", "path", j.path, "err", res.Err)
		}
		return res
	})
}

// BuildSplit turns every MIDI file of split into one padded batch and
// persists it. Files that fail to parse are logged and left out; a bad
// configuration stops the whole split.
func (b *Builder) BuildSplit(ctx context.Context, split string) (Result, error) {
	res := Result{RunID: uuid.New().String(), Split: split, Length: b.Config.Pipeline.MaxLength}
	if err := file.CheckSplit(split); err != nil {
		return res, err
	}
	if err := b.Config.Validate(); err != nil {
		return res, err
	}
	log := b.logger().With("split", split, "run_id", res.RunID)

	dir := b.Config.Layout().MidiDir(split)
	log.Info("loading data", "dir", dir)
	paths, err := file.GatherAllMidiPaths(dir, b.Config.Pipeline.MaxFiles)
	if err != nil {
		return res, err
	}
	res.Files = len(paths)

	fileResults := b.ProcessFiles(ctx, paths)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	var groups []model.Group
	records := make([]db.FileRecord, 0, len(fileResults))
	for _, fr := range fileResults {
		if fr.Err != nil && errors.Is(fr.Err, model.ErrConfiguration) {
			return res, fr.Err
		}
		records = append(records, fr.Record)
		switch fr.Record.Status {
		case db.StatusOK:
			res.OK++
			res.Dropped += fr.Record.Dropped
			groups = append(groups, fr.Groups...)
		case db.StatusEmpty:
			res.Empty++
		default:
			res.Failed++
		}
	}

	log.Info("padding dataset", "groups", len(groups))
	seqs, err := b.flatten(groups)
	if err != nil {
		return res, err
	}
	res.GroupSize = b.Config.Augmenter().GroupSize()
	if err := b.shuffle(seqs, res.GroupSize); err != nil {
		return res, err
	}
	padded, err := batch.Pad(seqs, b.Config.Pipeline.MaxLength, b.Vocab)
	if err != nil {
		return res, err
	}
	res.Rows = padded.N
	if res.Rows == 0 {
		log.Warn("no file produced any words", "files", res.Files)
	}

	data, err := artifact.Encode(padded, artifact.Metadata{
		Split:     split,
		RunID:     res.RunID,
		GroupSize: res.GroupSize,
		PadWord:   model.PadWord(b.Vocab).Array(),
	})
	if err != nil {
		return res, err
	}
	key := file.ArtifactKey(split)
	if err := b.Store.Put(ctx, key, data); err != nil {
		return res, err
	}
	res.Location = b.Store.Location(key)

	if b.Catalog != nil {
		run := db.Run{
			ID:        res.RunID,
			Split:     split,
			Artifact:  res.Location,
			Rows:      res.Rows,
			Length:    res.Length,
			GroupSize: res.GroupSize,
			Created:   time.Now(),
		}
		if err := b.Catalog.RecordRun(ctx, run, records); err != nil {
			return res, err
		}
	}

	log.Info("wrote dataset", "location", res.Location, "rows", res.Rows,
		"ok", res.OK, "empty", res.Empty, "failed", res.Failed, "dropped_words", res.Dropped)
	return res, nil
}

func (b *Builder) flatten(groups []model.Group) ([]model.Sequence, error) {
	seqs, _, err := batch.Flatten(groups)
	return seqs, err
}

func (b *Builder) shuffle(seqs []model.Sequence, groupSize int) error {
	rng := rand.New(rand.NewSource(b.Config.Pipeline.Seed))
	switch b.Config.Pipeline.Shuffle {
	case config.ShuffleWithin:
		return batch.ShuffleWithinGroups(seqs, groupSize, rng)
	case config.ShuffleGroups:
		return batch.ShuffleGroups(seqs, groupSize, rng)
	}
	return nil
}
