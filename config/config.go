package config

import (
	"path/filepath"
	"strings"

	"github.com/jsphweid/cpword/augment"
	"github.com/jsphweid/cpword/constants"
	"github.com/jsphweid/cpword/file"
	"github.com/jsphweid/cpword/model"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Augment  AugmentConfig  `mapstructure:"augment"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	LogLevel string         `mapstructure:"log_level"`
}

type PathsConfig struct {
	DatasetRoot string `mapstructure:"dataset_root"`
	// local directory or s3://bucket/prefix; empty means next to the midi files
	Store   string `mapstructure:"store"`
	Catalog string `mapstructure:"catalog"`
}

type PipelineConfig struct {
	MaxLength int   `mapstructure:"max_length"`
	Track     int   `mapstructure:"track"`
	Workers   int   `mapstructure:"workers"`
	MaxFiles  int   `mapstructure:"max_files"`
	Seed      int64 `mapstructure:"seed"`
	// none, within or groups
	Shuffle string `mapstructure:"shuffle"`
}

type AugmentConfig struct {
	Transpositions int     `mapstructure:"transpositions"`
	Accidentals    int     `mapstructure:"accidentals"`
	AccidentalP    float64 `mapstructure:"accidental_p"`
}

type StorageConfig struct {
	S3Region   string `mapstructure:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
}

type ServerConfig struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

const (
	ShuffleNone   = "none"
	ShuffleWithin = "within"
	ShuffleGroups = "groups"
)

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			DatasetRoot: constants.GetDatasetRoot(),
			Store:       "",
			Catalog:     filepath.Join("out", "catalog.db"),
		},
		Pipeline: PipelineConfig{
			MaxLength: constants.MaxSequenceLength,
			Track:     0,
			Workers:   4,
			MaxFiles:  0,
			Seed:      24,
			Shuffle:   ShuffleNone,
		},
		Augment: AugmentConfig{
			Transpositions: 1,
			Accidentals:    1,
			AccidentalP:    constants.DefaultAccidentalP,
		},
		Server: ServerConfig{
			ListenAddr:     ":8080",
			AllowedOrigins: []string{"*"},
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-dataset-root", defaults.Paths.DatasetRoot, "Dataset root holding midi_files/<split>/midi")
	fs.String("paths-store", defaults.Paths.Store, "Artifact store: directory or s3://bucket/prefix (default: <dataset-root>/midi_files)")
	fs.String("paths-catalog", defaults.Paths.Catalog, "SQLite run catalog path")
	fs.Int("pipeline-max-length", defaults.Pipeline.MaxLength, "Maximum words per sequence")
	fs.Int("pipeline-track", defaults.Pipeline.Track, "Index of the note-bearing track to tokenize")
	fs.Int("pipeline-workers", defaults.Pipeline.Workers, "Files processed concurrently")
	fs.Int("pipeline-max-files", defaults.Pipeline.MaxFiles, "Process at most this many files per split (0 = all)")
	fs.Int64("pipeline-seed", defaults.Pipeline.Seed, "Seed for augmentation and shuffling")
	fs.String("pipeline-shuffle", defaults.Pipeline.Shuffle, "Group-preserving shuffle: none|within|groups")
	fs.Int("augment-transpositions", defaults.Augment.Transpositions, "Random transpositions per sequence")
	fs.Int("augment-accidentals", defaults.Augment.Accidentals, "Accidental variants per base sequence")
	fs.Float64("augment-accidental-p", defaults.Augment.AccidentalP, "Per-word accidental probability")
	fs.String("storage-s3-region", defaults.Storage.S3Region, "AWS region for s3:// stores")
	fs.String("storage-s3-endpoint", defaults.Storage.S3Endpoint, "Custom S3 endpoint")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.StringSlice("server-allowed-origins", defaults.Server.AllowedOrigins, "CORS allowed origins")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("CPWORD")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
	} else {
		v.SetConfigName("cpword")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, errors.Wrap(err, "read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline would otherwise have to clamp.
func (c Config) Validate() error {
	switch {
	case c.Pipeline.MaxLength <= 0:
		return errors.Wrapf(model.ErrConfiguration, "pipeline.max_length must be positive, got %d", c.Pipeline.MaxLength)
	case c.Pipeline.Track < 0:
		return errors.Wrapf(model.ErrConfiguration, "pipeline.track must not be negative, got %d", c.Pipeline.Track)
	case c.Pipeline.Workers <= 0:
		return errors.Wrapf(model.ErrConfiguration, "pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	case c.Pipeline.MaxFiles < 0:
		return errors.Wrapf(model.ErrConfiguration, "pipeline.max_files must not be negative, got %d", c.Pipeline.MaxFiles)
	}
	switch c.Pipeline.Shuffle {
	case ShuffleNone, ShuffleWithin, ShuffleGroups:
	default:
		return errors.Wrapf(model.ErrConfiguration, "pipeline.shuffle %q not one of none|within|groups", c.Pipeline.Shuffle)
	}
	return c.Augmenter().Validate()
}

func (c Config) Augmenter() augment.Augmenter {
	return augment.Augmenter{
		Transpositions: c.Augment.Transpositions,
		Accidentals:    c.Augment.Accidentals,
		AccidentalP:    c.Augment.AccidentalP,
	}
}

func (c Config) Layout() file.Layout {
	return file.Layout{Root: c.Paths.DatasetRoot}
}

// StoreLocation resolves the artifact store, defaulting to the dataset's
// midi_files directory.
func (c Config) StoreLocation() string {
	if c.Paths.Store != "" {
		return c.Paths.Store
	}
	return c.Layout().ArtifactRoot()
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.dataset_root", c.Paths.DatasetRoot)
	v.SetDefault("paths.store", c.Paths.Store)
	v.SetDefault("paths.catalog", c.Paths.Catalog)
	v.SetDefault("pipeline.max_length", c.Pipeline.MaxLength)
	v.SetDefault("pipeline.track", c.Pipeline.Track)
	v.SetDefault("pipeline.workers", c.Pipeline.Workers)
	v.SetDefault("pipeline.max_files", c.Pipeline.MaxFiles)
	v.SetDefault("pipeline.seed", c.Pipeline.Seed)
	v.SetDefault("pipeline.shuffle", c.Pipeline.Shuffle)
	v.SetDefault("augment.transpositions", c.Augment.Transpositions)
	v.SetDefault("augment.accidentals", c.Augment.Accidentals)
	v.SetDefault("augment.accidental_p", c.Augment.AccidentalP)
	v.SetDefault("storage.s3_region", c.Storage.S3Region)
	v.SetDefault("storage.s3_endpoint", c.Storage.S3Endpoint)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.allowed_origins", c.Server.AllowedOrigins)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps config keys to their flag names. Binding key by key (rather
// than aliasing flag names) keeps config file values visible to Unmarshal.
var flagKeys = [][2]string{
	{"paths.dataset_root", "paths-dataset-root"},
	{"paths.store", "paths-store"},
	{"paths.catalog", "paths-catalog"},
	{"pipeline.max_length", "pipeline-max-length"},
	{"pipeline.track", "pipeline-track"},
	{"pipeline.workers", "pipeline-workers"},
	{"pipeline.max_files", "pipeline-max-files"},
	{"pipeline.seed", "pipeline-seed"},
	{"pipeline.shuffle", "pipeline-shuffle"},
	{"augment.transpositions", "augment-transpositions"},
	{"augment.accidentals", "augment-accidentals"},
	{"augment.accidental_p", "augment-accidental-p"},
	{"storage.s3_region", "storage-s3-region"},
	{"storage.s3_endpoint", "storage-s3-endpoint"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.allowed_origins", "server-allowed-origins"},
	{"log_level", "log-level"},
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, kf := range flagKeys {
		f := fs.Lookup(kf[1])
		if f == nil {
			continue
		}
		if err := v.BindPFlag(kf[0], f); err != nil {
			return errors.Wrapf(err, "bind flag %s", kf[1])
		}
	}
	return nil
}
