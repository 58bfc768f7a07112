package artifact

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// Store persists artifacts under slash separated keys such as
// "train/train.safetensors".
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Location(key string) string
}

type LocalStore struct {
	Dir string
}

func (s LocalStore) path(key string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(key))
}

func (s LocalStore) Put(_ context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", p)
	}
	// write then rename so a reader never sees half an artifact
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, p); err != nil {
		return errors.Wrapf(err, "renaming %s", tmp)
	}
	return nil
}

func (s LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.path(key))
	}
	return data, nil
}

func (s LocalStore) Location(key string) string {
	return s.path(key)
}

type S3Options struct {
	Region string
	// for S3 compatible services and local testing
	Endpoint string
}

type S3Store struct {
	Bucket     string
	Prefix     string
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

func NewS3Store(bucket, prefix string, opts S3Options) (*S3Store, error) {
	cfg := &aws.Config{}
	if opts.Region != "" {
		cfg.Region = aws.String(opts.Region)
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating AWS session")
	}
	return &S3Store{
		Bucket:     bucket,
		Prefix:     strings.Trim(prefix, "/"),
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.Prefix == "" {
		return key
	}
	return path.Join(s.Prefix, key)
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errors.Wrapf(err, "uploading %s", s.Location(key))
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	buf := aws.NewWriteAtBuffer(nil)
	_, err := s.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", s.Location(key))
	}
	return buf.Bytes(), nil
}

func (s *S3Store) Location(key string) string {
	return "s3://" + s.Bucket + "/" + s.objectKey(key)
}

// OpenStore picks the store for uri: "s3://bucket/prefix" or a local
// directory.
func OpenStore(uri string, opts S3Options) (Store, error) {
	if rest, ok := strings.CutPrefix(uri, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, errors.Errorf("no bucket in %q", uri)
		}
		return NewS3Store(bucket, prefix, opts)
	}
	if uri == "" {
		return nil, errors.New("empty store location")
	}
	return LocalStore{Dir: uri}, nil
}
