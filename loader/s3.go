package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v5"

	"github.com/NotHilal/PLM-Hackaton/table"
)

const defaultS3MaxTries = 4

// ObjectGetter is the subset of *s3.Client the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds configuration for creating an S3Source.
type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	BaseNames map[table.Category]string // defaults to DefaultBaseNames
	MaxTries  uint
}

// S3Source fetches extracts from `<bucket>/<prefix>/<base name><ext>`.
type S3Source struct {
	log    *slog.Logger
	client ObjectGetter
	cfg    S3Config
}

// NewS3Source builds a client from the default AWS credential chain.
func NewS3Source(ctx context.Context, log *slog.Logger, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3SourceWithClient(log, s3.NewFromConfig(awsCfg), cfg), nil
}

// NewS3SourceWithClient is used by tests and by callers that already hold a
// client.
func NewS3SourceWithClient(log *slog.Logger, client ObjectGetter, cfg S3Config) *S3Source {
	if cfg.BaseNames == nil {
		cfg.BaseNames = DefaultBaseNames
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = defaultS3MaxTries
	}
	return &S3Source{log: log, client: client, cfg: cfg}
}

func (s *S3Source) Fetch(ctx context.Context, category table.Category) (*Object, error) {
	base, ok := s.cfg.BaseNames[category]
	if !ok {
		return nil, fmt.Errorf("%s: %w", category, ErrNotFound)
	}
	for _, name := range candidateNames(base) {
		key := path.Join(s.cfg.Prefix, name)
		data, err := s.get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Object{Name: name, Data: data}, nil
	}
	return nil, fmt.Errorf("%s in s3://%s/%s: %w", category, s.cfg.Bucket, s.cfg.Prefix, ErrNotFound)
}

// get retries transient failures. A missing key stops retrying at once.
func (s *S3Source) get(ctx context.Context, key string) ([]byte, error) {
	attempt := 1
	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		if attempt > 1 {
			s.log.Warn("loader: failed to get object, retrying", "key", key, "attempt", attempt)
		}
		attempt++

		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isMissingKey(err) {
				return nil, backoff.Permanent(fmt.Errorf("%s: %w", key, ErrNotFound))
			}
			return nil, err
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(s.cfg.MaxTries))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}
	return data, nil
}

func isMissingKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
