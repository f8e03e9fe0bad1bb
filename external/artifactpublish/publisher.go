package artifactpublish

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const (
	jsonContentType = "application/json"
	cacheControl    = "public, max-age=300"
	maxUploads      = 4
)

// ObjectPutter is the subset of *s3.Client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArtifactSource lists the files a run has written.
type ArtifactSource interface {
	Dir() string
	ArtifactPaths() ([]string, error)
}

type Config struct {
	Bucket string
	Prefix string
	Region string
}

// Publisher uploads every persisted artifact to an S3 bucket under a prefix.
type Publisher struct {
	client ObjectPutter
	source ArtifactSource
	bucket string
	prefix string
	logger *logging.Logger
}

var _ usecase.ArtifactPublisher = (*Publisher)(nil)

// NewS3Publisher loads the default AWS credential chain for the region.
func NewS3Publisher(ctx context.Context, cfg Config, source ArtifactSource, logger *logging.Logger) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, crerr.Mark(crerr.New("publish bucket is required"), usecase.ErrInvalidInput)
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "load aws config"), usecase.ErrDependencyUnavailable)
	}
	return NewPublisher(s3.NewFromConfig(awsCfg), source, cfg, logger), nil
}

func NewPublisher(client ObjectPutter, source ArtifactSource, cfg Config, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		client: client,
		source: source,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.Named("artifactpublish"),
	}
}

// Publish uploads all artifacts and returns how many made it. The first
// upload error is returned after the remaining uploads finish.
func (p *Publisher) Publish(ctx context.Context) (int, error) {
	paths, err := p.source.ArtifactPaths()
	if err != nil {
		return 0, crerr.Wrap(err, "list artifacts")
	}

	var uploaded atomic.Int64
	workers := pool.New().WithMaxGoroutines(maxUploads).WithErrors().WithContext(ctx)
	for _, rel := range paths {
		workers.Go(func(ctx context.Context) error {
			if err := p.put(ctx, rel); err != nil {
				p.logger.WarnContext(ctx, "artifact upload failed", "path", rel, "error", err)
				return err
			}
			uploaded.Add(1)
			return nil
		})
	}
	err = workers.Wait()

	count := int(uploaded.Load())
	p.logger.InfoContext(ctx, "artifacts published", "bucket", p.bucket, "prefix", p.prefix, "uploaded", count, "total", len(paths))
	if err != nil {
		return count, crerr.Mark(crerr.Wrap(err, "publish artifacts"), usecase.ErrDependencyUnavailable)
	}
	return count, nil
}

func (p *Publisher) put(ctx context.Context, rel string) error {
	body, err := os.ReadFile(filepath.Join(p.source.Dir(), filepath.FromSlash(rel)))
	if err != nil {
		return crerr.Wrapf(err, "read %s", rel)
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(p.objectKey(rel)),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(jsonContentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return crerr.Wrapf(err, "put %s", rel)
	}
	return nil
}

func (p *Publisher) objectKey(rel string) string {
	if p.prefix == "" {
		return rel
	}
	return path.Join(p.prefix, rel)
}
