package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/filex"
	"github.com/dmitrijs2005/groupshare/internal/logging"
	"github.com/dmitrijs2005/groupshare/internal/metrics"
	"github.com/dmitrijs2005/groupshare/internal/pathx"
	"github.com/dmitrijs2005/groupshare/internal/protocol"
	"github.com/sony/gobreaker"
)

// S3Config holds the settings of an S3-compatible backend such as MinIO.
type S3Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
	// SpoolDir holds uploads until they are complete. Empty means os.TempDir.
	SpoolDir string
}

// s3API is the part of *s3.Client the store needs.
type s3API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// loadDefaultAWSConfig is a seam for tests.
var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// newS3ClientFromConfig is a seam for tests.
var newS3ClientFromConfig = func(cfg aws.Config, endpoint string) s3API {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})
}

// S3Store keeps group files as objects named "group/filename". Every call
// to the backend goes through a circuit breaker so a dead endpoint fails
// fast instead of stalling each session for the full SDK retry budget.
type S3Store struct {
	client   s3API
	bucket   string
	spoolDir string
	breaker  *gobreaker.CircuitBreaker
	logger   logging.Logger
}

// NewS3Store builds the client from cfg and makes sure the bucket exists.
func NewS3Store(ctx context.Context, cfg S3Config, logger logging.Logger) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.User,
			cfg.Password,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.SpoolDir != "" {
		if err := filex.EnsureDir(cfg.SpoolDir); err != nil {
			return nil, err
		}
	}

	s := newS3Store(newS3ClientFromConfig(awsCfg, cfg.BaseEndpoint), cfg.Bucket, cfg.SpoolDir, logger)
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return s, nil
}

func newS3Store(client s3API, bucket, spoolDir string, logger logging.Logger) *S3Store {
	l := logger.With("module", "s3store", "bucket", bucket)
	return &S3Store{
		client:   client,
		bucket:   bucket,
		spoolDir: spoolDir,
		logger:   l,
		breaker:  newBreaker("s3:"+bucket, l),
	}
}

func newBreaker(name string, logger logging.Logger) *gobreaker.CircuitBreaker {
	metrics.BlobBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BlobBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn(context.Background(), "circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})
}

// call runs fn through the breaker.
func call[T any](s *S3Store, fn func() (T, error)) (T, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func (s *S3Store) key(group, name string) string {
	return group + "/" + name
}

func (s *S3Store) ensureBucket(ctx context.Context, region string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if region != "" && region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info(ctx, "bucket created")
	return nil
}

// Put spools the upload to local disk first; the object is only created
// once all size bytes have arrived.
func (s *S3Store) Put(ctx context.Context, group, name string, r io.Reader, size int64) error {
	if err := validate(group, name); err != nil {
		return err
	}

	spool, err := filex.CreateTemp(s.spoolDirOrDefault())
	if err != nil {
		return err
	}
	defer filex.Discard(spool)

	if _, err := protocol.CopyExact(spool, r, size); err != nil {
		return err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return err
	}

	_, err = call(s, func() (*s3.PutObjectOutput, error) {
		return s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(s.key(group, name)),
			Body:          spool,
			ContentLength: aws.Int64(size),
		})
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.key(group, name), err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, group string) ([]Object, error) {
	if err := pathx.ValidateName(group); err != nil {
		return nil, err
	}
	prefix := group + "/"

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var objects []Object
	for p.HasMorePages() {
		page, err := call(s, func() (*s3.ListObjectsV2Output, error) {
			return p.NextPage(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", group, err)
		}
		for _, o := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(o.Key), prefix)
			if name == "" || pathx.ValidateName(name) != nil {
				continue
			}
			objects = append(objects, Object{Name: name, Size: aws.ToInt64(o.Size)})
		}
	}
	return objects, nil
}

func (s *S3Store) Open(ctx context.Context, group, name string) (io.ReadCloser, int64, error) {
	if err := validate(group, name); err != nil {
		return nil, 0, err
	}
	out, err := call(s, func() (*s3.GetObjectOutput, error) {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(group, name)),
		})
		if isNotFound(err) {
			return nil, nil
		}
		return out, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", s.key(group, name), err)
	}
	if out == nil {
		return nil, 0, common.ErrorNotFound
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

func (s *S3Store) Remove(ctx context.Context, group, name string) (bool, error) {
	if err := validate(group, name); err != nil {
		return false, err
	}
	key := s.key(group, name)

	existed, err := call(s, func() (bool, error) {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
		if isNotFound(err) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	if !existed {
		return false, nil
	}

	_, err = call(s, func() (*s3.DeleteObjectOutput, error) {
		return s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	})
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return true, nil
}

func (s *S3Store) spoolDirOrDefault() string {
	if s.spoolDir != "" {
		return s.spoolDir
	}
	return os.TempDir()
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *types.NotFound
	var nk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nk)
}
