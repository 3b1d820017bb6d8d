package secrets

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	sc "github.com/dmitrijs2005/tokenkeeper/internal/server/config"
)

// ObjectGetter is the subset of the S3 client used by the provider.
// Wrapped in an interface so tests can stub the store.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Provider fetches the signing secret object once and keeps it in memory
// for the remaining lifetime of the process. There is no in-band
// invalidation: a rotated secret is picked up by the next cold instance.
type S3Provider struct {
	getter ObjectGetter
	bucket string
	key    string

	mu        sync.RWMutex
	cached    []byte
	fetchedAt time.Time
}

// NewS3Provider builds a provider over an S3-compatible store using static
// credentials and an optional custom base endpoint (MinIO in dev).
func NewS3Provider(ctx context.Context, cfg *sc.Config) (*S3Provider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return NewS3ProviderWithGetter(client, cfg.SecretBucket, cfg.SecretName), nil
}

// NewS3ProviderWithGetter constructs a provider over an explicit getter.
func NewS3ProviderWithGetter(getter ObjectGetter, bucket, key string) *S3Provider {
	return &S3Provider{getter: getter, bucket: bucket, key: key}
}

// CurrentSecret returns the cached secret, fetching it from the store on the
// first call in the process lifetime. A fetch failure is reported as
// common.ErrSecretUnavailable and nothing is cached, so the next invocation
// retries the fetch.
func (p *S3Provider) CurrentSecret(ctx context.Context) ([]byte, error) {
	p.mu.RLock()
	cached := p.cached
	p.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		return p.cached, nil
	}

	out, err := p.getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &p.bucket,
		Key:    &p.key,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSecretUnavailable, err)
	}
	defer out.Body.Close()

	value, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSecretUnavailable, err)
	}
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: empty secret object", common.ErrSecretUnavailable)
	}

	p.cached = value
	p.fetchedAt = time.Now()
	return p.cached, nil
}
