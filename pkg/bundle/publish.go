package bundle

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/headers"
)

// PutObjectAPI is the part of the S3 client a publisher needs.
// *s3.Client satisfies it.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads bundles to an S3 bucket for CDN delivery.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	pub := bundle.NewS3Publisher(s3.NewFromConfig(cfg), "my-bucket", "assets/")
//	url, err := pub.Publish(ctx, b)
type S3Publisher struct {
	client PutObjectAPI
	bucket string
	prefix string
	cache  headers.CacheConfig
}

// NewS3Publisher creates a publisher writing to s3://bucket/prefix<name>.
func NewS3Publisher(client PutObjectAPI, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// WithCache sets the Cache-Control stored with each object. Bundle names
// change with their content, so long lifetimes are safe.
func (p *S3Publisher) WithCache(cfg headers.CacheConfig) *S3Publisher {
	p.cache = cfg
	return p
}

// Publish uploads b and returns its s3:// location.
func (p *S3Publisher) Publish(ctx context.Context, b *Bundle) (string, error) {
	f, err := os.Open(b.Path)
	if err != nil {
		return "", errors.New("E304").WithDetailf("open %s", b.Name()).Wrap(err)
	}
	defer f.Close()

	key := p.prefix + b.Name()
	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(b.Size),
		ContentType:   aws.String(b.Kind.ContentType()),
		Metadata: map[string]string{
			"combine-refs":  strconv.Itoa(len(b.Included)),
			"combine-built": b.ModTime.UTC().Format(time.RFC3339),
		},
	}
	if lifetime := p.cache.Lifetime(); lifetime > 0 {
		input.CacheControl = aws.String("public, max-age=" + strconv.FormatInt(int64(lifetime/time.Second), 10))
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return "", errors.New("E304").WithDetailf("s3://%s/%s", p.bucket, key).Wrap(err)
	}
	return "s3://" + p.bucket + "/" + key, nil
}
