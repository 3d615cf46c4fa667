// Package s3 provides a slotfeed connector over an S3 bucket prefix: one
// slot per object.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/connector"
)

// Client is the S3 surface the connector consumes. *s3.Client from the
// AWS SDK satisfies it; tests substitute a fake.
type Client interface {
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Options configures a Bucket connector.
type Options struct {
	// Bucket is the bucket name. Required.
	Bucket string

	// Prefix narrows the listing to one key prefix, usually ending in
	// "/". Slot names are keys with the prefix stripped.
	Prefix string

	// Region overrides the region resolved from the environment. Only
	// used by Open.
	Region string

	// TimePattern and TimeLayout extract slot timestamps from key names;
	// empty values select the connector defaults (ISO dates). Keys
	// without a parseable timestamp use the object's LastModified.
	TimePattern string
	TimeLayout  string
}

// Bucket lists the objects under a prefix as slots and streams them with
// GetObject. S3 lists keys in lexicographic order, so key naming controls
// delivery order.
type Bucket struct {
	client Client
	bucket string
	prefix string
	namet  *connector.NameTimer
}

// New wraps an existing client.
func New(client Client, opts Options) (*Bucket, error) {
	if client == nil {
		return nil, fmt.Errorf("s3: client is required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3: Options.Bucket is required")
	}
	namet, err := connector.NewNameTimer(opts.TimePattern, opts.TimeLayout)
	if err != nil {
		return nil, fmt.Errorf("s3: time pattern: %w", err)
	}
	return &Bucket{client: client, bucket: opts.Bucket, prefix: opts.Prefix, namet: namet}, nil
}

// Open dials S3 with the default credential chain and wraps the client.
func Open(ctx context.Context, opts Options) (*Bucket, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: loading AWS config: %w", err)
	}
	return New(awss3.NewFromConfig(cfg), opts)
}

// List pages through the prefix and returns one slot per object.
func (b *Bucket) List(ctx context.Context) ([]slotfeed.Slot, error) {
	input := &awss3.ListObjectsV2Input{Bucket: aws.String(b.bucket)}
	if b.prefix != "" {
		input.Prefix = aws.String(b.prefix)
	}

	var slots []slotfeed.Slot
	paginator := awss3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: listing s3://%s/%s: %w", b.bucket, b.prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), b.prefix)
			if name == "" || strings.HasSuffix(name, "/") {
				// Prefix placeholder objects are not content.
				continue
			}
			t, ok := b.namet.Time(name)
			if !ok {
				t = aws.ToTime(obj.LastModified)
			}
			slots = append(slots, slotfeed.Slot{Name: name, Time: t})
		}
	}
	return slots, nil
}

// Fetch streams one object's body.
func (b *Bucket) Fetch(ctx context.Context, s slotfeed.Slot) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.prefix + s.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: fetching %s: %w", s.Name, err)
	}
	return out.Body, nil
}
