// Package input opens genotype exports and frequency tables from stdin,
// local files or S3, transparently decompressing gzip content.
package input

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// Options configures remote access.
type Options struct {
	Region    string
	Endpoint  string
	PathStyle bool

	// Client overrides the S3 client built from the options.
	Client *s3.Client
}

// IsRemote reports whether uri names an S3 object.
func IsRemote(uri string) bool {
	return strings.HasPrefix(uri, s3Scheme)
}

// Open returns a reader for uri. "-" is stdin, "s3://bucket/key" is an S3
// object and anything else is a local path. Gzip content is detected by
// its magic bytes and decompressed.
func Open(ctx context.Context, uri string, opts Options) (io.ReadCloser, error) {
	var rc io.ReadCloser
	switch {
	case uri == "-":
		rc = io.NopCloser(os.Stdin)
	case IsRemote(uri):
		body, err := openS3(ctx, uri, opts)
		if err != nil {
			return nil, err
		}
		rc = body
	default:
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", uri, err)
		}
		rc = f
	}

	r, err := maybeGzip(rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return r, nil
}

// maybeGzip peeks at the first two bytes for the gzip magic number.
func maybeGzip(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read input header: %w", err)
	}

	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &readCloser{Reader: gz, closers: []io.Closer{gz, rc}}, nil
	}
	return &readCloser{Reader: br, closers: []io.Closer{rc}}, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SplitS3URI splits "s3://bucket/key" into bucket and key.
func SplitS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q: want s3://bucket/key", uri)
	}
	return bucket, key, nil
}

func openS3(ctx context.Context, uri string, opts Options) (io.ReadCloser, error) {
	bucket, key, err := SplitS3URI(uri)
	if err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		client, err = NewS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", uri, err)
	}
	return out.Body, nil
}

// NewS3Client builds an S3 client from the default AWS configuration chain
// with the region, endpoint and addressing style overridden by opts.
// Static credentials from AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY take
// precedence so S3-compatible stores work without a shared config file.
func NewS3Client(ctx context.Context, opts Options) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, os.Getenv("AWS_SESSION_TOKEN"))))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	}), nil
}
