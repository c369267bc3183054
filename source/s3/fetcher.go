package s3

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	s3api "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/klauspost/compress/gzip"
)

const (
	DecompressAuto   = "auto"
	DecompressAlways = "always"
	DecompressNever  = "never"
)

// ObjectAPI is the part of the S3 client the fetcher uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3api.GetObjectInput, optFns ...func(*s3api.Options)) (*s3api.GetObjectOutput, error)
}

// Fetcher opens S3 objects for reading, transparently decompressing gzip
// content.
type Fetcher struct {
	api        ObjectAPI
	decompress string
}

// NewFetcher builds a fetcher on top of the default AWS credential chain.
func NewFetcher(ctx context.Context, cfg Config) (*Fetcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	client := s3api.NewFromConfig(awsCfg, func(o *s3api.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewFetcherWithAPI(client, cfg.Decompress), nil
}

func NewFetcherWithAPI(api ObjectAPI, decompress string) *Fetcher {
	if decompress == "" {
		decompress = DecompressAuto
	}
	return &Fetcher{api: api, decompress: decompress}
}

// Open returns the object's (decompressed) body. key is the decoded object
// key. The caller closes the reader.
func (f *Fetcher) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := f.api.GetObject(ctx, &s3api.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			return nil, fmt.Errorf("s3: get s3://%s/%s: %s: %w", bucket, key, ae.ErrorCode(), err)
		}
		return nil, fmt.Errorf("s3: get s3://%s/%s: %w", bucket, key, err)
	}
	gz := f.decompress == DecompressAlways ||
		(f.decompress == DecompressAuto && strings.HasSuffix(key, ".gz"))
	return wrapBody(out.Body, gz, f.decompress == DecompressAuto)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// wrapBody layers gzip decoding over body when gz is set, or when sniff is set
// and the body starts with the gzip magic bytes.
func wrapBody(body io.ReadCloser, gz, sniff bool) (io.ReadCloser, error) {
	br := bufio.NewReader(body)
	if !gz && sniff {
		magic, err := br.Peek(2)
		gz = err == nil && magic[0] == 0x1f && magic[1] == 0x8b
	}
	if !gz {
		return &readCloser{Reader: br, closers: []io.Closer{body}}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("s3: gzip: %w", err)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{zr, body}}, nil
}
