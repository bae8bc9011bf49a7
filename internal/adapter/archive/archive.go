package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archive keeps copies of downloaded invoices.
type Archive interface {
	Put(ctx context.Context, orderID int64, pdf []byte) error
}

// Parse builds the archive described by location: empty (disabled),
// "dir:/path" or "s3://bucket/prefix". A nil Archive means disabled.
func Parse(ctx context.Context, location string) (Archive, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return nil, nil
	case strings.HasPrefix(location, "dir:"):
		root := strings.TrimPrefix(location, "dir:")
		if root == "" {
			return nil, fmt.Errorf("invoice archive: empty directory")
		}
		return NewDir(root), nil
	case strings.HasPrefix(location, "s3://"):
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("invoice archive: s3 bucket required")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("invoice archive: load aws config: %w", err)
		}
		return NewS3(s3.NewFromConfig(awsCfg), bucket, prefix), nil
	}
	return nil, fmt.Errorf("invoice archive: unsupported location %q", location)
}

func objectName(orderID int64, at time.Time) string {
	return fmt.Sprintf("invoice-%d-%s.pdf", orderID, at.UTC().Format("20060102T150405Z"))
}

// Dir writes invoices below a local directory.
type Dir struct {
	root string
	now  func() time.Time
}

// NewDir constructs Dir.
func NewDir(root string) *Dir {
	return &Dir{root: root, now: time.Now}
}

func (d *Dir) Put(_ context.Context, orderID int64, pdf []byte) error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	name := filepath.Join(d.root, objectName(orderID, d.now()))
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, pdf, 0o644); err != nil {
		return fmt.Errorf("write invoice: %w", err)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write invoice: %w", err)
	}
	return nil
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads invoices to a bucket.
type S3 struct {
	client putObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3 constructs S3.
func NewS3(client putObjectAPI, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

func (s *S3) Put(ctx context.Context, orderID int64, pdf []byte) error {
	key := path.Join(s.prefix, objectName(orderID, s.now()))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("upload invoice %s: %w", key, err)
	}
	return nil
}
