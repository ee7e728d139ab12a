package bucket

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store stores objects in an S3-compatible bucket (AWS S3, MinIO, etc.),
// keyed directly by filename.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	prefix    string
}

var _ Store = (*S3Store)(nil)
var _ Lister = (*S3Store)(nil)

type S3Options struct {
	Client    *s3.Client
	Bucket    string
	PublicURL string // base URL reported back as the object location
	Prefix    string // optional key prefix, e.g. "images/"
}

func NewS3Store(opts S3Options) *S3Store {
	return &S3Store{
		client:    opts.Client,
		bucket:    opts.Bucket,
		publicURL: opts.PublicURL,
		prefix:    opts.Prefix,
	}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix != "" {
		return s.prefix + key
	}
	return key
}

func (s *S3Store) Upload(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 put %q: %v", ErrUpload, key, err)
	}
	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 delete %q: %v", ErrDelete, key, err)
	}
	return nil
}

// ListKeys enumerates every object key in the bucket, with the configured
// prefix stripped.
func (s *S3Store) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if s.prefix != "" {
				key = key[len(s.prefix):]
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}
