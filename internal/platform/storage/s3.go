package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures an S3-compatible bucket (AWS, MinIO, Supabase Storage).
type S3Options struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	// KeyPrefix is used when a legacy URL does not match PublicBaseURL.
	KeyPrefix string
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store stores objects in an S3-compatible bucket.
type S3Store struct {
	client    s3API
	bucket    string
	publicURL string
	keyPrefix string
}

// NewS3 builds an S3Store with static credentials when provided, falling back
// to the default AWS credential chain otherwise.
func NewS3(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, opts), nil
}

func newS3Store(client s3API, opts S3Options) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		keyPrefix: opts.KeyPrefix,
	}
}

// Upload writes the object to the bucket. Existing keys are overwritten.
func (s *S3Store) Upload(ctx context.Context, obj Object) error {
	if obj.Key == "" {
		return ErrEmptyKey
	}
	body, err := seekableBody(obj.Body)
	if err != nil {
		return fmt.Errorf("storage: buffer %s: %w", obj.Key, err)
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj.Key),
		Body:   body,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("storage: put %s: %w", obj.Key, err)
	}
	return nil
}

// seekableBody buffers streams the SDK cannot rewind. Payload signing over
// plain HTTP (MinIO, local Supabase) seeks the body before sending it.
func seekableBody(body io.Reader) (io.ReadSeeker, error) {
	if body == nil {
		return bytes.NewReader(nil), nil
	}
	if rs, ok := body.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// PublicURL returns the public address of key.
func (s *S3Store) PublicURL(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicURL + "/" + s.bucket + "/" + strings.Join(segments, "/"), nil
}

// Remove deletes key from the bucket. Missing objects are not an error.
func (s *S3Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// KeyFromURL reverses PublicURL. URLs from another host fall back to the
// final path segment under KeyPrefix.
func (s *S3Store) KeyFromURL(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	prefix := s.publicURL + "/" + s.bucket + "/"
	if strings.HasPrefix(rawURL, prefix) {
		key, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
		if err != nil || key == "" {
			return "", false
		}
		return key, true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || s.keyPrefix == "" {
		return "", false
	}
	return path.Join(s.keyPrefix, name), true
}

var _ Store = (*S3Store)(nil)
