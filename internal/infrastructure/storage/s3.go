package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/nutriscan/backend/internal/domain"
)

// S3API is the part of the S3 client the store uses
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps images as objects in a bucket. The path returned by Put is
// the object key.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates a new S3 image store
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Read downloads the object stored under key
func (s *S3Store) Read(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", domain.ErrImageNotFound, key)
		}
		log.Printf("[STORAGE] GetObject %s failed: %v", key, err)
		return nil, domain.ProviderError(ctx, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read object %s: %v", domain.ErrProviderUnavailable, key, err)
	}
	return data, nil
}

// Put uploads data under the store prefix and returns the object key
func (s *S3Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := strings.TrimLeft(path.Clean("/"+name), "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty image name", domain.ErrInvalidRequest)
	}
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name, data)),
	})
	if err != nil {
		log.Printf("[STORAGE] PutObject %s failed: %v", key, err)
		return "", domain.ProviderError(ctx, err)
	}

	log.Printf("[STORAGE] Uploaded %d bytes to s3://%s/%s", len(data), s.bucket, key)
	return key, nil
}

func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
