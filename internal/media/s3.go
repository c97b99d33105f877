package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"
)

const s3Prefix = "products/"

type S3Store struct {
	client s3iface.S3API
	bucket string
	log    *zap.Logger
}

// NewS3Store builds a client from the default credential chain.
func NewS3Store(region, bucket string, log *zap.Logger) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return NewS3StoreWithClient(s3.New(sess), bucket, log), nil
}

func NewS3StoreWithClient(client s3iface.S3API, bucket string, log *zap.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, log: log}
}

func (s *S3Store) Save(ctx context.Context, image Image, data []byte) (string, error) {
	key := s3Prefix + objectName(image)

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(image.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	s.log.Debug("image stored", zap.String("bucket", s.bucket), zap.String("key", key))
	return key, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key := strings.TrimPrefix(strings.TrimSpace(ref), "/")
	if key == "" {
		return nil
	}
	if !strings.HasPrefix(key, s3Prefix) {
		return fmt.Errorf("refusing non-product key: %s", ref)
	}

	// S3 reports success for keys that do not exist.
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
