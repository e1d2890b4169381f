package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/ports"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3FrameStore struct {
	client s3PutAPI
	bucket string
}

// NewS3FrameStore talks to AWS S3, or to an S3-compatible endpoint (MinIO, localstack)
// with path-style addressing when endpoint is set.
func NewS3FrameStore(cfg aws.Config, bucket, endpoint string) ports.ObjectStore {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3FrameStore{client: client, bucket: bucket}
}

// Put never overwrites: If-None-Match makes a taken key fail with ErrObjectExists.
func (s *S3FrameStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return fmt.Errorf("put object %s: %w", key, ports.ErrObjectExists)
			}
		}
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
