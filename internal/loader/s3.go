package loader

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/goliatone/go-formmessages/pkg/fetch"
)

// splitS3 splits "bucket/key/with/slashes" into its bucket and key.
func splitS3(location string) (string, string, error) {
	bucket, key, ok := strings.Cut(location, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errors.New("s3 identifier must be s3://bucket/key")
	}
	return bucket, key, nil
}

func loadS3(ctx context.Context, client fetch.S3API, location string, limit int64) ([]byte, error) {
	if client == nil {
		return nil, errors.New("s3 client is not configured")
	}
	bucket, key, err := splitS3(location)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = out.Body.Close()
	}()

	if out.ContentLength != nil && *out.ContentLength > limit {
		return nil, ErrTooLarge
	}
	return readLimited(out.Body, limit)
}
