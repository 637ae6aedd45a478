package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

// S3Store uploads avatars to an S3 bucket and serves them from its public
// URL (or a CDN fronting it).
type S3Store struct {
	Uploader *manager.Uploader
	Bucket   *string
	BaseURL  string
}

func NewS3() (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("aws.access_key_id"),
			viper.GetString("aws.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("aws.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = viper.GetString("aws.region")
	})

	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Store{
		Uploader: manager.NewUploader(client),
		Bucket:   bucket,
		BaseURL:  viper.GetString("aws.public_url"),
	}, nil
}

func (s *S3Store) Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	_, err := s.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      s.Bucket,
		Key:         aws.String("avatars/" + key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar, %w", err)
	}

	return s.BaseURL + "/avatars/" + key, nil
}
