package s3

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/linkvault/linkvault/pkg/util"
)

type Storage struct {
	AccessKeyId     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`

	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
}

func (s *Storage) Upload(ctx context.Context, path string, r io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket:             aws.String(s.Bucket),
		Key:                aws.String(path),
		Body:               r,
		ContentDisposition: aws.String("attachment"),
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return err
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(path),
	})

	return err
}

func (s *Storage) SignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// NewStorage returns a new initialized Storage
func NewStorage(c map[string]any) (*Storage, error) {
	q := util.ConfigToStruct[Storage](c)
	appCreds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(q.AccessKeyId, q.SecretAccessKey, ""))

	cfg, _ := config.LoadDefaultConfig(context.TODO())

	var endpoint *string
	if q.Endpoint != "" {
		endpoint = aws.String(q.Endpoint)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = q.Region
		o.Credentials = appCreds
		o.BaseEndpoint = endpoint
	})

	q.client = client
	q.uploader = manager.NewUploader(q.client)
	q.presign = s3.NewPresignClient(q.client)

	return q, nil
}
