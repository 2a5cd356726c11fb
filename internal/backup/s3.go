package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/mima/internal/netx"
)

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	uploadPresigned = netx.UploadPresigned
)

type S3Options struct {
	Bucket       string
	Region       string
	BaseEndpoint string // empty means AWS itself; set for MinIO and friends
	AccessKey    string
	SecretKey    string
}

// S3Store uploads backups to an S3-compatible bucket: each object gets a
// short-lived pre-signed PUT URL and the document is sent over plain HTTP.
type S3Store struct {
	opts    S3Options
	presign *s3.PresignClient
}

func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 backup: bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 backup: load config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{opts: opts, presign: newS3PresignClient(client)}, nil
}

func (s *S3Store) Put(ctx context.Context, name string, data []byte) error {
	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(name),
		ContentType: aws.String("application/json"),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return fmt.Errorf("s3 backup: presign %s: %w", name, err)
	}

	if err := uploadPresigned(ctx, req.Method, req.URL, req.SignedHeader, data); err != nil {
		return fmt.Errorf("s3 backup: upload %s: %w", name, err)
	}
	return nil
}
