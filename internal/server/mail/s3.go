package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PutObjectAPI is the part of *s3.Client used by S3Outbox.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Settings locates the bucket and credentials of the mail drop.
type S3Settings struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

// S3Outbox stores each message as an .eml object under outbox/YYYY/MM/DD/.
type S3Outbox struct {
	api    PutObjectAPI
	bucket string
	now    func() time.Time
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Client builds an S3 client for an S3-compatible endpoint (MinIO etc).
func NewS3Client(ctx context.Context, s S3Settings) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKey,
			s.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func NewS3Outbox(api PutObjectAPI, bucket string) *S3Outbox {
	return &S3Outbox{api: api, bucket: bucket, now: time.Now}
}

func objectKey(d time.Time) string {
	d = d.UTC()
	return fmt.Sprintf("outbox/%04d/%02d/%02d/%v.eml", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (o *S3Outbox) Send(ctx context.Context, msg Message) error {
	now := o.now()
	body := msg.Bytes(now)
	_, err := o.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(o.bucket),
		Key:           aws.String(objectKey(now)),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("message/rfc822"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put mail object: %w", err)
	}
	return nil
}
