package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// S3Config locates the archive bucket on an S3-compatible backend.
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
	Prefix       string
}

// S3ArchiveSink stores every event as a JSON object.
type S3ArchiveSink struct {
	cfg    S3Config
	client *s3.Client
}

func NewS3ArchiveSink(ctx context.Context, cfg S3Config) (*S3ArchiveSink, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	if cfg.Prefix == "" {
		cfg.Prefix = "events"
	}
	return &S3ArchiveSink{cfg: cfg, client: client}, nil
}

func (s *S3ArchiveSink) Name() string { return "s3" }

// ObjectKey returns the archive key of e, partitioned by day and type.
func (s *S3ArchiveSink) ObjectKey(e models.Event) string {
	d := e.OccurredAt.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s/%s.json", s.cfg.Prefix, d.Year(), d.Month(), d.Day(), e.Type, e.ID)
}

func (s *S3ArchiveSink) Handle(ctx context.Context, e models.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(s.ObjectKey(e)),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", e.ID, err)
	}
	return nil
}
