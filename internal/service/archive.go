package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver keeps a copy of uploaded screenshots.
type Archiver interface {
	Archive(ctx context.Context, img Image) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores screenshots in an S3-compatible bucket (AWS, R2, MinIO).
type S3Archive struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

type S3ArchiveConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

func NewS3Archive(ctx context.Context, c S3ArchiveConfig) (*S3Archive, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	region := c.Region
	if region == "" {
		region = "auto"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Archive{client: client, bucket: c.Bucket, now: time.Now}, nil
}

func (a *S3Archive) Archive(ctx context.Context, img Image) (string, error) {
	key := a.objectKey(img)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.MIMEType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (a *S3Archive) objectKey(img Image) string {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext == "" {
		ext = extForMIME(img.MIMEType)
	}
	return fmt.Sprintf("screenshots/%s/%s%s", a.now().Format("2006/01/02"), uuid.NewString(), ext)
}

func extForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ""
}
