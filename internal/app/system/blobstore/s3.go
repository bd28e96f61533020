// internal/app/system/blobstore/s3.go
package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"
)

// S3Config configures the S3 backend. AccessKeyID/SecretAccessKey may
// be empty to use the ambient credential chain (instance role, env).
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string // key prefix inside the bucket, may be empty
	Endpoint        string // custom endpoint for S3-compatible stores, may be empty
	ServeURL        string // public URL base; defaults to the virtual-hosted bucket URL
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3 stores blobs in an S3 bucket (or compatible store).
type S3 struct {
	svc      *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	prefix   string
	serveURL string
	log      *zap.Logger
}

func NewS3(cfg S3Config, logger *zap.Logger) (*S3, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("blobstore: missing S3 region")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blobstore: missing S3 bucket")
	}

	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("blobstore: aws session: %w", err)
	}
	svc := s3.New(sess)

	serveURL := strings.TrimRight(cfg.ServeURL, "/")
	if serveURL == "" {
		serveURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3{
		svc:      svc,
		uploader: s3manager.NewUploaderWithClient(svc),
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		serveURL: serveURL,
		log:      logger,
	}, nil
}

func (s *S3) key(path string) string {
	path = strings.TrimLeft(path, "/")
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

func (s *S3) Put(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	key := s.key(path)
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("blobstore: upload %s: %w", key, err)
	}
	s.log.Debug("blob uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key))
	return s.serveURL + "/" + key, nil
}

func (s *S3) Delete(ctx context.Context, path string) error {
	key := s.key(path)
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("blobstore: delete %s: %w", key, err)
	}
	return nil
}

func (s *S3) PathFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.serveURL+"/")
	if !ok || key == "" {
		return "", false
	}
	if s.prefix != "" {
		key, ok = strings.CutPrefix(key, s.prefix+"/")
		if !ok {
			return "", false
		}
	}
	return key, true
}
