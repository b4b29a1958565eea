package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignatzorin/ex-server/internal/config"
)

// objectAPI описывает часть клиента S3, которой пользуется хранилище.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage хранит картинки в S3-совместимом бакете.
type S3Storage struct {
	client         objectAPI
	bucket         string
	prefix         string
	publicURL      string
	maxUploadBytes int64
}

// NewS3Storage настраивает клиент S3. При заданном endpoint используется path-style адресация (MinIO).
func NewS3Storage(ctx context.Context, cfg config.S3Config, keyPrefix string, maxUploadMB int64) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось загрузить конфигурацию aws: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Storage(client, cfg, keyPrefix, maxUploadMB), nil
}

func newS3Storage(client objectAPI, cfg config.S3Config, keyPrefix string, maxUploadMB int64) *S3Storage {
	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Storage{
		client:         client,
		bucket:         cfg.Bucket,
		prefix:         strings.Trim(keyPrefix, "/"),
		publicURL:      strings.TrimRight(publicURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}
}

// Save загружает объект и возвращает его публичный URL.
func (s *S3Storage) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := readLimited(r, s.maxUploadBytes)
	if err != nil {
		return "", err
	}

	key := path.Join(s.prefix, sanitizeFilename(name))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: не удалось загрузить объект %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete удаляет объект по публичному URL. Чужие ссылки игнорируются.
func (s *S3Storage) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.publicURL+"/") {
		return nil
	}
	key := strings.TrimPrefix(ref, s.publicURL+"/")

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: не удалось удалить объект %s: %w", key, err)
	}
	return nil
}
