package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignExpiration = 15 * time.Minute

// S3Options - параметры подключения к бакету.
type S3Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint задаётся для S3-совместимых хранилищ (MinIO и т.п.).
	Endpoint    string
	MaxUploadMB int64
}

// S3Storage хранит документы в бакете S3 и выдаёт их по presigned ссылке.
type S3Storage struct {
	bucket         string
	maxUploadBytes int64
	client         *s3.Client
	presign        *s3.PresignClient
}

// NewS3Storage создаёт клиент S3.
func NewS3Storage(ctx context.Context, opts S3Options) (*S3Storage, error) {
	if opts.Bucket == "" {
		return nil, errors.New("storage: не задан бакет S3")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось загрузить конфигурацию AWS: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		bucket:         opts.Bucket,
		maxUploadBytes: opts.MaxUploadMB * 1024 * 1024,
		client:         client,
		presign:        s3.NewPresignClient(client),
	}, nil
}

// Save загружает документ в бакет.
func (s *S3Storage) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return "", ErrTooLarge
	}

	key := path.Join("documents", ownerID.String(), objectName(ownerID, originalName))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: не удалось загрузить объект %s: %w", key, err)
	}
	return key, nil
}

// Delete удаляет объект.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: не удалось удалить объект %s: %w", key, err)
	}
	return nil
}

// Fetch возвращает presigned GET ссылку на объект.
func (s *S3Storage) Fetch(ctx context.Context, key string) (*Document, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiration))
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось подписать ссылку для %s: %w", key, err)
	}
	return &Document{URL: req.URL}, nil
}
