package filestorage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	consts "github.com/avatarstudio/avatarstudio/internal/config"
)

type FileStorage struct {
	client     *s3.Client
	bucket     string
	region     string
	uploadPath string
}

func New(ctx context.Context, bucket, uploadPath, region string) (*FileStorage, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("filestorage: aws config: %w", err)
	}
	return &FileStorage{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		region:     cfg.Region,
		uploadPath: strings.Trim(uploadPath, "/"),
	}, nil
}

func (f *FileStorage) objectKey(key string) string {
	return path.Join(f.uploadPath, key)
}

func (f *FileStorage) GetUploadURL(ctx context.Context, key string) (string, error) {
	var (
		objectKey     = f.objectKey(key)
		presignClient = s3.NewPresignClient(f.client)
	)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &f.bucket,
		Key:    &objectKey,
	}, func(po *s3.PresignOptions) {
		po.Expires = time.Minute * consts.PRESIGN_URL_EXPIRE_MINUTES
	})
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (f *FileStorage) GetObjectURL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", f.bucket, f.region, f.objectKey(key)), nil
}
