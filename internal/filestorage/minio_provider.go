package filestorage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	consts "github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewMinIOStorage(bucket, uploadPath, endpoint, accessKeyID, secretAccessKey string, secure bool) (*MinIOStorage, error) {
	m, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("filestorage: minio client: %w", err)
	}
	return &MinIOStorage{
		client:     m,
		bucket:     bucket,
		uploadPath: strings.Trim(uploadPath, "/"),
	}, nil
}

type MinIOStorage struct {
	client     *minio.Client
	bucket     string
	uploadPath string
}

func (f *MinIOStorage) objectKey(key string) string {
	return path.Join(f.uploadPath, key)
}

func (f *MinIOStorage) GetUploadURL(ctx context.Context, key string) (string, error) {
	u, err := f.client.PresignedPutObject(ctx, f.bucket, f.objectKey(key), time.Minute*consts.PRESIGN_URL_EXPIRE_MINUTES)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// GetObjectURL is the unsigned address; the bucket policy decides whether it
// is publicly readable.
func (f *MinIOStorage) GetObjectURL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("%s/%s/%s", f.client.EndpointURL(), f.bucket, f.objectKey(key)), nil
}
