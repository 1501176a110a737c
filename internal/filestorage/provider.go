// Package filestorage presigns direct uploads against MinIO or S3.
package filestorage

import (
	"context"
	"fmt"
	"os"
	"strconv"

	consts "github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
)

// FromEnv picks the backend named by STORAGE_PROVIDER ("minio" or "s3").
// An empty value disables uploads and returns a nil provider.
func FromEnv(ctx context.Context) (usecase.FileStorageProvider, error) {
	switch p := os.Getenv(consts.ENV_KEY_STORAGE_PROVIDER); p {
	case "":
		return nil, nil
	case "minio":
		secure := true
		if raw := os.Getenv(consts.ENV_KEY_MINIO_USE_SSL); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("filestorage: invalid %s: %w", consts.ENV_KEY_MINIO_USE_SSL, err)
			}
			secure = v
		}
		m, err := NewMinIOStorage(
			os.Getenv(consts.ENV_KEY_MINIO_BUCKET),
			os.Getenv(consts.ENV_KEY_MINIO_UPLOAD_PATH),
			os.Getenv(consts.ENV_KEY_MINIO_ENDPOINT),
			os.Getenv(consts.ENV_KEY_MINIO_ACCESS_KEY),
			os.Getenv(consts.ENV_KEY_MINIO_SECRET_KEY),
			secure,
		)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "s3":
		f, err := New(ctx,
			os.Getenv(consts.ENV_KEY_S3_BUCKET),
			os.Getenv(consts.ENV_KEY_S3_UPLOAD_PATH),
			os.Getenv(consts.ENV_KEY_S3_REGION),
		)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("filestorage: unknown %s %q", consts.ENV_KEY_STORAGE_PROVIDER, p)
	}
}
