package filestorage

import (
	"context"
	"strings"
	"testing"
)

func TestFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("STORAGE_PROVIDER", "")
	p, err := FromEnv(ctx)
	if err != nil || p != nil {
		t.Errorf("Expected uploads disabled, got %v, %v", p, err)
	}

	t.Setenv("STORAGE_PROVIDER", "ftp")
	if _, err := FromEnv(ctx); err == nil {
		t.Error("Expected an error for an unknown provider")
	}

	t.Setenv("STORAGE_PROVIDER", "minio")
	t.Setenv("MINIO_USE_SSL", "maybe")
	if _, err := FromEnv(ctx); err == nil {
		t.Error("Expected an error for an invalid MINIO_USE_SSL")
	}
}

func TestMinIOObjectURL(t *testing.T) {
	tests := []struct {
		uploadPath string
		key        string
		want       string
	}{
		{"uploads", "u1/1700000000-a.mp4", "http://localhost:9000/media/uploads/u1/1700000000-a.mp4"},
		{"/uploads/", "u1/b.png", "http://localhost:9000/media/uploads/u1/b.png"},
		{"", "u1/c.png", "http://localhost:9000/media/u1/c.png"},
	}

	for _, tt := range tests {
		m, err := NewMinIOStorage("media", tt.uploadPath, "localhost:9000", "key", "secret", false)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		got, err := m.GetObjectURL(context.Background(), tt.key)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got != tt.want {
			t.Errorf("GetObjectURL(%q) = %s, want %s", tt.key, got, tt.want)
		}
	}
}

func TestS3ObjectURL(t *testing.T) {
	f := &FileStorage{bucket: "media", region: "ap-southeast-1", uploadPath: "uploads"}
	got, err := f.GetObjectURL(context.Background(), "u1/a.png")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.HasPrefix(got, "https://media.s3.ap-southeast-1.amazonaws.com/") || !strings.HasSuffix(got, "/uploads/u1/a.png") {
		t.Errorf("Unexpected object url %s", got)
	}
}
