package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// UploadTarget is where a client PUTs a file and the URL the stored object
// will be served from afterwards.
type UploadTarget struct {
	UploadURL string
	Path      string
	URL       string
}

// GetUploadURL returns a presigned URL the caller can PUT the file to.
func (u Usecase) GetUploadURL(ctx context.Context, caller Caller, name string) (UploadTarget, error) {
	if err := caller.require(); err != nil {
		return UploadTarget{}, err
	}
	name = path.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return UploadTarget{}, ErrInvalid{Field: "name", Message: "file name must not be empty"}
	}
	if u.fileStorageProvider == nil {
		return UploadTarget{}, errors.New("file storage is not configured")
	}

	p := fmt.Sprintf("%s/%d-%s", caller.ID, u.now().Unix(), name)
	uploadURL, err := u.fileStorageProvider.GetUploadURL(ctx, p)
	if err != nil {
		return UploadTarget{}, err
	}
	objectURL, err := u.fileStorageProvider.GetObjectURL(ctx, p)
	if err != nil {
		return UploadTarget{}, err
	}
	return UploadTarget{UploadURL: uploadURL, Path: p, URL: objectURL}, nil
}
