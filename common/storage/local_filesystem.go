package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"

	"github.com/pkg/errors"
)

type LocalStorage struct {
	Config *shared.AppConfig `inject:""`
}

func (s *LocalStorage) Store(ctx context.Context, name string, content io.Reader) (string, error) {
	name, err := objectName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Config.UploadsDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create uploads directory")
	}

	filePath := filepath.Join(s.Config.UploadsDir, name)
	file, err := os.Create(filePath)
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(file, content); err != nil {
		file.Close()
		os.Remove(filePath)
		return "", err
	}
	if err = file.Close(); err != nil {
		os.Remove(filePath)
		return "", err
	}

	return path.Join(s.Config.UploadsUrlPrefix, name), nil
}

func (s *LocalStorage) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	name, err := objectName(url)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.Config.UploadsDir, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return file, err
}

func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	name, err := objectName(url)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.Config.UploadsDir, name))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}
