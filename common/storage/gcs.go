package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type Options struct {
	CredentialsFile string
	BucketName      string
	UrlPrefix       string
}

func New(ctx context.Context, options Options) (*GoogleStorage, error) {
	var opts []option.ClientOption
	if options.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(options.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}
	return &GoogleStorage{
		client:    client,
		bucket:    options.BucketName,
		urlPrefix: options.UrlPrefix,
	}, nil
}

type GoogleStorage struct {
	client    *storage.Client
	bucket    string
	urlPrefix string
}

func (s *GoogleStorage) Store(ctx context.Context, name string, content io.Reader) (string, error) {
	name, err := objectName(name)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if _, err = io.Copy(w, content); err != nil {
		w.Close()
		return "", err
	}
	if err = w.Close(); err != nil {
		return "", err
	}

	return path.Join(s.urlPrefix, name), nil
}

func (s *GoogleStorage) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	name, err := objectName(url)
	if err != nil {
		return nil, err
	}
	reader, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return nil, ErrNotFound
	}
	return reader, err
}

func (s *GoogleStorage) Delete(ctx context.Context, url string) error {
	name, err := objectName(url)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return ErrNotFound
	}
	return err
}

func (s *GoogleStorage) Close() error {
	return s.client.Close()
}
