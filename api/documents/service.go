package documents

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/sri-ravi13/Orphan-Management-System/api/shared"
	"github.com/sri-ravi13/Orphan-Management-System/common/jobs"
	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/storage"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrNoFile           = errors.New("No file uploaded.")
	ErrChildNotFound    = errors.New("Child not found.")
	ErrDocumentNotFound = errors.New("Document not found.")
	ErrFileNotFound     = errors.New("File not found on server.")
)

type Service interface {
	AddDocument(ctx context.Context, childId string, upload *shared.Upload) (store.Document, error)
	ListDocuments(ctx context.Context, childId string) ([]store.Document, error)
	DownloadDocument(ctx context.Context, documentId string) (store.Document, []byte, error)
	DeleteDocument(ctx context.Context, documentId string) error
}

type DocumentService struct {
	Store interface {
		ChildExists(tx *gorm.DB, childId string) (bool, error)
		AddDocument(tx *gorm.DB, document store.Document) (store.Document, error)
		GetDocument(tx *gorm.DB, documentId string) (store.Document, error)
		ListDocumentsOfChild(tx *gorm.DB, childId string) ([]store.Document, error)
		DeleteDocument(tx *gorm.DB, documentId string) (store.Document, error)
	} `inject:""`
	Jobs interface {
		Enqueue(ctx context.Context, jobType string, payload interface{}) (store.BackgroundJob, error)
	} `inject:""`
	Storage storage.Storage `inject:""`
	Logger  *log.Logger     `inject:""`
}

// AddDocument checks the child before touching the storage, a rejected
// upload leaves nothing behind.
func (d *DocumentService) AddDocument(ctx context.Context, childId string, upload *shared.Upload) (store.Document, error) {
	if upload == nil {
		return store.Document{}, ErrNoFile
	}

	exists, err := d.Store.ChildExists(nil, childId)
	if err != nil {
		return store.Document{}, errors.Wrap(err, "failed to add document")
	}
	if !exists {
		return store.Document{}, ErrChildNotFound
	}

	now := time.Now().UTC()
	name := fmt.Sprintf("doc-%s-%d-%s", childId, now.UnixNano()/int64(time.Millisecond), storage.SanitizeFilename(upload.Filename))
	url, err := d.Storage.Store(ctx, name, bytes.NewReader(upload.Content))
	if err != nil {
		return store.Document{}, errors.Wrap(err, "failed to store document")
	}

	document, err := d.Store.AddDocument(nil, store.Document{
		ChildId:    store.NullString(childId),
		Filename:   store.NullString(upload.Filename),
		Path:       store.NullString(url),
		Mimetype:   store.NullString(upload.Mimetype),
		Size:       upload.Size(),
		UploadDate: now,
	})
	if err != nil {
		if delErr := d.Storage.Delete(ctx, url); delErr != nil {
			d.Logger.Warn(ctx, "failed to delete orphan document", "url", url, "err", delErr)
		}
		return store.Document{}, errors.Wrap(err, "failed to add document")
	}
	return document, nil
}

func (d *DocumentService) ListDocuments(ctx context.Context, childId string) ([]store.Document, error) {
	documents, err := d.Store.ListDocumentsOfChild(nil, childId)
	if err != nil {
		return make([]store.Document, 0), errors.Wrap(err, "failed to list documents")
	}
	return documents, nil
}

func (d *DocumentService) DownloadDocument(ctx context.Context, documentId string) (store.Document, []byte, error) {
	document, err := d.Store.GetDocument(nil, documentId)
	if err == store.ErrDocumentNotFound {
		return store.Document{}, nil, ErrDocumentNotFound
	}
	if err != nil {
		return store.Document{}, nil, errors.Wrap(err, "failed to get document")
	}

	reader, err := d.Storage.Open(ctx, document.Path.String)
	if err == storage.ErrNotFound {
		d.Logger.Err(ctx, "file not found on server", "documentId", documentId, "path", document.Path.String)
		return store.Document{}, nil, ErrFileNotFound
	}
	if err != nil {
		return store.Document{}, nil, errors.Wrap(err, "failed to open document")
	}
	defer reader.Close()

	content, err := ioutil.ReadAll(reader)
	if err != nil {
		return store.Document{}, nil, errors.Wrap(err, "failed to read document")
	}
	return document, content, nil
}

// DeleteDocument removes the row first, the file follows in a background job.
func (d *DocumentService) DeleteDocument(ctx context.Context, documentId string) error {
	document, err := d.Store.DeleteDocument(nil, documentId)
	if err == store.ErrDocumentNotFound {
		return ErrDocumentNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete document")
	}

	if _, err := d.Jobs.Enqueue(ctx, jobs.TYPE_FILE_CLEANUP, jobs.FileCleanup{Paths: []string{document.Path.String}}); err != nil {
		d.Logger.Err(ctx, "failed to schedule file cleanup", "path", document.Path.String, "err", err)
	}
	return nil
}
