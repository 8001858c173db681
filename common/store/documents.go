package store

import (
	"database/sql"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
)

type Document struct {
	DocumentId sql.NullString `gorm:"primary_key"`
	ChildId    sql.NullString `gorm:"index"`
	Filename   sql.NullString
	Path       sql.NullString
	Mimetype   sql.NullString
	Size       int64
	UploadDate time.Time
}

func (Document) TableName() string {
	return "documents"
}

func (s *Store) AddDocument(tx *gorm.DB, document Document) (Document, error) {
	db := s.dbOrTx(tx)

	document.DocumentId = s.newId()
	if document.UploadDate.IsZero() {
		document.UploadDate = time.Now().UTC()
	}
	if err := db.Create(&document).Error; err != nil {
		return Document{}, err
	}
	return document, nil
}

func (s *Store) GetDocument(tx *gorm.DB, documentId string) (Document, error) {
	db := s.dbOrTx(tx)

	document := Document{}
	err := db.Where("document_id = ?", documentId).First(&document).Error
	if gorm.IsRecordNotFoundError(err) {
		return Document{}, ErrDocumentNotFound
	}
	return document, err
}

func (s *Store) ListDocumentsOfChild(tx *gorm.DB, childId string) ([]Document, error) {
	db := s.dbOrTx(tx)

	documents := []Document{}
	if err := db.Where("child_id = ?", childId).Order("upload_date desc").Find(&documents).Error; err != nil {
		return nil, err
	}
	return documents, nil
}

func (s *Store) DeleteDocument(tx *gorm.DB, documentId string) (Document, error) {
	db := s.dbOrTx(tx)

	document, err := s.GetDocument(db, documentId)
	if err != nil {
		return Document{}, err
	}
	if err := db.Where("document_id = ?", documentId).Delete(&Document{}).Error; err != nil {
		return Document{}, err
	}
	return document, nil
}
