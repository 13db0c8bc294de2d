package model

import "github.com/google/uuid"

// File is an uploaded file. Content is kept in the database only when no object
// storage is configured; otherwise StorageObjectName points at the stored object.
type File struct {
	ID                int        `gorm:"primaryKey" json:"id"`
	OwnerID           *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Content           []byte     `json:"-"`
	Extension         string     `json:"extension"`
	StorageObjectName *string    `gorm:"type:text" json:"-"`
}
