package internal

import (
	"strings"
	"time"
)

// Document is one JSON record of a tenant collection.
type Document struct {
	Tenant     string    `gorm:"primaryKey;size:63"`
	Collection string    `gorm:"primaryKey;size:128"`
	ID         string    `gorm:"primaryKey;size:64"`
	Body       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func (Document) TableName() string {
	return "sandbox_documents"
}

type Credential struct {
	Tenant        string `gorm:"primaryKey;size:63"`
	Email         string `gorm:"primaryKey;size:254"`
	PasswordHash  string `gorm:"not null"`
	UserID        string `gorm:"not null"`
	MultiLocation bool
	Permissions   string
	CreatedAt     time.Time
}

func (Credential) TableName() string {
	return "sandbox_credentials"
}

func (c Credential) PermissionList() []string {
	if c.Permissions == "" {
		return nil
	}
	return strings.Split(c.Permissions, ",")
}
