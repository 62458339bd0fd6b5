package exportapi

import (
	"time"
)

const (
	ExportStatusCreated       = "created"
	ExportStatusPublished     = "published"
	ExportStatusPublishFailed = "publish_failed"
)

// ExportContext is what an export provider keeps about one export attempt.
type ExportContext struct {
	ProjectUID        string
	SnapshotUID       string
	UserUID           string
	ProviderName      string
	CreatedAt         time.Time
	LastModified      *time.Time
	OriginalReturnURL string
	DepositionID      string
	DepositionURL     string
	Published         bool
	Status            string
	StatusDetails     string `datastore:",noindex"`
}
