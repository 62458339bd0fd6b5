package project

import (
	"html/template"
	"strings"
	"time"

	"github.com/rdmhub/rdmbackend/services/exportapi"
)

type Project struct {
	UID                 string
	Title               string
	Description         string
	License             string
	Keywords            []string
	CreatedAt           time.Time
	LastModified        *time.Time
	Authors             []exportapi.Person
	Members             []exportapi.Person
	Snapshots           []Snapshot
	RemoteRecordID      string
	RemoteRecordURL     string
	ExportStatus        string
	ExportStatusDetails string
	LastExportedAt      *time.Time
}

// Snapshot is a frozen version of the project's answers, the unit of export.
type Snapshot struct {
	UID          string
	Title        string
	DatasetTitle string
	CreatedAt    time.Time
}

func (p Project) Timestamp() string {
	return p.CreatedAt.Format("2006-01-02 15:04:05")
}

func (p Project) AuthorSummary() string {
	names := []string{}
	for _, a := range p.Authors {
		names = append(names, a.FullName())
	}
	return strings.Join(names, "; ")
}

func (p Project) IsExported() bool {
	return p.RemoteRecordID != ""
}

func (s Snapshot) Timestamp() string {
	return s.CreatedAt.Format("2006-01-02 15:04:05")
}

type ProjectDetailPageInfo struct {
	Project Project
	Exports []SnapshotExportForm
}

// SnapshotExportForm carries the prefilled hidden fields for one snapshot's
// export form.
type SnapshotExportForm struct {
	Snapshot   Snapshot
	FormFields template.HTML
}
