package exportzenodo

import (
	"fmt"
	"net/http"
)

// DepositionMetadata is the metadata part of the deposit schema.
// Optional fields carry omitempty so that unresolved values stay out of the payload.
type DepositionMetadata struct {
	UploadType       string    `json:"upload_type"`
	PublicationType  string    `json:"publication_type,omitempty"`
	PublicationDate  string    `json:"publication_date"`
	Title            string    `json:"title"`
	Creators         []Creator `json:"creators"`
	Description      string    `json:"description,omitempty"`
	License          string    `json:"license,omitempty"`
	Keywords         []string  `json:"keywords,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	Language         string    `json:"language,omitempty"`
	Grants           []Grant   `json:"grants,omitempty"`
	ImprintPublisher string    `json:"imprint_publisher,omitempty"`
}

type Creator struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

type Grant struct {
	ID string `json:"id"`
}

type depositionRequest struct {
	Metadata DepositionMetadata `json:"metadata"`
}

type Deposition struct {
	ID        int                `json:"id"`
	State     string             `json:"state"`
	Submitted bool               `json:"submitted"`
	Metadata  DepositionMetadata `json:"metadata"`
	Links     DepositionLinks    `json:"links"`
}

type DepositionLinks struct {
	Self       string `json:"self"`
	HTML       string `json:"html"`
	Publish    string `json:"publish"`
	LatestHTML string `json:"latest_html"`
}

// HumanURL is the page to send the user to after a successful export.
func (d Deposition) HumanURL() string {
	if d.Links.LatestHTML != "" {
		return d.Links.LatestHTML
	}
	return d.Links.HTML
}

// RemoteServiceError preserves status and body of a rejected call for display.
type RemoteServiceError struct {
	Operation string
	Status    int
	Body      string
}

func (e RemoteServiceError) Error() string {
	return fmt.Sprintf("%s failed with http status %d: %s", e.Operation, e.Status, e.Body)
}

func (e RemoteServiceError) GetHTTPErrorCode() int {
	return http.StatusBadGateway
}

// AuthenticationRequiredError signals that the user must be sent through
// the authorization flow before the export can be retried.
type AuthenticationRequiredError struct {
	ProviderName string
	UserUID      string
}

func (e AuthenticationRequiredError) Error() string {
	return fmt.Sprintf("user %s must authorize with provider %s", e.UserUID, e.ProviderName)
}

type ExportResult struct {
	ProviderName  string
	ProjectUID    string
	SnapshotUID   string
	DepositionID  string
	DepositionURL string
	Published     bool
	PublishError  string
	ReturnURL     string
}
