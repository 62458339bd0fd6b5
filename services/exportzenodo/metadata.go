package exportzenodo

import (
	"strings"
	"time"

	"github.com/rdmhub/rdmbackend/services/exportapi"
)

// Keywords every deposit gets, independent of what the project carries.
var defaultKeywords = []string{"Data Management Plan", "DMP"}

// Mapping from host license option keys to deposit license slugs.
var licenseOptions = map[string]string{
	"dataset_license_types/71":  "cc-by-4.0",
	"dataset_license_types/73":  "cc-by-nc-4.0",
	"dataset_license_types/74":  "cc-by-nd-4.0",
	"dataset_license_types/75":  "cc-by-sa-4.0",
	"dataset_license_types/cc0": "cc-zero",
}

// BuildDepositionMetadata is a pure function from (project data, configuration)
// to the deposit payload. Missing optional fields are omitted, required fields
// are always filled.
func BuildDepositionMetadata(export exportapi.Export, cfg Config, now time.Time) DepositionMetadata {
	uploadType, publicationType := splitResourceType(cfg.ResourceType)

	metadata := DepositionMetadata{
		UploadType:       uploadType,
		PublicationType:  publicationType,
		PublicationDate:  now.Format("2006-01-02"),
		Title:            title(export),
		Creators:         creators(export, cfg),
		Description:      export.Description,
		License:          license(export.License),
		Keywords:         keywords(export),
		Notes:            cfg.Notes,
		Language:         cfg.Language,
		ImprintPublisher: cfg.Publisher,
	}

	for _, f := range cfg.Funding {
		metadata.Grants = append(metadata.Grants, Grant{ID: f.GrantID()})
	}

	return metadata
}

// splitResourceType maps "dataset" to upload-type dataset and
// "publication-datamanagementplan" to upload-type publication with subtype.
func splitResourceType(resourceType string) (string, string) {
	if subType, found := strings.CutPrefix(resourceType, "publication-"); found {
		return "publication", subType
	}
	return resourceType, ""
}

func title(export exportapi.Export) string {
	t := export.Title()
	if t == "" {
		t = "Project " + export.ProjectUID
	}
	return t
}

func creators(export exportapi.Export, cfg Config) []Creator {
	creators := []Creator{}
	for _, author := range export.Authors {
		creators = appendPerson(creators, author)
	}
	if cfg.AddProjectMembers {
		for _, member := range export.Members {
			creators = appendPerson(creators, member)
		}
	}
	return creators
}

func appendPerson(creators []Creator, p exportapi.Person) []Creator {
	name := p.FullName()
	if name == "" {
		// a creator entry without a name is rejected by the deposit api
		return creators
	}
	return append(creators, Creator{
		Name:        name,
		Affiliation: p.Affiliation,
		ORCID:       p.ORCID,
	})
}

func license(optionKey string) string {
	if optionKey == "" {
		return ""
	}
	if slug, found := licenseOptions[optionKey]; found {
		return slug
	}
	// allow a deposit license slug to be passed as-is
	return optionKey
}

func keywords(export exportapi.Export) []string {
	result := append([]string{}, defaultKeywords...)
	result = append(result, export.Keywords...)
	return result
}
