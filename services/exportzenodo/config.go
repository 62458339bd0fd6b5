package exportzenodo

import (
	"fmt"
	"strings"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
)

type Config struct {
	ProviderName      string // name under which tokens are vaulted ("zenodo" or "zenodo-sandbox")
	APIBaseURL        string // "https://zenodo.org" or "https://sandbox.zenodo.org"
	ResourceType      string // "dataset" or "publication-<subtype>" like "publication-datamanagementplan"
	Language          string
	Publisher         string
	Notes             string
	AddProjectMembers bool
	Funding           []FundingEntry
}

type FundingEntry struct {
	Funder string // funder DOI, e.g. "10.13039/501100000780"
	Award  string // award number
}

func (f FundingEntry) GrantID() string {
	return f.Funder + "::" + f.Award
}

func (cfg Config) Validate() error {
	if cfg.ProviderName == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("missing provider name"))
	}
	if cfg.APIBaseURL == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("missing api base url"))
	}
	if cfg.ResourceType == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("missing resource type"))
	}
	for _, f := range cfg.Funding {
		if f.Funder == "" || f.Award == "" {
			return myerrors.NewInvalidInputError(fmt.Errorf("incomplete funding entry %+v", f))
		}
	}
	return nil
}

// ParseFunding parses "funder::award,funder::award" as used in the environment.
func ParseFunding(value string) ([]FundingEntry, error) {
	if value == "" {
		return nil, nil
	}
	entries := []FundingEntry{}
	for _, part := range strings.Split(value, ",") {
		funder, award, found := strings.Cut(strings.TrimSpace(part), "::")
		if !found {
			return nil, fmt.Errorf("invalid funding entry '%s': expect funder::award", part)
		}
		entries = append(entries, FundingEntry{Funder: funder, Award: award})
	}
	return entries, nil
}
