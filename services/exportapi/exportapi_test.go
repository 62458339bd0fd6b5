package exportapi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeSame(t *testing.T) {
	//  encode followed by decode must end up same

	values, err := export.ToForm()
	assert.NoError(t, err)
	exportAgain, err := NewFromValues(values)
	assert.NoError(t, err)

	assert.Equal(t, export, exportAgain)
}

func TestDecode(t *testing.T) {
	form := url.Values{
		"projectUid":             []string{"p123"},
		"snapshotUid":            []string{"s456"},
		"userUid":                []string{"user1"},
		"returnUrl":              []string{"http://localhost/project/p123"},
		"dataset.title":          []string{"Survey measurements 2025"},
		"snapshot.title":         []string{"Snapshot of 2025-06-01"},
		"project.title":          []string{"Climate survey"},
		"description":            []string{"Aggregated measurements"},
		"license":                []string{"dataset_license_types/71"},
		"keywords":               []string{"climate", "survey"},
		"authors[0].firstName":   []string{"Ada"},
		"authors[0].lastName":    []string{"Lovelace"},
		"authors[0].orcid":       []string{"0000-0002-1825-0097"},
		"authors[0].affiliation": []string{"Analytical Engines"},
		"members[0].firstName":   []string{"Grace"},
		"members[0].lastName":    []string{"Hopper"},
	}

	exportAgain, err := NewFromValues(form)
	assert.NoError(t, err)
	assert.Equal(t, export, exportAgain)
}

func TestTitleFallback(t *testing.T) {
	e := Export{DatasetTitle: "d", SnapshotTitle: "s", ProjectTitle: "p"}
	assert.Equal(t, "d", e.Title())
	e.DatasetTitle = ""
	assert.Equal(t, "s", e.Title())
	e.SnapshotTitle = ""
	assert.Equal(t, "p", e.Title())
}

func TestFormValuesToHtml(t *testing.T) {
	got := FormValuesToHtml(url.Values{
		"dataset.title": []string{`Salt marshes & seagrass <"pilot">`},
	})

	assert.Equal(t, "<input type=\"hidden\" name=\"dataset.title\" value=\"Salt marshes &amp; seagrass &lt;&#34;pilot&#34;&gt;\"/>\n", got)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Lovelace, Ada", Person{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Lovelace", Person{LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", Person{FirstName: "Ada"}.FullName())
	assert.Equal(t, "", Person{}.FullName())
}

var export = Export{
	ProjectUID:    "p123",
	SnapshotUID:   "s456",
	UserUID:       "user1",
	ReturnURL:     "http://localhost/project/p123",
	DatasetTitle:  "Survey measurements 2025",
	SnapshotTitle: "Snapshot of 2025-06-01",
	ProjectTitle:  "Climate survey",
	Description:   "Aggregated measurements",
	License:       "dataset_license_types/71",
	Keywords:      []string{"climate", "survey"},
	Authors: []Person{
		{
			FirstName:   "Ada",
			LastName:    "Lovelace",
			ORCID:       "0000-0002-1825-0097",
			Affiliation: "Analytical Engines",
		},
	},
	Members: []Person{
		{
			FirstName: "Grace",
			LastName:  "Hopper",
		},
	},
}
