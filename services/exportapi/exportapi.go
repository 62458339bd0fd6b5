package exportapi

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	formcodec "github.com/go-playground/form/v4"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
)

// Export is the payload a host application hands to an export provider:
// everything the provider needs to compose a deposit for one project snapshot.
type Export struct {
	ProjectUID    string   `form:"projectUid"`
	SnapshotUID   string   `form:"snapshotUid"`
	UserUID       string   `form:"userUid"`
	ReturnURL     string   `form:"returnUrl"`
	DatasetTitle  string   `form:"dataset.title"`
	SnapshotTitle string   `form:"snapshot.title"`
	ProjectTitle  string   `form:"project.title"`
	Description   string   `form:"description"`
	License       string   `form:"license"`
	Keywords      []string `form:"keywords"`
	RecordID      string   `form:"recordId"`
	Authors       []Person `form:"authors"`
	Members       []Person `form:"members"`
}

type Person struct {
	FirstName   string `form:"firstName"`
	LastName    string `form:"lastName"`
	ORCID       string `form:"orcid"`
	Affiliation string `form:"affiliation"`
}

// FullName composes "Last, First" the way deposit schemas expect creator names.
func (p Person) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	if p.FirstName == "" {
		return p.LastName
	}
	return p.LastName + ", " + p.FirstName
}

// Title picks the first non-empty title in fallback order.
func (e Export) Title() string {
	if e.DatasetTitle != "" {
		return e.DatasetTitle
	}
	if e.SnapshotTitle != "" {
		return e.SnapshotTitle
	}
	return e.ProjectTitle
}

func NewFromRequest(r *http.Request) (Export, error) {
	err := r.ParseForm()
	if err != nil {
		return Export{}, myerrors.NewInvalidInputError(err)
	}
	return NewFromValues(r.Form)
}

func NewFromValues(values url.Values) (Export, error) {
	export := Export{}
	err := formcodec.NewDecoder().Decode(&export, values)
	if err != nil {
		return export, fmt.Errorf("error decoding form: %s", err)
	}

	return export, nil
}

func (e Export) ToForm() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(e)
	if err != nil {
		return nil, fmt.Errorf("error encoding form: %s", err)
	}

	return values, nil
}

// FormValuesToHtml renders values as hidden inputs. Titles and descriptions
// are user input, so both names and values are escaped.
func FormValuesToHtml(values url.Values) string {
	buf := strings.Builder{}
	for key, value := range values {
		buf.WriteString(fmt.Sprintf("<input type=\"hidden\" name=\"%s\" value=\"%s\"/>\n",
			html.EscapeString(key), html.EscapeString(value[0])))
	}
	return buf.String()
}
