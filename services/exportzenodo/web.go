package exportzenodo

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/rdmhub/rdmbackend/lib/mycontext"
	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/myhttp"
	"github.com/rdmhub/rdmbackend/lib/mylog"
	"github.com/rdmhub/rdmbackend/lib/mypublisher"
	"github.com/rdmhub/rdmbackend/lib/mypubsub"
	"github.com/rdmhub/rdmbackend/lib/mystore"
	"github.com/rdmhub/rdmbackend/lib/mytime"
	"github.com/rdmhub/rdmbackend/lib/myvault"
	"github.com/rdmhub/rdmbackend/services/exportapi"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthevents"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthvault"
)

//go:embed templates
var templateFolder embed.FS
var (
	exportPageTemplate *template.Template
)

func init() {
	exportPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/export.html"))
}

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg Config, depositor Depositor, exportStore mystore.Store[exportapi.ExportContext], vault myvault.VaultReader[oauthvault.Token], refresher TokenRefresher, nower mytime.Nower, subscriber mypubsub.PubSub, publisher mypublisher.Publisher) (*webService, error) {
	logger := mylog.New("exportzenodo")
	s, err := newService(cfg, depositor, exportStore, vault, refresher, nower, logger, subscriber, publisher)
	if err != nil {
		return nil, err
	}

	return &webService{
		logger:  logger,
		service: s,
	}, nil
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// The two export identifiers selectable from the host's export menu
	router.HandleFunc("/export/zenodo/{projectUID}", s.exportPage(false)).Methods("POST")
	router.HandleFunc("/export/zenodo-publish/{projectUID}", s.exportPage(true)).Methods("POST")

	err := s.service.CreateTopics(c)
	if err != nil {
		return err
	}

	// Listen for token updates
	router.HandleFunc("/api/export/event", s.handleEventEnvelope()).Methods("POST")

	err = s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

func (s *webService) exportPage(publish bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		export, err := parseRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		result, err := s.service.export(c, export, publish)
		if err != nil {
			authErr := AuthenticationRequiredError{}
			if errors.As(err, &authErr) {
				// Send the user through the authorization flow first
				http.Redirect(w, r, composeAuthorizationURL(authErr, export.ReturnURL), http.StatusSeeOther)
				return
			}
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		if result.PublishError != "" {
			// Partial success: show what was created and what failed
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			err = exportPageTemplate.Execute(w, result)
			if err != nil {
				errorWriter.WriteError(c, w, 3, myerrors.NewInternalError(fmt.Errorf("error executing template: %s", err)))
			}
			return
		}

		http.Redirect(w, r, result.DepositionURL, http.StatusSeeOther)
	}
}

func composeAuthorizationURL(authErr AuthenticationRequiredError, returnURL string) string {
	return fmt.Sprintf("/oauth/start/%s?%s", authErr.ProviderName, url.Values{
		"returnURL": []string{returnURL},
		"userUID":   []string{authErr.UserUID},
	}.Encode())
}

func (s *webService) handleEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := oauthevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed event",
		})
	}
}

func parseRequest(r *http.Request) (exportapi.Export, error) {
	projectUID := mux.Vars(r)["projectUID"]
	if projectUID == "" {
		return exportapi.Export{}, myerrors.NewInvalidInputError(fmt.Errorf("missing projectUID"))
	}

	export, err := exportapi.NewFromRequest(r)
	if err != nil {
		return exportapi.Export{}, myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %s", err))
	}
	export.ProjectUID = projectUID

	if export.UserUID == "" {
		return exportapi.Export{}, myerrors.NewInvalidInputError(fmt.Errorf("missing userUid"))
	}

	return export, nil
}
