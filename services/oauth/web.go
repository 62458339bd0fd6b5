package oauth

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rdmhub/rdmbackend/lib/mycontext"
	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/myhttp"
	"github.com/rdmhub/rdmbackend/lib/mylog"
	"github.com/rdmhub/rdmbackend/lib/mypublisher"
	"github.com/rdmhub/rdmbackend/lib/mystore"
	"github.com/rdmhub/rdmbackend/lib/mytime"
	"github.com/rdmhub/rdmbackend/lib/myuuid"
	"github.com/rdmhub/rdmbackend/lib/myvault"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthclient"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthvault"
	"github.com/rdmhub/rdmbackend/services/oauth/providers"
)

type webService struct {
	service *service
	logger  mylog.Logger
}

func NewService(partyVault myvault.VaultReadWriter[providers.OauthParty], sessionStore mystore.Store[OAuthSessionSetup], vault myvault.VaultReadWriter[oauthvault.Token], nower mytime.Nower, uuider myuuid.UUIDer, oauthClient oauthclient.OauthClient, pub mypublisher.Publisher, providers providers.OAuthProvider) *webService {
	return &webService{
		service: newService(partyVault, sessionStore, vault, nower, uuider, oauthClient, pub, providers),
		logger:  mylog.New("oauth"),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/oauth/admin", s.adminPage()).Methods("GET")

	router.HandleFunc("/oauth/start/{providerName}", s.startPage()).Methods("GET")  // as redirected to from providers
	router.HandleFunc("/oauth/start/{providerName}", s.startPage()).Methods("POST") // as used from screens
	router.HandleFunc("/oauth/done", s.donePage()).Methods("GET")
	router.HandleFunc("/oauth/refresh/{providerName}", s.refreshTokenPage()).Methods("GET") // cron support only get
	router.HandleFunc("/oauth/refresh/{providerName}", s.refreshTokenPage()).Methods("POST")
	router.HandleFunc("/oauth/cancel/{providerName}", s.cancelTokenPage()).Methods("POST")

	err := s.service.CreateTopics(context.Background())
	if err != nil {
		return err
	}

	return nil
}

// RefreshToken performs the single silent refresh on behalf of export providers.
func (s *webService) RefreshToken(c context.Context, providerName string, userUID string) (oauthvault.Token, error) {
	return s.service.refreshToken(c, providerName, userUID)
}

//go:embed templates
var templateFolder embed.FS
var (
	adminPageTemplate *template.Template
)

func init() {
	adminPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/admin.html"))
}

func (s *webService) adminPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		userUID := r.URL.Query().Get("userUID")
		if userUID == "" {
			userUID = "admin"
		}

		oauthStatuses, err := s.service.getOauthStatus(c, userUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = adminPageTemplate.Execute(w, oauthStatuses)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInternalError(err))
			return
		}
	}
}

func (s *webService) startPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		providerName := mux.Vars(r)["providerName"]
		if providerName == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing providerName")))
			return
		}

		err := r.ParseForm()
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		requestedScopes := r.FormValue("scopes")

		originalReturnURL := r.FormValue("returnURL")
		if originalReturnURL == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing returnURL")))
			return
		}

		userUID := r.FormValue("userUID")
		if userUID == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing userUID")))
			return
		}

		authenticationURL, err := s.service.start(c, providerName, userUID,
			requestedScopes, originalReturnURL, myhttp.HostnameWithScheme(r))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		http.Redirect(w, r, authenticationURL, http.StatusSeeOther)
	}
}

func (s *webService) donePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		errorCode := r.URL.Query().Get("error")
		if errorCode != "" {
			errorDescription := r.URL.Query().Get("error_description")
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("%s (%s)", errorCode, errorDescription)))
			return
		}

		sessionUID := r.URL.Query().Get("state")
		if sessionUID == "" {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("missing state")))
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			errorWriter.WriteError(c, w, 3, myerrors.NewInvalidInputError(fmt.Errorf("missing code")))
			return
		}

		originalRedirectURL, err := s.service.done(c, sessionUID, code, myhttp.HostnameWithScheme(r))
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		http.Redirect(w, r, originalRedirectURL, http.StatusSeeOther)
	}
}

func (s *webService) refreshTokenPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		providerName := mux.Vars(r)["providerName"]
		if providerName == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing providerName")))
			return
		}

		userUID := r.FormValue("userUID")
		if userUID == "" {
			userUID = "admin"
		}

		_, err := s.service.refreshToken(c, providerName, userUID)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		http.Redirect(w, r, "/oauth/admin", http.StatusSeeOther)
	}
}

func (s *webService) cancelTokenPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		providerName := mux.Vars(r)["providerName"]
		if providerName == "" {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("missing providerName")))
			return
		}

		userUID := r.FormValue("userUID")
		if userUID == "" {
			userUID = "admin"
		}

		err := s.service.cancelToken(c, providerName, userUID)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		http.Redirect(w, r, "/oauth/admin", http.StatusSeeOther)
	}
}
