package warmup

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rdmhub/rdmbackend/lib/mycontext"
	"github.com/rdmhub/rdmbackend/lib/myhttp"
	"github.com/rdmhub/rdmbackend/lib/mylog"
	"github.com/rdmhub/rdmbackend/lib/myvault"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthvault"
)

type webService struct {
	logger mylog.Logger
	vault  myvault.VaultReader[oauthvault.Token]
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(vault myvault.VaultReader[oauthvault.Token]) *webService {
	logger := mylog.New("warmup")
	return &webService{
		logger: logger,
		vault:  vault,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")
}

// warmupPage touches the vault so the datastore connection is established
// before real traffic arrives.
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		_, _, err := s.vault.Get(c, oauthvault.CurrentToken)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}
