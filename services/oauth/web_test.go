package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/rdmhub/rdmbackend/lib/mypublisher"
	"github.com/rdmhub/rdmbackend/lib/mystore"
	"github.com/rdmhub/rdmbackend/lib/mytime"
	"github.com/rdmhub/rdmbackend/lib/myuuid"
	"github.com/rdmhub/rdmbackend/lib/myvault"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthclient"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthevents"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthvault"
	"github.com/rdmhub/rdmbackend/services/oauth/providers"
)

const (
	zenodoExampleScopes = "deposit:write"
)

func TestOauth(t *testing.T) {

	t.Run("Get oauth admin page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, tokenVault, _, _, _, _ := setup(t, ctrl)

		tokenVault.EXPECT().Get(gomock.Any(), oauthvault.CreateTokenUID("zenodo", "admin")).Return(oauthvault.Token{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "admin",
			SessionUID:   "xyz",
			Scopes:       zenodoExampleScopes,
			CreatedAt:    mytime.ExampleTime,
			LastModified: &mytime.ExampleTime,
			AccessToken:  "abc123",
			RefreshToken: "rst456",
			ExpiresIn:    func() *time.Time { t := mytime.ExampleTime.Add(24 * 60 * 60 * time.Second); return &t }(),
		}, true, nil)

		tokenVault.EXPECT().Get(gomock.Any(), oauthvault.CreateTokenUID("zenodo-sandbox", "admin")).Return(oauthvault.Token{}, false, nil)

		// when
		request, err := http.NewRequest(http.MethodGet, "/oauth/admin", nil)
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()

		assert.Contains(t, got, "<td>zenodo_client_id</td>")
		assert.Contains(t, got, "Refresh zenodo token")
		assert.Contains(t, got, "Invalidate zenodo token")
		assert.Contains(t, got, "OAuth connect with zenodo-sandbox")
		assert.NotContains(t, got, "Refresh zenodo-sandbox token")
	})

	t.Run("Start oauth", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, partyVault, sessionStorer, _, nower, uuider, oauthClient, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("abcdef")

		oauthClient.EXPECT().ComposeAuthURL(gomock.Any(), oauthclient.ComposeAuthURLRequest{
			ProviderName:  "zenodo",
			ClientID:      "zenodo_client_id",
			CompletionURL: "http://localhost:8888/oauth/done",
			Scope:         zenodoExampleScopes,
			State:         "abcdef",
		}).Return("http://authorization_server.org/url", "verifierseed", nil)

		sessionStorer.EXPECT().RunInTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, f func(ctx context.Context) error) error {
				return f(ctx)
			})
		partyVault.EXPECT().Put(gomock.Any(), "zenodo", gomock.Any()).Return(nil)
		sessionStorer.EXPECT().Put(gomock.Any(), "abcdef", gomock.Any()).DoAndReturn(
			func(ctx context.Context, uid string, session OAuthSessionSetup) error {
				assert.Equal(t, "abcdef", session.UID)
				assert.Equal(t, "user1", session.UserUID)
				assert.Equal(t, "http://localhost:8888/project/p123", session.ReturnURL)
				assert.Equal(t, "verifierseed", session.Verifier)
				assert.Equal(t, "2023-02-27T23:58:59", session.CreatedAt.Format("2006-01-02T15:04:05"))
				assert.Equal(t, "2023-02-27T23:58:59", session.LastModified.Format("2006-01-02T15:04:05"))
				return nil
			})

		publisher.EXPECT().Publish(gomock.Any(), oauthevents.TopicName, oauthevents.OAuthSessionSetupStarted{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "abcdef",
			Scopes:       zenodoExampleScopes,
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/oauth/start/zenodo",
			strings.NewReader(`userUID=user1&returnURL=http://localhost:8888/project/p123&scopes=deposit:write`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		redirectURL := response.Header().Get("Location")
		assert.Equal(t, "http://authorization_server.org/url", redirectURL)
	})

	t.Run("Done oauth", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, sessionStorer, tokenVault, nower, _, oauthClient, publisher := setup(t, ctrl)

		exampleResp := oauthclient.GetTokenResponse{
			TokenType:    "bearer",
			ExpiresIn:    24 * 60 * 60,
			AccessToken:  "abc123",
			Scope:        zenodoExampleScopes,
			RefreshToken: "rst456",
		}

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		sessionStorer.EXPECT().RunInTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, f func(ctx context.Context) error) error {
				return f(ctx)
			})
		sessionStorer.EXPECT().Get(gomock.Any(), "abcdef").Return(OAuthSessionSetup{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UID:          "abcdef",
			UserUID:      "user1",
			Scopes:       zenodoExampleScopes,
			ReturnURL:    "http://localhost:8888/project/p123",
			Verifier:     "verifierseed",
			CreatedAt:    mytime.ExampleTime,
		}, true, nil)
		oauthClient.EXPECT().GetAccessToken(gomock.Any(), oauthclient.GetTokenRequest{
			ProviderName: "zenodo",
			RedirectURI:  "http://localhost:8888/oauth/done",
			Code:         "789",
			CodeVerifier: "verifierseed",
		}).Return(exampleResp, nil)
		sessionStorer.EXPECT().Put(gomock.Any(), "abcdef", gomock.Any()).DoAndReturn(
			func(ctx context.Context, uid string, session OAuthSessionSetup) error {
				assert.Equal(t, "abcdef", session.UID)
				assert.True(t, session.Done)
				assert.Equal(t, exampleResp, *session.TokenData)
				return nil
			})
		tokenVault.EXPECT().Put(gomock.Any(), oauthvault.CreateTokenUID("zenodo", "user1"), oauthvault.Token{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "abcdef",
			Scopes:       zenodoExampleScopes,
			CreatedAt:    mytime.ExampleTime,
			LastModified: &mytime.ExampleTime,
			AccessToken:  "abc123",
			RefreshToken: "rst456",
			ExpiresIn:    func() *time.Time { t := mytime.ExampleTime.Add(24 * 60 * 60 * time.Second); return &t }(),
		}).Return(nil)
		publisher.EXPECT().Publish(gomock.Any(), oauthevents.TopicName, oauthevents.OAuthSessionSetupCompleted{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "abcdef",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodGet, "/oauth/done?code=789&state=abcdef", nil)
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		redirectURL := response.Header().Get("Location")
		assert.Equal(t, "http://localhost:8888/project/p123", redirectURL)
	})

	t.Run("Refresh token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, sessionStorer, vault, nower, uuider, oauthClient, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("xyz")
		sessionStorer.EXPECT().RunInTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, f func(ctx context.Context) error) error {
				return f(ctx)
			})

		vault.EXPECT().Get(gomock.Any(), oauthvault.CreateTokenUID("zenodo", "user1")).Return(oauthvault.Token{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "abcdef",
			Scopes:       zenodoExampleScopes,
			CreatedAt:    mytime.ExampleTime,
			LastModified: &mytime.ExampleTime,
			AccessToken:  "abc123",
			RefreshToken: "rst456",
			ExpiresIn:    func() *time.Time { t := mytime.ExampleTime.Add(24 * 60 * 60 * time.Second); return &t }(),
		}, true, nil)
		oauthClient.EXPECT().RefreshAccessToken(gomock.Any(), oauthclient.RefreshTokenRequest{
			ProviderName: "zenodo",
			RefreshToken: "rst456",
		}).Return(oauthclient.GetTokenResponse{
			TokenType:    "bearer",
			ExpiresIn:    24 * 60 * 60,
			AccessToken:  "abc123new",
			Scope:        zenodoExampleScopes,
			RefreshToken: "rst456new",
		}, nil)
		vault.EXPECT().Put(gomock.Any(), oauthvault.CreateTokenUID("zenodo", "user1"), oauthvault.Token{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "abcdef",
			Scopes:       zenodoExampleScopes,
			CreatedAt:    mytime.ExampleTime,
			LastModified: &mytime.ExampleTime,
			AccessToken:  "abc123new",
			RefreshToken: "rst456new",
			ExpiresIn:    func() *time.Time { t := mytime.ExampleTime.Add(24 * 60 * 60 * time.Second); return &t }(),
		}).Return(nil)
		publisher.EXPECT().Publish(gomock.Any(), oauthevents.TopicName, oauthevents.OAuthTokenRefreshCompleted{
			ProviderName: "zenodo",
			UID:          "xyz",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "abcdef",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/oauth/refresh/zenodo", strings.NewReader(`userUID=user1`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "/oauth/admin", response.Header().Get("Location"))
	})

	t.Run("Refresh token: nothing to refresh", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, sessionStorer, vault, nower, uuider, _, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("xyz")
		sessionStorer.EXPECT().RunInTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, f func(ctx context.Context) error) error {
				return f(ctx)
			})
		vault.EXPECT().Get(gomock.Any(), oauthvault.CreateTokenUID("zenodo", "user1")).Return(oauthvault.Token{}, false, nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/oauth/refresh/zenodo", strings.NewReader(`userUID=user1`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 403, response.Code)
	})

	t.Run("Cancel token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, sessionStorer, vault, nower, _, oauthClient, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		sessionStorer.EXPECT().RunInTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, f func(ctx context.Context) error) error {
				return f(ctx)
			})
		vault.EXPECT().Get(gomock.Any(), oauthvault.CreateTokenUID("zenodo", "user1")).Return(oauthvault.Token{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "abcdef",
			Scopes:       zenodoExampleScopes,
			CreatedAt:    mytime.ExampleTime,
			LastModified: &mytime.ExampleTime,
			AccessToken:  "abc123",
			RefreshToken: "rst456",
			ExpiresIn:    func() *time.Time { t := mytime.ExampleTime.Add(24 * 60 * 60 * time.Second); return &t }(),
		}, true, nil)
		oauthClient.EXPECT().CancelAccessToken(gomock.Any(), oauthclient.CancelTokenRequest{
			ProviderName: "zenodo",
			AccessToken:  "abc123",
		}).Return(nil)
		vault.EXPECT().Put(gomock.Any(), oauthvault.CreateTokenUID("zenodo", "user1"), oauthvault.Token{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "",
			Scopes:       "",
			CreatedAt:    mytime.ExampleTime,
			LastModified: &mytime.ExampleTime,
			AccessToken:  "",
			RefreshToken: "",
			ExpiresIn:    nil,
		}).Return(nil)
		publisher.EXPECT().Publish(gomock.Any(), oauthevents.TopicName, oauthevents.OAuthTokenCancelCompleted{
			ProviderName: "zenodo",
			ClientID:     "zenodo_client_id",
			UserUID:      "user1",
			SessionUID:   "abcdef",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/oauth/cancel/zenodo", strings.NewReader(`userUID=user1`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "/oauth/admin", response.Header().Get("Location"))
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, *myvault.MockVaultReadWriter[providers.OauthParty], *mystore.MockStore[OAuthSessionSetup], *myvault.MockVaultReadWriter[oauthvault.Token], *mytime.MockNower, *myuuid.MockUUIDer, *oauthclient.MockOauthClient, *mypublisher.MockPublisher) {
	ctx := context.TODO()
	router := mux.NewRouter()
	partyVault := myvault.NewMockVaultReadWriter[providers.OauthParty](ctrl)
	sessionStore := mystore.NewMockStore[OAuthSessionSetup](ctrl)
	tokenVault := myvault.NewMockVaultReadWriter[oauthvault.Token](ctrl)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	oauthClient := oauthclient.NewMockOauthClient(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)
	registry := providers.NewProviders()
	registry.Set("zenodo", "zenodo_client_id", "zenodo_secret", "", "")
	sut := NewService(partyVault, sessionStore, tokenVault, nower, uuider, oauthClient, publisher, registry)

	publisher.EXPECT().CreateTopic(gomock.Any(), oauthevents.TopicName).Return(nil)

	err := sut.RegisterEndpoints(ctx, router)
	assert.NoError(t, err)

	return ctx, router, partyVault, sessionStore, tokenVault, nower, uuider, oauthClient, publisher
}
