package oauthclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/rdmhub/rdmbackend/services/oauth/oauthclient/challenge"
	"github.com/rdmhub/rdmbackend/services/oauth/providers"
)

const exampleScopes = "deposit:write"

func TestOAuthClient(t *testing.T) {
	t.Run("Compose auth url", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		randomStringer := challenge.NewMockRandomStringer(ctrl)
		randomStringer.EXPECT().Create().Return("exampleseed", nil)

		provs := providers.NewProviders()
		provs.Set("zenodo", "zenodo_client_id", "zenodo_secret", "", "")

		oauthClient := NewOAuthClient(provs, randomStringer)
		url, verifier, err := oauthClient.ComposeAuthURL(context.TODO(), ComposeAuthURLRequest{
			ProviderName:  "zenodo",
			CompletionURL: "http://localhost:8888/oauth/done",
			Scope:         exampleScopes,
			State:         "abcdef",
		})
		assert.NoError(t, err)
		assert.Equal(t, "exampleseed", verifier)
		assert.Equal(t, "https://zenodo.org/oauth/authorize?client_id=zenodo_client_id&code_challenge=-je5JscRMIK2pf8g9ZIixoMZuSYXigcQz6UDgrXTDcE&code_challenge_method=S256&redirect_uri=http%3A%2F%2Flocalhost%3A8888%2Foauth%2Fdone&response_type=code&scope=deposit%3Awrite&state=abcdef", url)
	})

	t.Run("Get access token", func(t *testing.T) {
		mux := http.NewServeMux()
		ts := httptest.NewServer(mux)
		defer ts.Close()

		exampleResp := GetTokenResponse{
			TokenType:    "bearer",
			ExpiresIn:    12345,
			AccessToken:  "abc123",
			Scope:        exampleScopes,
			RefreshToken: "rst456",
		}
		mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/oauth/token", r.RequestURI)
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			clientID, clientSecret, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "123", clientID)
			assert.Equal(t, "456", clientSecret)

			err := r.ParseForm()
			assert.NoError(t, err)

			assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
			assert.Equal(t, "http://localhost:8080/oauth/done", r.Form.Get("redirect_uri"))
			assert.Equal(t, "mycode", r.Form.Get("code"))
			assert.Equal(t, "exampleseed", r.Form.Get("code_verifier"))

			w.WriteHeader(200)
			w.Header().Set("Content-Type", "application/json")
			err = json.NewEncoder(w).Encode(exampleResp)
			assert.NoError(t, err)
		})

		provs := providers.NewProviders()
		provs.Set("zenodo", "123", "456", ts.URL, ts.URL)

		client := NewOAuthClient(provs, challenge.NewRandomStringer())
		resp, err := client.GetAccessToken(context.TODO(), GetTokenRequest{
			ProviderName: "zenodo",
			RedirectURI:  "http://localhost:8080/oauth/done",
			Code:         "mycode",
			CodeVerifier: "exampleseed",
		})
		assert.NoError(t, err)
		assert.Equal(t, exampleResp, resp)
	})

	t.Run("Refresh access token", func(t *testing.T) {
		mux := http.NewServeMux()
		ts := httptest.NewServer(mux)
		defer ts.Close()

		exampleResp := GetTokenResponse{
			TokenType:    "bearer",
			ExpiresIn:    12345,
			AccessToken:  "newabc123",
			Scope:        exampleScopes,
			RefreshToken: "newrst456",
		}
		mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			clientID, clientSecret, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "123", clientID)
			assert.Equal(t, "456", clientSecret)

			err := r.ParseForm()
			assert.NoError(t, err)

			assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
			assert.Equal(t, "r999", r.Form.Get("refresh_token"))

			w.WriteHeader(200)
			w.Header().Set("Content-Type", "application/json")
			err = json.NewEncoder(w).Encode(exampleResp)
			assert.NoError(t, err)
		})

		provs := providers.NewProviders()
		provs.Set("zenodo", "123", "456", ts.URL, ts.URL)

		client := NewOAuthClient(provs, challenge.NewRandomStringer())
		resp, err := client.RefreshAccessToken(context.TODO(), RefreshTokenRequest{
			ProviderName: "zenodo",
			RefreshToken: "r999",
		})
		assert.NoError(t, err)
		assert.Equal(t, exampleResp, resp)
	})

	t.Run("Refresh access token: remote rejects", func(t *testing.T) {
		mux := http.NewServeMux()
		ts := httptest.NewServer(mux)
		defer ts.Close()

		mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(401)
		})

		provs := providers.NewProviders()
		provs.Set("zenodo", "123", "456", ts.URL, ts.URL)

		client := NewOAuthClient(provs, challenge.NewRandomStringer())
		_, err := client.RefreshAccessToken(context.TODO(), RefreshTokenRequest{
			ProviderName: "zenodo",
			RefreshToken: "expired",
		})
		assert.Error(t, err)
	})

	t.Run("Cancel access token", func(t *testing.T) {
		mux := http.NewServeMux()
		ts := httptest.NewServer(mux)
		defer ts.Close()

		mux.HandleFunc("/oauth/revoke", func(w http.ResponseWriter, r *http.Request) {
			clientID, clientSecret, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "123", clientID)
			assert.Equal(t, "456", clientSecret)

			err := r.ParseForm()
			assert.NoError(t, err)

			assert.Equal(t, "abc123", r.Form.Get("token"))
			assert.Equal(t, "access_token", r.Form.Get("token_type_hint"))

			w.WriteHeader(200)
		})

		provs := providers.NewProviders()
		provs.Set("zenodo", "123", "456", ts.URL, ts.URL)

		client := NewOAuthClient(provs, challenge.NewRandomStringer())
		err := client.CancelAccessToken(context.TODO(), CancelTokenRequest{
			ProviderName: "zenodo",
			AccessToken:  "abc123",
		})
		assert.NoError(t, err)
	})
}
