package providers

import "fmt"

type EndPoint struct {
	Hostname string
	Path     string
}

func (ep EndPoint) GetFullURL() string {
	return ep.Hostname + ep.Path
}

type OauthParty struct {
	ClientID       string
	Secret         string
	AuthEndpoint   EndPoint
	TokenEndpoint  EndPoint
	DefaultScopes  string
	GetCredentials func(p OauthParty) (string, string)
}

type OAuthProvider interface {
	All() map[string]OauthParty
	Set(providerName string, clientID string, secret string, authHostname string, tokenHostname string)
	Get(providerName string) (OauthParty, error)
}

type OAuthProviders struct {
	providers map[string]OauthParty
}

// NewProviders seeds the known endpoints. Credentials stay empty until Set
// provides them from the environment.
func NewProviders() *OAuthProviders {
	return &OAuthProviders{
		providers: map[string]OauthParty{
			"zenodo": {
				AuthEndpoint: EndPoint{
					Hostname: "https://zenodo.org",
					Path:     "/oauth/authorize",
				},
				TokenEndpoint: EndPoint{
					Hostname: "https://zenodo.org",
					Path:     "/oauth/token",
				},
				DefaultScopes: "deposit:write",
				GetCredentials: func(p OauthParty) (string, string) {
					return p.ClientID, p.Secret
				},
			},
			"zenodo-sandbox": {
				AuthEndpoint: EndPoint{
					Hostname: "https://sandbox.zenodo.org",
					Path:     "/oauth/authorize",
				},
				TokenEndpoint: EndPoint{
					Hostname: "https://sandbox.zenodo.org",
					Path:     "/oauth/token",
				},
				DefaultScopes: "deposit:write",
				GetCredentials: func(p OauthParty) (string, string) {
					return p.ClientID, p.Secret
				},
			},
		},
	}
}

func (op *OAuthProviders) All() map[string]OauthParty {
	return op.providers
}

func (op *OAuthProviders) Set(providerName string, clientID string, secret string, authHostname string, tokenHostname string) {
	provider, found := op.providers[providerName]
	if !found {
		provider = OauthParty{
			AuthEndpoint:  EndPoint{Path: "/oauth/authorize"},
			TokenEndpoint: EndPoint{Path: "/oauth/token"},
			DefaultScopes: "deposit:write",
			GetCredentials: func(p OauthParty) (string, string) {
				return p.ClientID, p.Secret
			},
		}
	}

	if clientID != "" {
		provider.ClientID = clientID
	}

	if secret != "" {
		provider.Secret = secret
	}

	if authHostname != "" {
		provider.AuthEndpoint.Hostname = authHostname
	}

	if tokenHostname != "" {
		provider.TokenEndpoint.Hostname = tokenHostname
	}

	op.providers[providerName] = provider
}

// ValidateCredentials reports an unconfigured client registration before any
// remote call is attempted.
func (p OauthParty) ValidateCredentials(providerName string) error {
	if p.ClientID == "" {
		return fmt.Errorf("oauth provider '%s' has no client_id configured", providerName)
	}
	if p.Secret == "" {
		return fmt.Errorf("oauth provider '%s' has no client_secret configured", providerName)
	}
	return nil
}

func (op *OAuthProviders) Get(providerName string) (OauthParty, error) {
	provider, found := op.providers[providerName]
	if !found {
		return OauthParty{}, fmt.Errorf("oauth provider with name '%s' not found", providerName)
	}
	return provider, nil
}
