package oauthvault

import "time"

const (
	CurrentToken = "currentToken"
)

type Token struct {
	ProviderName string
	ClientID     string
	UserUID      string
	SessionUID   string
	Scopes       string
	CreatedAt    time.Time
	LastModified *time.Time
	AccessToken  string
	RefreshToken string
	ExpiresIn    *time.Time
}

// CreateTokenUID composes the vault key: tokens are kept per provider per user.
func CreateTokenUID(providerName string, userUID string) string {
	return CurrentToken + "_" + providerName + "_" + userUID
}
