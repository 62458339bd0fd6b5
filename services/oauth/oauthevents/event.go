package oauthevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/myevents"
)

const (
	TopicName                      = "oauth"
	oauthSessionSetupStartedName   = TopicName + ".sessionSetup.started"
	oauthSessionSetupCompletedName = TopicName + ".sessionSetup.completed"
	oauthTokenRefreshCompletedName = TopicName + ".tokenRefresh.completed"
	oauthTokenCancelCompletedName  = TopicName + ".tokenCancel.completed"
)

type OAuthEventService interface {
	Subscribe(c context.Context) error
	OnOAuthSessionSetupStarted(c context.Context, topic string, event OAuthSessionSetupStarted) error
	OnOAuthSessionSetupCompleted(c context.Context, topic string, event OAuthSessionSetupCompleted) error
	OnOAuthTokenRefreshCompleted(c context.Context, topic string, event OAuthTokenRefreshCompleted) error
	OnOAuthTokenCancelCompleted(c context.Context, topic string, event OAuthTokenCancelCompleted) error
}

func DispatchEvent(c context.Context, reader io.Reader, service OAuthEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case oauthSessionSetupStartedName:
		{
			event := OAuthSessionSetupStarted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOAuthSessionSetupStarted(c, envelope.Topic, event)
		}
	case oauthSessionSetupCompletedName:
		{
			event := OAuthSessionSetupCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOAuthSessionSetupCompleted(c, envelope.Topic, event)
		}
	case oauthTokenRefreshCompletedName:
		{
			event := OAuthTokenRefreshCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOAuthTokenRefreshCompleted(c, envelope.Topic, event)
		}
	case oauthTokenCancelCompletedName:
		{
			event := OAuthTokenCancelCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOAuthTokenCancelCompleted(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("event %s not supported", envelope.EventTypeName))
	}
}

type OAuthSessionSetupStarted struct {
	ProviderName string
	ClientID     string
	UserUID      string
	SessionUID   string
	Scopes       string
}

func (e OAuthSessionSetupStarted) GetEventTypeName() string {
	return oauthSessionSetupStartedName
}

func (e OAuthSessionSetupStarted) GetAggregateName() string {
	return e.ClientID
}

type OAuthSessionSetupCompleted struct {
	ProviderName string
	ClientID     string
	UserUID      string
	SessionUID   string
	Success      bool
	ErrorMessage string
}

func (e OAuthSessionSetupCompleted) GetEventTypeName() string {
	return oauthSessionSetupCompletedName
}

func (e OAuthSessionSetupCompleted) GetAggregateName() string {
	return e.ClientID
}

type OAuthTokenRefreshCompleted struct {
	ProviderName string
	UID          string
	ClientID     string
	UserUID      string
	SessionUID   string
	Success      bool
	ErrorMessage string
}

func (e OAuthTokenRefreshCompleted) GetEventTypeName() string {
	return oauthTokenRefreshCompletedName
}

func (e OAuthTokenRefreshCompleted) GetAggregateName() string {
	return e.ClientID
}

type OAuthTokenCancelCompleted struct {
	ProviderName string
	ClientID     string
	UserUID      string
	SessionUID   string
}

func (e OAuthTokenCancelCompleted) GetEventTypeName() string {
	return oauthTokenCancelCompletedName
}

func (e OAuthTokenCancelCompleted) GetAggregateName() string {
	return e.ClientID
}
