package exportzenodo

import (
	"context"
	"fmt"

	"github.com/rdmhub/rdmbackend/lib/myhttp"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, oauthevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", oauthevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, oauthevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/export/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", oauthevents.TopicName, err)
	}

	return nil
}

func (s *service) OnOAuthSessionSetupStarted(c context.Context, topic string, event oauthevents.OAuthSessionSetupStarted) error {
	return nil
}

func (s *service) OnOAuthSessionSetupCompleted(c context.Context, topic string, event oauthevents.OAuthSessionSetupCompleted) error {
	return nil
}

func (s *service) OnOAuthTokenRefreshCompleted(c context.Context, topic string, event oauthevents.OAuthTokenRefreshCompleted) error {
	// TODO keep a local token copy instead of reading the shared vault
	return nil
}

func (s *service) OnOAuthTokenCancelCompleted(c context.Context, topic string, event oauthevents.OAuthTokenCancelCompleted) error {
	return nil
}
