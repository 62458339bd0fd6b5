package exportzenodo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/mylog"
	"github.com/rdmhub/rdmbackend/lib/mypublisher"
	"github.com/rdmhub/rdmbackend/lib/mypubsub"
	"github.com/rdmhub/rdmbackend/lib/mystore"
	"github.com/rdmhub/rdmbackend/lib/mytime"
	"github.com/rdmhub/rdmbackend/lib/myvault"
	"github.com/rdmhub/rdmbackend/services/exportapi"
	"github.com/rdmhub/rdmbackend/services/exportevents"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthvault"
)

type service struct {
	cfg         Config
	depositor   Depositor
	exportStore mystore.Store[exportapi.ExportContext]
	vault       myvault.VaultReader[oauthvault.Token]
	refresher   TokenRefresher
	nower       mytime.Nower
	logger      mylog.Logger
	subscriber  mypubsub.PubSub
	publisher   mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(cfg Config, depositor Depositor, exportStore mystore.Store[exportapi.ExportContext], vault myvault.VaultReader[oauthvault.Token], refresher TokenRefresher, nower mytime.Nower, logger mylog.Logger, subscriber mypubsub.PubSub, publisher mypublisher.Publisher) (*service, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &service{
		cfg:         cfg,
		depositor:   depositor,
		exportStore: exportStore,
		vault:       vault,
		refresher:   refresher,
		nower:       nower,
		logger:      logger,
		subscriber:  subscriber,
		publisher:   publisher,
	}, nil
}

func (s *service) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, exportevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", exportevents.TopicName, err)
	}

	return nil
}

// export drives the linear create(-publish) sequence against the deposit api.
func (s *service) export(c context.Context, export exportapi.Export, publish bool) (ExportResult, error) {
	now := s.nower.Now()

	s.logger.Log(c, export.ProjectUID, mylog.SeverityInfo, "Start export of project %s (publish=%t)", export.ProjectUID, publish)

	accessToken, err := s.acquireToken(c, export.UserUID)
	if err != nil {
		return ExportResult{}, err
	}

	err = s.publisher.Publish(c, exportevents.TopicName, exportevents.ExportStarted{
		ProviderName: s.cfg.ProviderName,
		ProjectUID:   export.ProjectUID,
		SnapshotUID:  export.SnapshotUID,
		UserUID:      export.UserUID,
	})
	if err != nil {
		return ExportResult{}, myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
	}

	deposition, err := s.obtainDeposition(c, export, accessToken, now)
	if err != nil {
		return ExportResult{}, err
	}

	result := ExportResult{
		ProviderName:  s.cfg.ProviderName,
		ProjectUID:    export.ProjectUID,
		SnapshotUID:   export.SnapshotUID,
		DepositionID:  strconv.Itoa(deposition.ID),
		DepositionURL: deposition.HumanURL(),
		ReturnURL:     export.ReturnURL,
	}

	status := exportapi.ExportStatusCreated
	if publish {
		published, err := s.depositor.PublishDeposition(c, accessToken, result.DepositionID)
		if err != nil {
			// Partial success: the deposition exists but could not be published.
			// Keep the created id so the user can publish by hand.
			s.logger.Log(c, export.ProjectUID, mylog.SeverityWarn, "Deposition %s created but not published: %s", result.DepositionID, err)
			result.PublishError = err.Error()
			status = exportapi.ExportStatusPublishFailed
		} else {
			result.Published = true
			result.DepositionURL = published.HumanURL()
			status = exportapi.ExportStatusPublished
		}
	}

	err = s.exportStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		err = s.exportStore.Put(c, export.ProjectUID, exportapi.ExportContext{
			ProjectUID:        export.ProjectUID,
			SnapshotUID:       export.SnapshotUID,
			UserUID:           export.UserUID,
			ProviderName:      s.cfg.ProviderName,
			CreatedAt:         now,
			OriginalReturnURL: export.ReturnURL,
			DepositionID:      result.DepositionID,
			DepositionURL:     result.DepositionURL,
			Published:         result.Published,
			Status:            status,
			StatusDetails:     result.PublishError,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing export: %s", err))
		}

		err = s.publisher.Publish(c, exportevents.TopicName, exportevents.ExportCompleted{
			ProviderName:  s.cfg.ProviderName,
			ProjectUID:    export.ProjectUID,
			SnapshotUID:   export.SnapshotUID,
			UserUID:       export.UserUID,
			DepositionID:  result.DepositionID,
			DepositionURL: result.DepositionURL,
			Published:     result.Published,
			Status:        status,
			ErrorMessage:  result.PublishError,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return ExportResult{}, err
	}

	s.logger.Log(c, export.ProjectUID, mylog.SeverityInfo, "Completed export of project %s: deposition %s (published=%t)", export.ProjectUID, result.DepositionID, result.Published)

	return result, nil
}

// obtainDeposition revalidates a previously created deposition when the host
// still carries its id, otherwise creates a fresh one.
func (s *service) obtainDeposition(c context.Context, export exportapi.Export, accessToken string, now time.Time) (Deposition, error) {
	if export.RecordID != "" {
		existing, err := s.depositor.GetDeposition(c, accessToken, export.RecordID)
		if err == nil {
			s.logger.Log(c, export.ProjectUID, mylog.SeverityInfo, "Reusing existing deposition %s", export.RecordID)
			return existing, nil
		}

		remoteErr := RemoteServiceError{}
		if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound {
			// stale id: the deposition is gone on the remote side, fall through and create a new one
			s.logger.Log(c, export.ProjectUID, mylog.SeverityInfo, "Stored deposition %s no longer exists, creating a new one", export.RecordID)
		} else {
			return Deposition{}, s.classifyRemoteError(err, export.UserUID)
		}
	}

	deposition, err := s.depositor.CreateDeposition(c, accessToken, BuildDepositionMetadata(export, s.cfg, now))
	if err != nil {
		return Deposition{}, s.classifyRemoteError(err, export.UserUID)
	}

	return deposition, nil
}

// classifyRemoteError turns a remote 401 into an authorization round-trip.
func (s *service) classifyRemoteError(err error, userUID string) error {
	remoteErr := RemoteServiceError{}
	if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusUnauthorized {
		return AuthenticationRequiredError{ProviderName: s.cfg.ProviderName, UserUID: userUID}
	}
	return err
}

// acquireToken fetches the stored token for this provider and user.
// An expired token is silently refreshed once; anything else means the user
// has to go through the authorization flow.
func (s *service) acquireToken(c context.Context, userUID string) (string, error) {
	tokenUID := oauthvault.CreateTokenUID(s.cfg.ProviderName, userUID)
	token, exists, err := s.vault.Get(c, tokenUID)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error fetching token %s: %s", tokenUID, err))
	}

	if !exists || token.AccessToken == "" {
		return "", AuthenticationRequiredError{ProviderName: s.cfg.ProviderName, UserUID: userUID}
	}

	if token.ExpiresIn != nil && token.ExpiresIn.Before(s.nower.Now()) {
		s.logger.Log(c, "", mylog.SeverityInfo, "Token for user %s expired, attempting refresh", userUID)

		refreshed, err := s.refresher.RefreshToken(c, s.cfg.ProviderName, userUID)
		if err != nil {
			return "", AuthenticationRequiredError{ProviderName: s.cfg.ProviderName, UserUID: userUID}
		}
		return refreshed.AccessToken, nil
	}

	return token.AccessToken, nil
}
