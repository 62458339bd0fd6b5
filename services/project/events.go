package project

import (
	"context"
	"fmt"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/myhttp"
	"github.com/rdmhub/rdmbackend/lib/mylog"
	"github.com/rdmhub/rdmbackend/services/exportevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, exportevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", exportevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, exportevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/project/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", exportevents.TopicName, err)
	}

	return nil
}

func (s *service) OnExportStarted(c context.Context, topic string, event exportevents.ExportStarted) error {
	return nil
}

func (s *service) OnExportCompleted(c context.Context, topic string, event exportevents.ExportCompleted) error {
	s.logger.Log(c, event.ProjectUID, mylog.SeverityInfo, "Export status update on project %s -> deposition %s (published=%t)",
		event.ProjectUID, event.DepositionID, event.Published)

	now := s.nower.Now()

	err := s.projectStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		project, found, err := s.projectStore.Get(c, event.ProjectUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("project with uid %s not found", event.ProjectUID))
		}

		project.RemoteRecordID = event.DepositionID
		project.RemoteRecordURL = event.DepositionURL
		project.ExportStatusDetails = event.ErrorMessage
		project.ExportStatus = event.Status
		project.LastModified = &now
		project.LastExportedAt = &now

		err = s.projectStore.Put(c, event.ProjectUID, project)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}
