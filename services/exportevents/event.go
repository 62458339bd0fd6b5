package exportevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/myevents"
)

const (
	TopicName           = "export"
	exportStartedName   = TopicName + ".started"
	exportCompletedName = TopicName + ".completed"
)

type ExportEventService interface {
	Subscribe(c context.Context) error
	OnExportStarted(c context.Context, topic string, event ExportStarted) error
	OnExportCompleted(c context.Context, topic string, event ExportCompleted) error
}

func DispatchEvent(c context.Context, reader io.Reader, service ExportEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case exportStartedName:
		{
			event := ExportStarted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnExportStarted(c, envelope.Topic, event)
		}
	case exportCompletedName:
		{
			event := ExportCompleted{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnExportCompleted(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("event %s not supported", envelope.EventTypeName))
	}
}

type ExportStarted struct {
	ProviderName string
	ProjectUID   string
	SnapshotUID  string
	UserUID      string
}

func (e ExportStarted) GetEventTypeName() string {
	return exportStartedName
}

func (e ExportStarted) GetAggregateName() string {
	return e.ProjectUID
}

type ExportCompleted struct {
	ProviderName  string
	ProjectUID    string
	SnapshotUID   string
	UserUID       string
	DepositionID  string
	DepositionURL string
	Published     bool
	Status        string // exportapi.ExportStatus*, distinguishes created from publish_failed
	ErrorMessage  string
}

func (e ExportCompleted) GetEventTypeName() string {
	return exportCompletedName
}

func (e ExportCompleted) GetAggregateName() string {
	return e.ProjectUID
}
