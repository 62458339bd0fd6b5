package projectevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/myevents"
)

const (
	TopicName           = "project"
	projectCreatedName  = TopicName + ".created"
	snapshotCreatedName = TopicName + ".snapshot.created"
)

type ProjectEventService interface {
	Subscribe(c context.Context) error
	OnProjectCreated(c context.Context, topic string, event ProjectCreated) error
	OnSnapshotCreated(c context.Context, topic string, event SnapshotCreated) error
}

func DispatchEvent(c context.Context, reader io.Reader, service ProjectEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case projectCreatedName:
		{
			event := ProjectCreated{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnProjectCreated(c, envelope.Topic, event)
		}
	case snapshotCreatedName:
		{
			event := SnapshotCreated{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnSnapshotCreated(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("%s", envelope.EventTypeName))
	}
}

type ProjectCreated struct {
	ProjectUID string
}

func (e ProjectCreated) GetEventTypeName() string {
	return projectCreatedName
}

func (e ProjectCreated) GetAggregateName() string {
	return e.ProjectUID
}

type SnapshotCreated struct {
	ProjectUID  string
	SnapshotUID string
}

func (e SnapshotCreated) GetEventTypeName() string {
	return snapshotCreatedName
}

func (e SnapshotCreated) GetAggregateName() string {
	return e.ProjectUID
}
