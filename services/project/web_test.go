package project

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/rdmhub/rdmbackend/lib/myevents"
	"github.com/rdmhub/rdmbackend/lib/mypublisher"
	"github.com/rdmhub/rdmbackend/lib/mypubsub"
	"github.com/rdmhub/rdmbackend/lib/mystore"
	"github.com/rdmhub/rdmbackend/lib/mytime"
	"github.com/rdmhub/rdmbackend/lib/myuuid"
	"github.com/rdmhub/rdmbackend/services/exportapi"
	"github.com/rdmhub/rdmbackend/services/exportevents"
	"github.com/rdmhub/rdmbackend/services/project/projectevents"
)

var (
	project1 = Project{
		UID:       "p1",
		Title:     "Urban air quality sensor network",
		License:   "dataset_license_types/71",
		CreatedAt: time.Now(),
		Authors:   []exportapi.Person{{FirstName: "Eva", LastName: "de Vries"}},
		Snapshots: []Snapshot{
			{UID: "s1", Title: "Snapshot 1", DatasetTitle: "Urban air quality sensor network", CreatedAt: time.Now()},
		},
	}
	project2 = Project{
		UID:       "p2",
		Title:     "Dutch dialect survey 2024",
		CreatedAt: time.Now().Add(time.Minute),
	}
)

func TestProjectService(t *testing.T) {

	t.Run("List projects", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, project1.UID, project1)
		storer.Put(ctx, project2.UID, project2)

		// when
		request, err := http.NewRequest(http.MethodGet, "/project", nil)
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, "Urban air quality sensor network")
		assert.Contains(t, got, "Dutch dialect survey 2024")
	})

	t.Run("Create project", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, nower, uuider, publisher := setup(t, ctrl)

		// given
		uuider.EXPECT().Create().Return("p123")
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		publisher.EXPECT().Publish(gomock.Any(), projectevents.TopicName, projectevents.ProjectCreated{
			ProjectUID: "p123",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/project", nil)
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "http://localhost:8888/project/p123", response.Header().Get("Location"))

		project, exists, _ := storer.Get(ctx, "p123")
		assert.True(t, exists)
		assert.Equal(t, "p123", project.UID)
		assert.NotEmpty(t, project.Title)
		assert.NotEmpty(t, project.Authors)
	})

	t.Run("Project details with export forms", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, project1.UID, project1)

		// when
		request, err := http.NewRequest(http.MethodGet, "/project/p1", nil)
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, `action="/export/zenodo/p1"`)
		assert.Contains(t, got, `action="/export/zenodo-publish/p1"`)
		assert.Contains(t, got, `name="projectUid" value="p1"`)
		assert.Contains(t, got, `name="snapshotUid" value="s1"`)
		assert.Contains(t, got, `name="returnUrl" value="http://localhost:8888/project/p1"`)
		assert.Contains(t, got, `name="authors[0].lastName" value="de Vries"`)
	})

	t.Run("Create snapshot", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, nower, uuider, publisher := setup(t, ctrl)

		// given
		storer.Put(ctx, project2.UID, project2)
		uuider.EXPECT().Create().Return("s99")
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		publisher.EXPECT().Publish(gomock.Any(), projectevents.TopicName, projectevents.SnapshotCreated{
			ProjectUID:  "p2",
			SnapshotUID: "s99",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/project/p2/snapshot", nil)
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "http://localhost:8888/project/p2", response.Header().Get("Location"))

		project, exists, _ := storer.Get(ctx, "p2")
		assert.True(t, exists)
		assert.Len(t, project.Snapshots, 1)
		assert.Equal(t, "s99", project.Snapshots[0].UID)
	})

	t.Run("Handle export completed event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, nower, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, project1.UID, project1)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/project/event", strings.NewReader(createPubsubMessage(
			exportevents.ExportCompleted{
				ProviderName:  "zenodo",
				ProjectUID:    "p1",
				SnapshotUID:   "s1",
				UserUID:       "admin",
				DepositionID:  "123",
				DepositionURL: "https://sandbox.zenodo.org/deposit/123",
				Published:     true,
				Status:        exportapi.ExportStatusPublished,
			})))
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)

		project, exists, _ := storer.Get(ctx, "p1")
		assert.True(t, exists)
		assert.Equal(t, "123", project.RemoteRecordID)
		assert.Equal(t, "https://sandbox.zenodo.org/deposit/123", project.RemoteRecordURL)
		assert.Equal(t, "published", project.ExportStatus)
	})

	t.Run("Handle publish-failed export event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, nower, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, project1.UID, project1)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/project/event", strings.NewReader(createPubsubMessage(
			exportevents.ExportCompleted{
				ProviderName:  "zenodo",
				ProjectUID:    "p1",
				SnapshotUID:   "s1",
				UserUID:       "admin",
				DepositionID:  "123",
				DepositionURL: "https://sandbox.zenodo.org/deposit/123",
				Status:        exportapi.ExportStatusPublishFailed,
				ErrorMessage:  "publish deposition returned 400: Missing data",
			})))
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)

		project, exists, _ := storer.Get(ctx, "p1")
		assert.True(t, exists)
		assert.Equal(t, "123", project.RemoteRecordID)
		assert.Equal(t, "publish_failed", project.ExportStatus)
		assert.Contains(t, project.ExportStatusDetails, "Missing data")
	})
}

func createPubsubMessage(event exportevents.ExportCompleted) string {
	eventBytes, _ := json.Marshal(event)
	envelope := myevents.EventEnvelope{
		UID:           "123",
		CreatedAt:     mytime.ExampleTime,
		Topic:         exportevents.TopicName,
		AggregateUID:  event.ProjectUID,
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(eventBytes),
	}
	envelopeBytes, _ := json.Marshal(envelope)

	req := myevents.PushRequest{
		Message: myevents.PushMessage{
			Data: envelopeBytes,
		},
		Subscription: "project",
	}

	reqBytes, _ := json.Marshal(req)

	return string(reqBytes)
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[Project], *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	storer, _, _ := mystore.New[Project](c)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	subscriber := mypubsub.NewMockPubSub(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	sut := NewService(storer, nower, uuider, subscriber, publisher)
	router := mux.NewRouter()

	// These are called by the following call to RegisterEndpoints()
	publisher.EXPECT().CreateTopic(c, projectevents.TopicName).Return(nil)
	subscriber.EXPECT().CreateTopic(c, exportevents.TopicName).Return(nil)
	subscriber.EXPECT().Subscribe(c, exportevents.TopicName, "http://localhost:8080/api/project/event").Return(nil)

	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, storer, nower, uuider, publisher
}
