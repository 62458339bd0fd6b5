package project

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rdmhub/rdmbackend/lib/mycontext"
	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/myhttp"
	"github.com/rdmhub/rdmbackend/lib/mylog"
	"github.com/rdmhub/rdmbackend/lib/mypublisher"
	"github.com/rdmhub/rdmbackend/lib/mypubsub"
	"github.com/rdmhub/rdmbackend/lib/mystore"
	"github.com/rdmhub/rdmbackend/lib/mytime"
	"github.com/rdmhub/rdmbackend/lib/myuuid"
	"github.com/rdmhub/rdmbackend/services/exportapi"
	"github.com/rdmhub/rdmbackend/services/exportevents"
	"github.com/rdmhub/rdmbackend/services/project/projectevents"
)

type webService struct {
	service *service
	logger  mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(store mystore.Store[Project], nower mytime.Nower, uuider myuuid.UUIDer, subscriber mypubsub.PubSub, publisher mypublisher.Publisher) *webService {
	logger := mylog.New("project")
	return &webService{
		service: newService(store, nower, uuider, logger, subscriber, publisher),
		logger:  logger,
	}
}

//go:embed templates
var templateFolder embed.FS
var (
	projectListPageTemplate   *template.Template
	projectDetailPageTemplate *template.Template
)

func init() {
	projectListPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/project_list.html"))
	projectDetailPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/project_detail.html"))
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Endpoints that compose the userinterface
	router.HandleFunc("/", s.projectListPage()).Methods("GET")
	router.HandleFunc("/project", s.projectListPage()).Methods("GET")
	router.HandleFunc("/project", s.createNewProjectPage()).Methods("POST")
	router.HandleFunc("/project/{projectUID}", s.projectDetailsPage()).Methods("GET")
	router.HandleFunc("/project/{projectUID}/snapshot", s.createSnapshotPage()).Methods("POST")

	err := s.service.publisher.CreateTopic(c, projectevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", projectevents.TopicName, err)
	}

	// Export component reports its outcome over this endpoint
	router.HandleFunc("/api/project/event", s.handleEventEnvelope()).Methods("POST")

	err = s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

func (s *webService) projectListPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		projects, err := s.service.listProjects(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = projectListPageTemplate.Execute(w, projects)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(err))
			return
		}
	}
}

func (s *webService) createNewProjectPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		project, err := s.service.createNewProject(c)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		// Redirect to newly created project
		http.Redirect(w, r, fmt.Sprintf("%s/project/%s", myhttp.HostnameWithScheme(r), project.UID), http.StatusSeeOther)
	}
}

func (s *webService) projectDetailsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		projectUID := mux.Vars(r)["projectUID"]

		project, err := s.service.getProject(c, projectUID)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}

		pageInfo, err := composeDetailPage(project, myhttp.HostnameWithScheme(r))
		if err != nil {
			errorWriter.WriteError(c, w, 5, myerrors.NewInternalError(err))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = projectDetailPageTemplate.Execute(w, pageInfo)
		if err != nil {
			errorWriter.WriteError(c, w, 6, myerrors.NewInternalError(err))
			return
		}
	}
}

func (s *webService) createSnapshotPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		projectUID := mux.Vars(r)["projectUID"]

		project, err := s.service.createSnapshot(c, projectUID)
		if err != nil {
			errorWriter.WriteError(c, w, 7, err)
			return
		}

		http.Redirect(w, r, fmt.Sprintf("%s/project/%s", myhttp.HostnameWithScheme(r), project.UID), http.StatusSeeOther)
	}
}

func (s *webService) handleEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := exportevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 8, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed event",
		})
	}
}

// composeDetailPage prefills one export form per snapshot with everything the
// export component needs to compose a deposit.
func composeDetailPage(project Project, hostname string) (ProjectDetailPageInfo, error) {
	pageInfo := ProjectDetailPageInfo{
		Project: project,
		Exports: []SnapshotExportForm{},
	}

	for _, snapshot := range project.Snapshots {
		export := exportapi.Export{
			ProjectUID:    project.UID,
			SnapshotUID:   snapshot.UID,
			UserUID:       "admin",
			ReturnURL:     fmt.Sprintf("%s/project/%s", hostname, project.UID),
			DatasetTitle:  snapshot.DatasetTitle,
			SnapshotTitle: snapshot.Title,
			ProjectTitle:  project.Title,
			Description:   project.Description,
			License:       project.License,
			Keywords:      project.Keywords,
			RecordID:      project.RemoteRecordID,
			Authors:       project.Authors,
			Members:       project.Members,
		}

		values, err := export.ToForm()
		if err != nil {
			return ProjectDetailPageInfo{}, err
		}

		pageInfo.Exports = append(pageInfo.Exports, SnapshotExportForm{
			Snapshot:   snapshot,
			FormFields: template.HTML(exportapi.FormValuesToHtml(values)),
		})
	}

	return pageInfo, nil
}
