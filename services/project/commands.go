package project

import (
	"context"
	"fmt"
	"sort"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/mylog"
	"github.com/rdmhub/rdmbackend/services/project/projectevents"
)

func (s *service) listProjects(c context.Context) ([]Project, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all projects")

	projects, err := s.projectStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	// TODO sort in database
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (s *service) createNewProject(c context.Context) (Project, error) {
	projectUID := s.uuider.Create()
	createdAt := s.nower.Now()
	project := createProject(projectUID, createdAt)

	s.logger.Log(c, projectUID, mylog.SeverityInfo, "Creating new project with uid %s", projectUID)

	err := s.projectStore.RunInTransaction(c, func(c context.Context) error {
		err := s.projectStore.Put(c, projectUID, project)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, projectevents.TopicName, projectevents.ProjectCreated{
			ProjectUID: projectUID},
		)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Project{}, err
	}

	return project, nil
}

func (s *service) getProject(c context.Context, projectUID string) (Project, error) {
	s.logger.Log(c, projectUID, mylog.SeverityInfo, "Fetch details of project with uid %s", projectUID)

	project, found, err := s.projectStore.Get(c, projectUID)
	if err != nil {
		return Project{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Project{}, myerrors.NewNotFoundError(fmt.Errorf("project with uid %s not found", projectUID))
	}

	return project, nil
}

func (s *service) createSnapshot(c context.Context, projectUID string) (Project, error) {
	snapshotUID := s.uuider.Create()
	now := s.nower.Now()

	s.logger.Log(c, projectUID, mylog.SeverityInfo, "Creating snapshot %s of project %s", snapshotUID, projectUID)

	var project Project
	err := s.projectStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		var found bool
		var err error
		project, found, err = s.projectStore.Get(c, projectUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("project with uid %s not found", projectUID))
		}

		project.Snapshots = append(project.Snapshots, Snapshot{
			UID:          snapshotUID,
			Title:        fmt.Sprintf("Snapshot %d of %s", len(project.Snapshots)+1, project.Title),
			DatasetTitle: project.Title,
			CreatedAt:    now,
		})
		project.LastModified = &now

		err = s.projectStore.Put(c, projectUID, project)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, projectevents.TopicName, projectevents.SnapshotCreated{
			ProjectUID:  projectUID,
			SnapshotUID: snapshotUID},
		)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Project{}, err
	}

	return project, nil
}
