package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/rdmhub/rdmbackend/lib/myerrors"
	"github.com/rdmhub/rdmbackend/lib/mypublisher"
	"github.com/rdmhub/rdmbackend/lib/mypubsub"
	"github.com/rdmhub/rdmbackend/lib/myqueue"
	"github.com/rdmhub/rdmbackend/lib/mystore"
	"github.com/rdmhub/rdmbackend/lib/mytime"
	"github.com/rdmhub/rdmbackend/lib/myuuid"
	"github.com/rdmhub/rdmbackend/lib/myvault"
	"github.com/rdmhub/rdmbackend/services/exportapi"
	"github.com/rdmhub/rdmbackend/services/exportzenodo"
	"github.com/rdmhub/rdmbackend/services/oauth"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthclient"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthclient/challenge"
	"github.com/rdmhub/rdmbackend/services/oauth/oauthvault"
	"github.com/rdmhub/rdmbackend/services/oauth/providers"
	"github.com/rdmhub/rdmbackend/services/project"
	"github.com/rdmhub/rdmbackend/services/warmup"
)

func main() {
	c := context.Background()

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queueCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	tokenVault, tokenVaultCleanup, err := myvault.New[oauthvault.Token](c)
	if err != nil {
		log.Fatalf("Error creating token vault: %s", err)
	}
	defer tokenVaultCleanup()

	providerRegistry := createProviderRegistry()

	oauthService, oauthCleanup, err := createOAuthService(c, router, providerRegistry, tokenVault, nower, uuider, publisher)
	if err != nil {
		log.Fatalf("Error creating oauth service: %s", err)
	}
	defer oauthCleanup()

	exportCleanup, err := createExportService(c, router, providerRegistry, tokenVault, oauthService, nower, pubsub, publisher)
	if err != nil {
		log.Fatalf("Error creating export service: %s", err)
	}
	defer exportCleanup()

	projectCleanup, err := createProjectService(c, router, nower, uuider, pubsub, publisher)
	if err != nil {
		log.Fatalf("Error creating project service: %s", err)
	}
	defer projectCleanup()

	warmupService := warmup.NewService(tokenVault)
	warmupService.RegisterEndpoints(c, router)

	startWebServerBlocking(router)
}

// createProviderRegistry seeds the oauth endpoints and overrides the
// credentials from the environment.
func createProviderRegistry() *providers.OAuthProviders {
	registry := providers.NewProviders()
	registry.Set("zenodo",
		os.Getenv("ZENODO_CLIENT_ID"),
		os.Getenv("ZENODO_CLIENT_SECRET"),
		os.Getenv("ZENODO_URL"),
		os.Getenv("ZENODO_URL"))
	registry.Set("zenodo-sandbox",
		os.Getenv("ZENODO_SANDBOX_CLIENT_ID"),
		os.Getenv("ZENODO_SANDBOX_CLIENT_SECRET"),
		"",
		"")
	return registry
}

type tokenRefresher interface {
	RefreshToken(c context.Context, providerName string, userUID string) (oauthvault.Token, error)
}

func createOAuthService(c context.Context, router *mux.Router, registry *providers.OAuthProviders, tokenVault myvault.VaultReadWriter[oauthvault.Token], nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) (tokenRefresher, func(), error) {
	partyVault, partyVaultCleanup, err := myvault.New[providers.OauthParty](c)
	if err != nil {
		return nil, nil, err
	}

	sessionStore, sessionStoreCleanup, err := mystore.New[oauth.OAuthSessionSetup](c)
	if err != nil {
		partyVaultCleanup()
		return nil, nil, err
	}
	cleanup := func() {
		sessionStoreCleanup()
		partyVaultCleanup()
	}

	oauthClient := oauthclient.NewOAuthClient(registry, challenge.NewRandomStringer())
	oauthService := oauth.NewService(partyVault, sessionStore, tokenVault, nower, uuider, oauthClient, publisher, registry)

	err = oauthService.RegisterEndpoints(c, router)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return oauthService, cleanup, nil
}

func createExportService(c context.Context, router *mux.Router, registry *providers.OAuthProviders, tokenVault myvault.VaultReader[oauthvault.Token], refresher tokenRefresher, nower mytime.Nower, pubsub mypubsub.PubSub, publisher mypublisher.Publisher) (func(), error) {
	cfg, err := composeExportConfig(registry)
	if err != nil {
		return nil, err
	}

	exportStore, exportStoreCleanup, err := mystore.New[exportapi.ExportContext](c)
	if err != nil {
		return nil, err
	}

	depositor := exportzenodo.NewDepositor(cfg.APIBaseURL)
	exportService, err := exportzenodo.NewWebService(cfg, depositor, exportStore, tokenVault, refresher, nower, pubsub, publisher)
	if err != nil {
		exportStoreCleanup()
		return nil, err
	}

	err = exportService.RegisterEndpoints(c, router)
	if err != nil {
		exportStoreCleanup()
		return nil, err
	}

	return exportStoreCleanup, nil
}

func createProjectService(c context.Context, router *mux.Router, nower mytime.Nower, uuider myuuid.UUIDer, pubsub mypubsub.PubSub, publisher mypublisher.Publisher) (func(), error) {
	projectStore, projectStoreCleanup, err := mystore.New[project.Project](c)
	if err != nil {
		return nil, err
	}

	projectService := project.NewService(projectStore, nower, uuider, pubsub, publisher)
	err = projectService.RegisterEndpoints(c, router)
	if err != nil {
		projectStoreCleanup()
		return nil, err
	}

	return projectStoreCleanup, nil
}

// composeExportConfig reads the export settings from the environment. The
// selected provider determines which hostname is used for the deposit api.
func composeExportConfig(registry *providers.OAuthProviders) (exportzenodo.Config, error) {
	providerName := os.Getenv("ZENODO_PROVIDER")
	if providerName == "" {
		providerName = "zenodo-sandbox"
	}

	party, err := registry.Get(providerName)
	if err != nil {
		return exportzenodo.Config{}, err
	}

	// fail at startup on an absent client registration, not at the remote endpoint
	err = party.ValidateCredentials(providerName)
	if err != nil {
		return exportzenodo.Config{}, myerrors.NewInvalidInputError(err)
	}

	resourceType := os.Getenv("ZENODO_RESOURCE_TYPE")
	if resourceType == "" {
		resourceType = "dataset"
	}

	funding, err := exportzenodo.ParseFunding(os.Getenv("ZENODO_FUNDING"))
	if err != nil {
		return exportzenodo.Config{}, err
	}

	return exportzenodo.Config{
		ProviderName:      providerName,
		APIBaseURL:        party.AuthEndpoint.Hostname,
		ResourceType:      resourceType,
		Language:          os.Getenv("ZENODO_LANGUAGE"),
		Publisher:         os.Getenv("ZENODO_PUBLISHER"),
		Notes:             os.Getenv("ZENODO_NOTES"),
		AddProjectMembers: os.Getenv("ZENODO_ADD_PROJECT_MEMBERS") == "true",
		Funding:           funding,
	}, nil
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
