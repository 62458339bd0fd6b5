package project

import (
	"math/rand"
	"time"

	"github.com/rdmhub/rdmbackend/services/exportapi"
)

var r *rand.Rand

func init() {
	r = rand.New(rand.NewSource(time.Now().Unix()))
}

func createProject(uid string, createdAt time.Time) Project {
	sample := samples[r.Intn(len(samples))]

	return Project{
		UID:         uid,
		Title:       sample.title,
		Description: sample.description,
		License:     sample.license,
		Keywords:    sample.keywords,
		CreatedAt:   createdAt,
		Authors: []exportapi.Person{
			{
				FirstName:   "Eva",
				LastName:    "de Vries",
				ORCID:       "0000-0002-1825-0097",
				Affiliation: "Utrecht University",
			},
		},
		Members: []exportapi.Person{
			{
				FirstName:   "Marc",
				LastName:    "Jansen",
				Affiliation: "Utrecht University",
			},
		},
		Snapshots: []Snapshot{},
	}
}

type sampleProject struct {
	title       string
	description string
	license     string
	keywords    []string
}

var samples = []sampleProject{
	{
		title:       "Urban air quality sensor network",
		description: "Continuous particulate matter measurements from a network of low-cost sensors.",
		license:     "dataset_license_types/71",
		keywords:    []string{"air quality", "sensors"},
	},
	{
		title:       "Dutch dialect survey 2024",
		description: "Recordings and transcriptions of regional dialect speakers.",
		license:     "dataset_license_types/cc0",
		keywords:    []string{"linguistics", "dialects"},
	},
	{
		title:       "River delta sediment cores",
		description: "Grain size and composition analysis of sediment cores from the Rhine delta.",
		license:     "dataset_license_types/75",
		keywords:    []string{"geology", "sediment"},
	},
	{
		title:       "Pollinator observation study",
		description: "Weekly counts of pollinating insects across agricultural field margins.",
		license:     "dataset_license_types/71",
		keywords:    []string{"ecology", "pollinators"},
	},
}
