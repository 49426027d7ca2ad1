package fetcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/racing-sync/internal/racingapi"
)

func TestFetchCoursesDerivesRegions(t *testing.T) {
	client := &stubClient{
		courses: []racingapi.CourseDoc{
			{ID: "crs_1", Course: "Ascot", RegionCode: "gb", Region: "GB", Latitude: "51.41", Longitude: "-0.68"},
			{ID: "crs_2", Course: "Newmarket", RegionCode: "gb", Region: "GB"},
			{ID: "crs_3", Course: "Curragh", RegionCode: "ire", Region: "IRE"},
		},
	}
	repos, _, _ := memRepos()

	f := NewReferenceFetcher(client, repos, nil, quietLogger())
	result, err := f.FetchCourses(context.Background())
	require.NoError(t, err)

	ref := repos.Reference.(*memReferenceRepo)
	assert.Len(t, ref.courses, 3)
	require.NotNil(t, ref.courses[0].Latitude)
	assert.InDelta(t, 51.41, *ref.courses[0].Latitude, 1e-9)

	// Two distinct region codes across three courses.
	assert.Len(t, ref.regions, 2)
	assert.Equal(t, 5, result.Written)
}

func TestFetchJockeysWalksAllPages(t *testing.T) {
	client := &stubClient{
		jockeys: []racingapi.PersonPage{
			{People: []racingapi.PersonDoc{{ID: "jky_1", Name: "A"}, {ID: "jky_2", Name: "B"}}, Total: 3, Page: 0, Limit: 2},
			{People: []racingapi.PersonDoc{{ID: "jky_3", Name: "C"}}, Total: 3, Page: 1, Limit: 2},
		},
	}
	repos, _, _ := memRepos()

	f := NewPeopleFetcher(client, repos, nil, quietLogger(), false)
	result, err := f.FetchJockeys(context.Background())
	require.NoError(t, err)

	people := repos.People.(*memPeopleRepo)
	assert.Len(t, people.jockeys, 3)
	assert.Equal(t, 3, result.Written)
}

func TestPeopleWalkTestModeCapsPages(t *testing.T) {
	// Every page claims more follow; test mode must still stop.
	pages := make([]racingapi.PersonPage, 20)
	for i := range pages {
		pages[i] = racingapi.PersonPage{
			People: []racingapi.PersonDoc{{ID: "own_1", Name: "X"}},
			Total:  1 << 20,
			Page:   i,
			Limit:  1,
		}
	}
	client := &stubClient{owners: pages}
	repos, _, _ := memRepos()

	f := NewPeopleFetcher(client, repos, nil, quietLogger(), true)
	_, err := f.FetchOwners(context.Background())
	require.NoError(t, err)

	people := repos.People.(*memPeopleRepo)
	assert.Len(t, people.owners, testModePageCap)
}

func TestFetchTrainersKeepsLocation(t *testing.T) {
	client := &stubClient{
		trainers: []racingapi.PersonPage{
			{People: []racingapi.PersonDoc{
				{ID: "trn_1", Name: "A Yard", Location: "Newmarket"},
				{ID: "trn_2", Name: "B Yard"},
			}, Total: 2, Page: 0, Limit: 500},
		},
	}
	repos, _, _ := memRepos()

	f := NewPeopleFetcher(client, repos, nil, quietLogger(), false)
	_, err := f.FetchTrainers(context.Background())
	require.NoError(t, err)

	people := repos.People.(*memPeopleRepo)
	require.Len(t, people.trainers, 2)
	require.NotNil(t, people.trainers[0].Location)
	assert.Equal(t, "Newmarket", *people.trainers[0].Location)
	assert.Nil(t, people.trainers[1].Location)
}
