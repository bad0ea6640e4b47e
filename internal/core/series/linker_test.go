// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/pkg/pointer"
	"github.com/RolldeoDev/Helixio-sub007/pkg/uuid"
)

func newTestService(repo series.Repository) *series.Service {
	return series.NewService(repo, nil, 0, discardLogger())
}

func TestService_Link_DecisionTable(t *testing.T) {
	tests := []struct {
		name          string
		metadata      series.Metadata
		trust         bool
		wantStatus    series.LinkStatus
		wantType      series.MatchType
		wantExisting  bool   // Linked to the seeded series
		wantCreated   string // Name of a series that must now exist
		wantWarning   bool
		wantUnlinked  bool
		wantSuggested int
	}{
		{
			name:         "exact_links",
			metadata:     series.Metadata{SeriesName: "Hawkeye", Publisher: "Marvel", Year: pointer.To(2016)},
			wantStatus:   series.LinkStatusLinked,
			wantType:     series.MatchExact,
			wantExisting: true,
		},
		{
			name:         "confident_fuzzy_links",
			metadata:     series.Metadata{SeriesName: "The Hawkeye (2012)"},
			wantStatus:   series.LinkStatusLinked,
			wantType:     series.MatchFuzzy,
			wantExisting: true,
		},
		{
			name:          "ambiguous_needs_confirmation",
			metadata:      series.Metadata{SeriesName: "Hawkeyes"},
			wantStatus:    series.LinkStatusNeedsConfirmation,
			wantType:      series.MatchFuzzy,
			wantUnlinked:  true,
			wantSuggested: 1,
		},
		{
			name:        "ambiguous_with_trust_creates",
			metadata:    series.Metadata{SeriesName: "Hawkeyes"},
			trust:       true,
			wantStatus:  series.LinkStatusCreated,
			wantType:    series.MatchNone,
			wantCreated: "Hawkeyes",
			wantWarning: true,
		},
		{
			name:        "no_match_creates",
			metadata:    series.Metadata{SeriesName: "Monstress", Publisher: "Image"},
			wantStatus:  series.LinkStatusCreated,
			wantType:    series.MatchNone,
			wantCreated: "Monstress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepository()
			hawkeye := repo.seed(t, "Hawkeye", "Marvel", withYear(2012))
			fileID := repo.seedFiles("", 1)[0]
			service := newTestService(repo)

			outcome, err := service.Link(context.Background(), series.LinkRequest{
				FileID: fileID, Metadata: tt.metadata, TrustMetadata: tt.trust,
			}, series.Session{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.Equal(t, tt.wantType, outcome.MatchType)
			assert.Len(t, outcome.Suggestions, tt.wantSuggested)
			assert.Equal(t, tt.wantWarning, outcome.Warning != "")

			switch {
			case tt.wantExisting:
				assert.Equal(t, hawkeye.ID, outcome.SeriesID)
				assert.Equal(t, hawkeye.ID, repo.owner(fileID))
			case tt.wantUnlinked:
				assert.Empty(t, outcome.SeriesID)
				assert.Empty(t, repo.owner(fileID))
				assert.Equal(t, hawkeye.ID, outcome.Suggestions[0].Series.ID)
			case tt.wantCreated != "":
				created := repo.activeNamed(tt.wantCreated)
				require.Len(t, created, 1)
				assert.Equal(t, created[0].ID, outcome.SeriesID)
				assert.Equal(t, created[0].ID, repo.owner(fileID))
			}
		})
	}
}

func TestService_Link_TrustMetadataWarning(t *testing.T) {
	// Every seeded name shares the seven-rune prefix of "hawkeyes": 7 / 8.
	// Ties rank by name, so "Hawkeye" is the best match.
	ctx := context.Background()
	repo := newMemoryRepository()
	for _, name := range []string{"Hawkeyez", "Hawkeyer", "Hawkeye", "Hawkeyed"} {
		repo.seed(t, name, "Marvel")
	}
	fileID := repo.seedFiles("", 1)[0]

	outcome, err := newTestService(repo).Link(ctx, series.LinkRequest{
		FileID: fileID, Metadata: series.Metadata{SeriesName: "Hawkeyes"}, TrustMetadata: true,
	}, series.Session{})
	require.NoError(t, err)
	require.Equal(t, series.LinkStatusCreated, outcome.Status)

	assert.Contains(t, outcome.Warning, `resembles existing series "Hawkeye" (confidence 0.88)`)

	_, alternates, found := strings.Cut(outcome.Warning, "; also similar: ")
	require.True(t, found, outcome.Warning)
	assert.Equal(t, []string{`"Hawkeyed"`, `"Hawkeyer"`}, strings.Split(alternates, ", "))
	assert.NotContains(t, outcome.Warning, "Hawkeyez")

	created, err := repo.FindByID(ctx, outcome.SeriesID)
	require.NoError(t, err)
	assert.Equal(t, "Hawkeyes", created.Name)
	assert.Equal(t, outcome.SeriesID, repo.owner(fileID))
}

func TestService_Link_ConfidenceBand(t *testing.T) {
	// "hawkeyes" shares the seven-rune prefix of "hawkeye": 7 / 8
	repo := newMemoryRepository()
	repo.seed(t, "Hawkeye", "Marvel")
	fileID := repo.seedFiles("", 1)[0]

	outcome, err := newTestService(repo).Link(context.Background(), series.LinkRequest{
		FileID: fileID, Metadata: series.Metadata{SeriesName: "Hawkeyes"},
	}, series.Session{})
	require.NoError(t, err)

	assert.InDelta(t, 0.875, outcome.Confidence, 1e-9)
	assert.GreaterOrEqual(t, outcome.Confidence, series.FuzzyThreshold)
	assert.Less(t, outcome.Confidence, series.AutoLinkThreshold)
}

func TestService_Link_Validation(t *testing.T) {
	repo := newMemoryRepository()
	service := newTestService(repo)

	_, err := service.Link(context.Background(), series.LinkRequest{
		FileID: "not-a-uuid", Metadata: series.Metadata{SeriesName: ""},
	}, series.Session{})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	assert.Len(t, appError.Details, 2)
}

func TestService_Link_UnknownFileCreatesNothing(t *testing.T) {
	repo := newMemoryRepository()
	service := newTestService(repo)

	_, err := service.Link(context.Background(), series.LinkRequest{
		FileID: uuid.New(), Metadata: series.Metadata{SeriesName: "Monstress"},
	}, series.Session{})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, repo.activeNamed("Monstress"))
}

func TestService_Link_RestoresSoftDeleted(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	hellboy := repo.seed(t, "Hellboy", "Dark Horse")
	repo.seedMembership("favourites", hellboy.ID)
	require.NoError(t, repo.SoftDelete(ctx, hellboy.ID))
	require.False(t, repo.membershipsOf(hellboy.ID)[0].active)

	fileID := repo.seedFiles("", 1)[0]
	outcome, err := newTestService(repo).Link(ctx, series.LinkRequest{
		FileID: fileID, Metadata: series.Metadata{SeriesName: "Hellboy", Publisher: "Dark Horse"},
	}, series.Session{})
	require.NoError(t, err)

	assert.Equal(t, series.LinkStatusLinked, outcome.Status)
	assert.Equal(t, hellboy.ID, outcome.SeriesID)

	restored, err := repo.FindByID(ctx, hellboy.ID)
	require.NoError(t, err)
	assert.True(t, restored.Lifecycle.IsActive())
	assert.True(t, repo.membershipsOf(hellboy.ID)[0].active)
	assert.Equal(t, hellboy.ID, repo.owner(fileID))
}

func TestService_Link_FolderDefined(t *testing.T) {
	repo := newMemoryRepository()
	fileID := repo.seedFiles("", 1)[0]

	registry := series.NewStaticFolderRegistry()
	registry.Define("/library/Saga", series.FolderDefinition{Name: "Saga", Publisher: "Image", StartYear: pointer.To(2012)})

	outcome, err := newTestService(repo).Link(context.Background(), series.LinkRequest{
		FileID:   fileID,
		Metadata: series.Metadata{SeriesName: "saga 001", FolderPath: "/library/Saga"},
	}, series.Session{Folders: registry})
	require.NoError(t, err)

	assert.Equal(t, series.LinkStatusLinked, outcome.Status)
	assert.Equal(t, series.MatchFolderDefined, outcome.MatchType)

	saga := repo.activeNamed("Saga")
	require.Len(t, saga, 1)
	assert.Equal(t, saga[0].ID, repo.owner(fileID))
}

// barrierRepository holds every Insert until two callers have arrived, so two
// scan workers race for the same identity.
type barrierRepository struct {
	*memoryRepository
	arrived sync.WaitGroup
}

func (repository *barrierRepository) Insert(ctx context.Context, entry *series.Series) error {
	repository.arrived.Done()
	repository.arrived.Wait()
	return repository.memoryRepository.Insert(ctx, entry)
}

func TestService_Link_ConcurrentCreate(t *testing.T) {
	repo := &barrierRepository{memoryRepository: newMemoryRepository()}
	repo.arrived.Add(2)
	files := repo.seedFiles("", 2)
	service := newTestService(repo)

	outcomes := make([]series.LinkOutcome, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i, fileID := range files {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], errs[i] = service.Link(context.Background(), series.LinkRequest{
				FileID: fileID, Metadata: series.Metadata{SeriesName: "Monstress", Publisher: "Image"},
			}, series.Session{})
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	created := repo.activeNamed("Monstress")
	require.Len(t, created, 1, "exactly one series row must exist")
	assert.Equal(t, created[0].ID, repo.owner(files[0]))
	assert.Equal(t, created[0].ID, repo.owner(files[1]))

	statuses := []series.LinkStatus{outcomes[0].Status, outcomes[1].Status}
	assert.ElementsMatch(t, []series.LinkStatus{series.LinkStatusCreated, series.LinkStatusLinked}, statuses)
}

func TestService_Link_ScanSession(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	repo.seed(t, "Batman", "DC Comics")
	files := repo.seedFiles("", 3)
	service := newTestService(repo)

	session, err := service.NewScanSession(ctx, nil)
	require.NoError(t, err)

	t.Run("created_series_join_the_cache", func(t *testing.T) {
		first, err := service.Link(ctx, series.LinkRequest{
			FileID: files[0], Metadata: series.Metadata{SeriesName: "Monstress", Publisher: "Image"},
		}, session)
		require.NoError(t, err)
		require.Equal(t, series.LinkStatusCreated, first.Status)

		second, err := service.Link(ctx, series.LinkRequest{
			FileID: files[1], Metadata: series.Metadata{SeriesName: "monstress", Publisher: "image"},
		}, session)
		require.NoError(t, err)
		assert.Equal(t, series.LinkStatusLinked, second.Status)
		assert.Equal(t, series.MatchExact, second.MatchType)
		assert.Equal(t, first.SeriesID, second.SeriesID)
	})

	t.Run("stale_cache_recovers_through_conflict", func(t *testing.T) {
		// Created outside the session after its snapshot was taken
		saga := repo.seed(t, "Saga", "Image")

		outcome, err := service.Link(ctx, series.LinkRequest{
			FileID: files[2], Metadata: series.Metadata{SeriesName: "Saga", Publisher: "Image"},
		}, session)
		require.NoError(t, err)

		assert.Equal(t, series.LinkStatusLinked, outcome.Status)
		assert.Equal(t, saga.ID, outcome.SeriesID)
		assert.Len(t, repo.activeNamed("Saga"), 1)
	})
}
