// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"sort"
	"strings"
	"sync"
)

// # Scan Cache

// CacheTier is the coarse confidence a [ScanCache] reports for a hit.
type CacheTier string

const (
	CacheExact  CacheTier = "exact"
	CacheHigh   CacheTier = "high"
	CacheMedium CacheTier = "medium"
	CacheLow    CacheTier = "low"
)

// Confidence maps a tier onto the resolver's confidence scale.
func (tier CacheTier) Confidence() float64 {
	switch tier {
	case CacheExact:
		return 1.0
	case CacheHigh:
		return 0.95
	case CacheMedium:
		return 0.85
	case CacheLow:
		return 0.75
	default:
		return 0
	}
}

// ScanCache is a session-scoped candidate index owned by the bulk-scan
// orchestrator. A miss is final: the resolver does not fall back to storage.
type ScanCache interface {
	FindMatch(query Query) (*Series, CacheTier, bool)
}

// CacheRefresher is implemented by caches that accept series created mid-scan.
type CacheRefresher interface {
	Add(series *Series)
}

// Thresholds on the boosted heuristic score used by [ScanIndex].
const (
	indexMediumScore = 0.85
	indexLowScore    = FuzzyThreshold
)

// ScanIndex is the in-memory [ScanCache] built once per scan session from the
// Active catalogue. It is safe for concurrent use by scan workers.
type ScanIndex struct {
	mutex      sync.RWMutex
	series     []*Series
	position   map[string]int
	byIdentity map[identity]*Series
	byName     map[string]*Series // Normalized name or alias, first writer wins
}

// NewScanIndex indexes the Active series of catalogue.
func NewScanIndex(catalogue []*Series) *ScanIndex {
	index := &ScanIndex{}
	index.reset()
	for _, series := range catalogue {
		if series.Lifecycle.IsActive() {
			index.insert(series.Clone())
		}
	}
	return index
}

// Len returns the number of indexed series.
func (index *ScanIndex) Len() int {
	index.mutex.RLock()
	defer index.mutex.RUnlock()
	return len(index.series)
}

// Add indexes a series created or restored during the scan. A series that is
// already indexed is replaced.
func (index *ScanIndex) Add(series *Series) {
	if series == nil {
		return
	}

	index.mutex.Lock()
	defer index.mutex.Unlock()

	if at, known := index.position[series.ID]; known {
		index.series[at] = series.Clone()
		index.rebuild()
		return
	}
	index.insert(series.Clone())
}

/*
FindMatch looks the query up without touching storage.

Description: An identity hit is [CacheExact]; a normalised name or alias hit is
[CacheHigh]; otherwise the best boosted heuristic score decides between
[CacheMedium] (>= 0.85) and [CacheLow] (>= 0.7).

Parameters:
  - query: Query

Returns:
  - *Series: A copy of the indexed series
  - CacheTier: Hit tier
  - bool: false on a miss
*/
func (index *ScanIndex) FindMatch(query Query) (*Series, CacheTier, bool) {
	index.mutex.RLock()
	defer index.mutex.RUnlock()

	if series, found := index.byIdentity[identityOf(query.Name, query.Publisher)]; found {
		return series.Clone(), CacheExact, true
	}

	if series, found := index.byName[Normalize(query.Name)]; found {
		return series.Clone(), CacheHigh, true
	}

	candidates := rankCandidates(query, index.series)
	if len(candidates) == 0 {
		return nil, "", false
	}

	best := candidates[0]
	switch {
	case best.Confidence >= indexMediumScore:
		return best.Series.Clone(), CacheMedium, true
	case best.Confidence >= indexLowScore:
		return best.Series.Clone(), CacheLow, true
	default:
		return nil, "", false
	}
}

func (index *ScanIndex) reset() {
	index.series = nil
	index.position = make(map[string]int)
	index.byIdentity = make(map[identity]*Series)
	index.byName = make(map[string]*Series)
}

func (index *ScanIndex) rebuild() {
	series := index.series
	index.reset()
	for _, entry := range series {
		index.insert(entry)
	}
}

func (index *ScanIndex) insert(series *Series) {
	index.position[series.ID] = len(index.series)
	index.series = append(index.series, series)

	key := identityOf(series.Name, series.Publisher)
	if _, taken := index.byIdentity[key]; !taken {
		index.byIdentity[key] = series
	}

	for _, name := range append([]string{series.Name}, series.Aliases...) {
		normalized := Normalize(name)
		if normalized == "" {
			continue
		}
		if _, taken := index.byName[normalized]; !taken {
			index.byName[normalized] = series
		}
	}
}

// # Candidate Scoring

// scoreCandidate returns the boosted heuristic score of one series for a query.
func scoreCandidate(query Query, series *Series) float64 {
	score := QuickSimilarity(query.Name, series.Name)
	for _, alias := range series.Aliases {
		score = max(score, QuickSimilarity(query.Name, alias))
	}

	if query.Year != nil && series.StartYear != nil && *query.Year == *series.StartYear {
		score += yearBoost
	}
	if query.Publisher != "" && series.Publisher != "" && IdentityKey(query.Publisher) == IdentityKey(series.Publisher) {
		score += publisherBoost
	}

	return min(1, score)
}

// rankCandidates scores every series and returns them best first. Ties are
// broken by name and then ID so the ranking is stable across calls.
func rankCandidates(query Query, catalogue []*Series) []Candidate {
	candidates := make([]Candidate, 0, len(catalogue))
	for _, series := range catalogue {
		candidates = append(candidates, Candidate{Series: series, Confidence: scoreCandidate(query, series)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		left, right := candidates[i], candidates[j]
		if left.Confidence != right.Confidence {
			return left.Confidence > right.Confidence
		}
		if !strings.EqualFold(left.Series.Name, right.Series.Name) {
			return strings.ToLower(left.Series.Name) < strings.ToLower(right.Series.Name)
		}
		return left.Series.ID < right.Series.ID
	})

	return candidates
}
