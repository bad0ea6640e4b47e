// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"sort"
	"strings"
	"time"

	"github.com/RolldeoDev/Helixio-sub007/pkg/slice"
	"github.com/RolldeoDev/Helixio-sub007/pkg/uuid"
)

// # Duplicate Groups

// Reason names the signal that placed a series in a duplicate group.
type Reason string

const (
	ReasonSameName                 Reason = "same_name"
	ReasonSameExternalID           Reason = "same_external_id"
	ReasonSimilarName              Reason = "similar_name"
	ReasonSamePublisherSimilarName Reason = "same_publisher_similar_name"
)

// GroupConfidence is the tier of a duplicate group.
type GroupConfidence string

const (
	ConfidenceHigh   GroupConfidence = "high"
	ConfidenceMedium GroupConfidence = "medium"
	ConfidenceLow    GroupConfidence = "low"
)

// rank orders tiers from weakest to strongest.
func (confidence GroupConfidence) rank() int {
	switch confidence {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether confidence is as strong as minimum.
func (confidence GroupConfidence) AtLeast(minimum GroupConfidence) bool {
	return confidence.rank() >= minimum.rank()
}

// Valid reports whether confidence names a known tier.
func (confidence GroupConfidence) Valid() bool {
	return confidence.rank() > 0
}

// FilterGroups keeps the groups whose tier is at least minimum. An empty
// minimum keeps everything.
func FilterGroups(groups []DuplicateGroup, minimum GroupConfidence) []DuplicateGroup {
	if minimum == "" {
		return groups
	}
	filtered := slice.Filter(groups, func(group DuplicateGroup) bool {
		return group.Confidence.AtLeast(minimum)
	})
	if filtered == nil {
		return []DuplicateGroup{}
	}
	return filtered
}

// Confidence is the tier a reason justifies on its own.
func (reason Reason) Confidence() GroupConfidence {
	switch reason {
	case ReasonSameName, ReasonSameExternalID:
		return ConfidenceHigh
	case ReasonSimilarName, ReasonSamePublisherSimilarName:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// GroupMember is a series inside a group together with its own justification.
type GroupMember struct {
	Series  *Series  `json:"series"`
	Reasons []Reason `json:"reasons"`
}

// DuplicateGroup is a cluster of series believed to be the same real series.
type DuplicateGroup struct {
	ID         string          `json:"id"`
	Members    []GroupMember   `json:"members"`
	Confidence GroupConfidence `json:"confidence"`
	Reasons    []Reason        `json:"reasons"`
}

// SeriesIDs returns the member IDs in member order.
func (group DuplicateGroup) SeriesIDs() []string {
	return slice.Map(group.Members, func(member GroupMember) string { return member.Series.ID })
}

// DuplicateReport is one finished detection run.
type DuplicateReport struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	SeriesScanned int              `json:"series_scanned"`
	Groups        []DuplicateGroup `json:"groups"`
}

// # Detection

/*
DetectDuplicates groups the Active series of catalogue that look like the same
series.

Description: Four passes run in order: identical normalised names (high),
shared external identifier of the same kind (high), edit similarity in
[0.8, 1.0) (medium) and, for series sharing a publisher, edit similarity in
[0.6, 0.8) (medium). Passes three and four skip pairs that already share a
group. A finding that touches existing groups unions them. A group's tier is
its strongest reason and is never lowered by a weaker finding; members keep
the reasons that concern them.

Parameters:
  - catalogue: []*Series (Soft-deleted entries are ignored)

Returns:
  - []DuplicateGroup: Strongest groups first, then by first member name
*/
func DetectDuplicates(catalogue []*Series) []DuplicateGroup {
	active := slice.Filter(catalogue, func(series *Series) bool { return series.Lifecycle.IsActive() })
	sort.SliceStable(active, func(i, j int) bool { return lessByName(active[i], active[j]) })

	normalized := slice.Map(active, func(series *Series) string { return Normalize(series.Name) })
	detection := newDetection(active)

	// 1. Same normalized name
	byName := newBuckets()
	for i, name := range normalized {
		if name != "" {
			byName.add(name, i)
		}
	}
	for _, members := range byName.groups() {
		detection.record(members, ReasonSameName)
	}

	// 2. Same external identifier
	byExternalID := newBuckets()
	for i, series := range active {
		kinds := make([]string, 0, len(series.ExternalIDs))
		for kind := range series.ExternalIDs {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			if value := strings.TrimSpace(series.ExternalIDs[kind]); value != "" {
				byExternalID.add(strings.ToLower(kind)+"\x00"+value, i)
			}
		}
	}
	for _, members := range byExternalID.groups() {
		detection.record(members, ReasonSameExternalID)
	}

	// 3. Similar names
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			if detection.together(i, j) {
				continue
			}
			if score := editSimilarityNormalized(normalized[i], normalized[j]); score >= SimilarNameThreshold && score < 1.0 {
				detection.record([]int{i, j}, ReasonSimilarName)
			}
		}
	}

	// 4. Same publisher, moderately similar names
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			publisher := IdentityKey(active[i].Publisher)
			if publisher == "" || publisher != IdentityKey(active[j].Publisher) || detection.together(i, j) {
				continue
			}
			if score := editSimilarityNormalized(normalized[i], normalized[j]); score >= ModerateNameThreshold && score < SimilarNameThreshold {
				detection.record([]int{i, j}, ReasonSamePublisherSimilarName)
			}
		}
	}

	return detection.result()
}

// # Detection State

// groupBuilder accumulates one group while the passes run.
type groupBuilder struct {
	members    []int
	reasons    map[int]map[Reason]struct{}
	union      map[Reason]struct{}
	confidence GroupConfidence
}

// detection tracks which group, if any, each series index belongs to.
type detection struct {
	series  []*Series
	groups  []*groupBuilder // Absorbed groups are nil
	groupOf map[int]int
}

func newDetection(series []*Series) *detection {
	return &detection{series: series, groupOf: make(map[int]int)}
}

func (detection *detection) together(left, right int) bool {
	leftGroup, leftGrouped := detection.groupOf[left]
	rightGroup, rightGrouped := detection.groupOf[right]
	return leftGrouped && rightGrouped && leftGroup == rightGroup
}

// record folds one finding into the groups, unioning every group it touches.
func (detection *detection) record(members []int, reason Reason) {
	target := -1
	for _, member := range members {
		existing, grouped := detection.groupOf[member]
		if !grouped {
			continue
		}
		switch {
		case target == -1:
			target = existing
		case existing != target:
			detection.absorb(min(target, existing), max(target, existing))
			target = min(target, existing)
		}
	}

	if target == -1 {
		target = len(detection.groups)
		detection.groups = append(detection.groups, &groupBuilder{
			reasons: make(map[int]map[Reason]struct{}),
			union:   make(map[Reason]struct{}),
		})
	}

	group := detection.groups[target]
	for _, member := range members {
		if _, present := group.reasons[member]; !present {
			group.members = append(group.members, member)
			group.reasons[member] = make(map[Reason]struct{})
			detection.groupOf[member] = target
		}
		group.reasons[member][reason] = struct{}{}
	}
	group.union[reason] = struct{}{}
	if reason.Confidence().rank() > group.confidence.rank() {
		group.confidence = reason.Confidence()
	}
}

// absorb moves every member of group from into group into.
func (detection *detection) absorb(into, from int) {
	target, source := detection.groups[into], detection.groups[from]
	for _, member := range source.members {
		target.members = append(target.members, member)
		target.reasons[member] = source.reasons[member]
		detection.groupOf[member] = into
	}
	for reason := range source.union {
		target.union[reason] = struct{}{}
	}
	if source.confidence.rank() > target.confidence.rank() {
		target.confidence = source.confidence
	}
	detection.groups[from] = nil
}

// result freezes the builders into deterministic groups.
func (detection *detection) result() []DuplicateGroup {
	groups := make([]DuplicateGroup, 0, len(detection.groups))
	for _, builder := range detection.groups {
		if builder == nil || len(builder.members) < 2 {
			continue
		}

		members := make([]GroupMember, 0, len(builder.members))
		for _, index := range builder.members {
			members = append(members, GroupMember{
				Series:  detection.series[index],
				Reasons: sortedReasons(builder.reasons[index]),
			})
		}
		sort.SliceStable(members, func(i, j int) bool { return lessByName(members[i].Series, members[j].Series) })

		groups = append(groups, DuplicateGroup{
			ID:         uuid.New(),
			Members:    members,
			Confidence: builder.confidence,
			Reasons:    sortedReasons(builder.union),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		left, right := groups[i], groups[j]
		if left.Confidence.rank() != right.Confidence.rank() {
			return left.Confidence.rank() > right.Confidence.rank()
		}
		return lessByName(left.Members[0].Series, right.Members[0].Series)
	})

	return groups
}

// # Helpers

// buckets groups indices by key, remembering first-seen key order.
type buckets struct {
	order   []string
	members map[string][]int
}

func newBuckets() *buckets {
	return &buckets{members: make(map[string][]int)}
}

func (buckets *buckets) add(key string, index int) {
	if _, seen := buckets.members[key]; !seen {
		buckets.order = append(buckets.order, key)
	}
	buckets.members[key] = append(buckets.members[key], index)
}

// groups returns every bucket holding at least two distinct indices.
func (buckets *buckets) groups() [][]int {
	var groups [][]int
	for _, key := range buckets.order {
		if members := distinct(buckets.members[key]); len(members) >= 2 {
			groups = append(groups, members)
		}
	}
	return groups
}

func distinct(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	result := make([]int, 0, len(indices))
	for _, index := range indices {
		if _, dup := seen[index]; !dup {
			seen[index] = struct{}{}
			result = append(result, index)
		}
	}
	return result
}

func sortedReasons(set map[Reason]struct{}) []Reason {
	reasons := make([]Reason, 0, len(set))
	for reason := range set {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool {
		left, right := reasons[i].Confidence().rank(), reasons[j].Confidence().rank()
		if left != right {
			return left > right
		}
		return reasons[i] < reasons[j]
	})
	return reasons
}

func lessByName(left, right *Series) bool {
	leftName, rightName := strings.ToLower(left.Name), strings.ToLower(right.Name)
	if leftName != rightName {
		return leftName < rightName
	}
	return left.ID < right.ID
}
