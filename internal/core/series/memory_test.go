// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/dberr"
	"github.com/RolldeoDev/Helixio-sub007/pkg/uuid"
)

// # In-memory Repository

// membership is one collection entry of a series.
type membership struct {
	collectionID string
	seriesID     string
	active       bool
}

// progressRecord is the aggregate reading progress of one user on one series.
type progressRecord struct {
	userID      string
	seriesID    string
	issuesRead  int
	totalIssues int
}

type memoryState struct {
	series      map[string]*series.Series
	files       map[string]string // File ID to owning series ID, "" when unlinked
	memberships []membership
	progress    []progressRecord
	reads       map[string]map[string]bool // User ID to completed file IDs
}

func (state memoryState) clone() memoryState {
	copied := memoryState{
		series:      make(map[string]*series.Series, len(state.series)),
		files:       make(map[string]string, len(state.files)),
		memberships: append([]membership(nil), state.memberships...),
		progress:    append([]progressRecord(nil), state.progress...),
		reads:       make(map[string]map[string]bool, len(state.reads)),
	}
	for id, entry := range state.series {
		copied.series[id] = entry.Clone()
	}
	for fileID, seriesID := range state.files {
		copied.files[fileID] = seriesID
	}
	for userID, files := range state.reads {
		copied.reads[userID] = make(map[string]bool, len(files))
		for fileID, completed := range files {
			copied.reads[userID][fileID] = completed
		}
	}
	return copied
}

// memoryRepository implements series.Repository and series.MergeTx over maps,
// enforcing the Active identity uniqueness the database index provides.
type memoryRepository struct {
	mutex  sync.Mutex
	state  memoryState
	failOn map[string]error // Merge step name to injected failure
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		state: memoryState{
			series: make(map[string]*series.Series),
			files:  make(map[string]string),
			reads:  make(map[string]map[string]bool),
		},
		failOn: make(map[string]error),
	}
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*series.Series, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.findByID(id)
}

func (repository *memoryRepository) findByID(id string) (*series.Series, error) {
	entry, found := repository.state.series[id]
	if !found {
		return nil, apperr.NotFound("Series")
	}
	return entry.Clone(), nil
}

func (repository *memoryRepository) FindByIdentity(_ context.Context, name, publisher string) (*series.Series, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var best *series.Series
	for _, entry := range repository.state.series {
		if series.IdentityKey(entry.Name) != series.IdentityKey(name) ||
			series.IdentityKey(entry.Publisher) != series.IdentityKey(publisher) {
			continue
		}
		if best == nil || ranksBefore(entry, best) {
			best = entry
		}
	}

	if best == nil {
		return nil, apperr.NotFound("Series")
	}
	return best.Clone(), nil
}

func (repository *memoryRepository) FindByNameAndYear(_ context.Context, name string, year int) (*series.Series, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var best *series.Series
	for _, entry := range repository.state.series {
		if series.IdentityKey(entry.Name) != series.IdentityKey(name) || entry.StartYear == nil || *entry.StartYear != year {
			continue
		}
		if best == nil || ranksBefore(entry, best) {
			best = entry
		}
	}

	if best == nil {
		return nil, apperr.NotFound("Series")
	}
	return best.Clone(), nil
}

// ranksBefore orders Active rows first, then the most recently deleted.
func ranksBefore(left, right *series.Series) bool {
	if left.Lifecycle.IsActive() != right.Lifecycle.IsActive() {
		return left.Lifecycle.IsActive()
	}
	leftAt, _ := left.Lifecycle.DeletedAt()
	rightAt, _ := right.Lifecycle.DeletedAt()
	return leftAt.After(rightAt)
}

func (repository *memoryRepository) ListActive(_ context.Context) ([]*series.Series, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.listActive(), nil
}

func (repository *memoryRepository) listActive() []*series.Series {
	active := make([]*series.Series, 0, len(repository.state.series))
	for _, entry := range repository.state.series {
		if entry.Lifecycle.IsActive() {
			active = append(active, entry.Clone())
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return strings.ToLower(active[i].Name) < strings.ToLower(active[j].Name)
	})
	return active
}

func (repository *memoryRepository) ListPage(_ context.Context, limit, offset int) ([]*series.Series, int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	active := repository.listActive()
	if offset >= len(active) {
		return []*series.Series{}, len(active), nil
	}
	end := min(len(active), offset+limit)
	return active[offset:end], len(active), nil
}

func (repository *memoryRepository) Insert(_ context.Context, entry *series.Series) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	if repository.identityTaken(entry.Name, entry.Publisher, "") {
		return fmt.Errorf("insert_series: %w", dberr.ErrIdentityConflict)
	}
	repository.state.series[entry.ID] = entry.Clone()
	return nil
}

func (repository *memoryRepository) Update(_ context.Context, entry *series.Series) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	current, found := repository.state.series[entry.ID]
	if !found {
		return apperr.NotFound("Series")
	}
	if current.Lifecycle.IsActive() && repository.identityTaken(entry.Name, entry.Publisher, entry.ID) {
		return fmt.Errorf("update_series: %w", dberr.ErrIdentityConflict)
	}

	updated := entry.Clone()
	updated.Lifecycle = current.Lifecycle
	repository.state.series[entry.ID] = updated
	return nil
}

func (repository *memoryRepository) Restore(_ context.Context, id string) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.restore(id)
}

func (repository *memoryRepository) restore(id string) error {
	current, found := repository.state.series[id]
	if !found {
		return apperr.NotFound("Series")
	}
	if current.Lifecycle.IsActive() {
		return nil
	}
	if repository.identityTaken(current.Name, current.Publisher, id) {
		return fmt.Errorf("restore_series: %w", dberr.ErrIdentityConflict)
	}

	current.Lifecycle = series.Active()
	repository.setMemberships(id, true)
	return nil
}

func (repository *memoryRepository) SoftDelete(_ context.Context, id string) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	current, found := repository.state.series[id]
	if !found {
		return apperr.NotFound("Series")
	}
	current.Lifecycle = series.SoftDeleted(time.Now().UTC())
	repository.setMemberships(id, false)
	return nil
}

func (repository *memoryRepository) setMemberships(seriesID string, active bool) {
	for i := range repository.state.memberships {
		if repository.state.memberships[i].seriesID == seriesID {
			repository.state.memberships[i].active = active
		}
	}
}

func (repository *memoryRepository) LinkFile(_ context.Context, fileID, seriesID string) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	if _, found := repository.state.files[fileID]; !found {
		return apperr.NotFound("File")
	}
	repository.state.files[fileID] = seriesID
	return nil
}

func (repository *memoryRepository) FileExists(_ context.Context, fileID string) (bool, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	_, found := repository.state.files[fileID]
	return found, nil
}

func (repository *memoryRepository) CountFiles(_ context.Context, seriesID string) (int, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.countFiles(seriesID), nil
}

func (repository *memoryRepository) countFiles(seriesID string) int {
	count := 0
	for _, owner := range repository.state.files {
		if owner == seriesID {
			count++
		}
	}
	return count
}

// WithinTx serialises fn against every other call and restores the snapshot
// taken before fn when it fails.
func (repository *memoryRepository) WithinTx(_ context.Context, fn func(series.MergeTx) error) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	snapshot := repository.state.clone()
	if err := fn(&memoryTx{repository: repository}); err != nil {
		repository.state = snapshot
		return err
	}
	return nil
}

func (repository *memoryRepository) identityTaken(name, publisher, exceptID string) bool {
	for id, entry := range repository.state.series {
		if id == exceptID || !entry.Lifecycle.IsActive() {
			continue
		}
		if series.IdentityKey(entry.Name) == series.IdentityKey(name) &&
			series.IdentityKey(entry.Publisher) == series.IdentityKey(publisher) {
			return true
		}
	}
	return false
}

// # Merge Transaction

// memoryTx runs while WithinTx holds the repository lock.
type memoryTx struct {
	repository *memoryRepository
}

func (transaction *memoryTx) fail(step string) error {
	return transaction.repository.failOn[step]
}

func (transaction *memoryTx) FindByID(_ context.Context, id string) (*series.Series, error) {
	return transaction.repository.findByID(id)
}

func (transaction *memoryTx) CountFiles(_ context.Context, seriesID string) (int, error) {
	return transaction.repository.countFiles(seriesID), nil
}

func (transaction *memoryTx) ReassignFiles(_ context.Context, from, to string) (int, error) {
	if err := transaction.fail("reassign_files"); err != nil {
		return 0, err
	}
	moved := 0
	for fileID, owner := range transaction.repository.state.files {
		if owner == from {
			transaction.repository.state.files[fileID] = to
			moved++
		}
	}
	return moved, nil
}

func (transaction *memoryTx) MoveCollections(_ context.Context, from, to string) (int, error) {
	if err := transaction.fail("move_collections"); err != nil {
		return 0, err
	}
	state := &transaction.repository.state

	targetCollections := make(map[string]bool)
	for _, entry := range state.memberships {
		if entry.seriesID == to {
			targetCollections[entry.collectionID] = true
		}
	}

	kept := state.memberships[:0]
	moved := 0
	for _, entry := range state.memberships {
		if entry.seriesID == from {
			if targetCollections[entry.collectionID] {
				continue
			}
			entry.seriesID = to
			entry.active = true
			moved++
		}
		kept = append(kept, entry)
	}
	state.memberships = kept
	return moved, nil
}

func (transaction *memoryTx) MoveProgress(_ context.Context, from, to string) (int, error) {
	if err := transaction.fail("move_progress"); err != nil {
		return 0, err
	}
	state := &transaction.repository.state

	targetUsers := make(map[string]bool)
	for _, record := range state.progress {
		if record.seriesID == to {
			targetUsers[record.userID] = true
		}
	}

	kept := state.progress[:0]
	moved := 0
	for _, record := range state.progress {
		if record.seriesID == from {
			if targetUsers[record.userID] {
				continue
			}
			record.seriesID = to
			moved++
		}
		kept = append(kept, record)
	}
	state.progress = kept
	return moved, nil
}

func (transaction *memoryTx) SetAliases(_ context.Context, id string, aliases []string) error {
	if err := transaction.fail("set_aliases"); err != nil {
		return err
	}
	entry, found := transaction.repository.state.series[id]
	if !found {
		return apperr.NotFound("Series")
	}
	entry.Aliases = append([]string{}, aliases...)
	return nil
}

func (transaction *memoryTx) Restore(_ context.Context, id string) error {
	if err := transaction.fail("restore_series"); err != nil {
		return err
	}
	return transaction.repository.restore(id)
}

func (transaction *memoryTx) Delete(_ context.Context, id string) error {
	if err := transaction.fail("delete_series"); err != nil {
		return err
	}
	if _, found := transaction.repository.state.series[id]; !found {
		return apperr.NotFound("Series")
	}
	delete(transaction.repository.state.series, id)
	return nil
}

func (transaction *memoryTx) RecomputeProgress(_ context.Context, seriesID string) error {
	if err := transaction.fail("recompute_progress"); err != nil {
		return err
	}
	state := &transaction.repository.state
	total := transaction.repository.countFiles(seriesID)

	for i := range state.progress {
		record := &state.progress[i]
		if record.seriesID != seriesID {
			continue
		}
		read := 0
		for fileID, completed := range state.reads[record.userID] {
			if completed && state.files[fileID] == seriesID {
				read++
			}
		}
		record.issuesRead = read
		record.totalIssues = total
	}
	return nil
}

// # Fixtures

// seriesOption customises a fixture series.
type seriesOption func(*series.Series)

func withYear(year int) seriesOption {
	return func(entry *series.Series) { entry.StartYear = &year }
}

func withAliases(aliases ...string) seriesOption {
	return func(entry *series.Series) { entry.Aliases = aliases }
}

func withExternalID(kind, value string) seriesOption {
	return func(entry *series.Series) { entry.ExternalIDs[kind] = value }
}

func softDeleted(at time.Time) seriesOption {
	return func(entry *series.Series) { entry.Lifecycle = series.SoftDeleted(at) }
}

// newSeries builds a detached fixture series.
func newSeries(name, publisher string, options ...seriesOption) *series.Series {
	now := time.Now().UTC()
	entry := &series.Series{
		ID:           uuid.New(),
		Name:         name,
		Publisher:    publisher,
		Aliases:      []string{},
		ExternalIDs:  map[string]string{},
		LockedFields: []string{},
		Lifecycle:    series.Active(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, option := range options {
		option(entry)
	}
	return entry
}

// seed stores a fixture series directly, bypassing identity checks.
func (repository *memoryRepository) seed(t *testing.T, name, publisher string, options ...seriesOption) *series.Series {
	t.Helper()

	entry := newSeries(name, publisher, options...)
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	require.False(t, entry.Lifecycle.IsActive() && repository.identityTaken(entry.Name, entry.Publisher, ""),
		"fixture %q collides with an Active series", name)
	repository.state.series[entry.ID] = entry.Clone()
	return entry
}

// seedFiles registers count files owned by seriesID ("" for unlinked files).
func (repository *memoryRepository) seedFiles(seriesID string, count int) []string {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	ids := make([]string, 0, count)
	for range count {
		id := uuid.New()
		repository.state.files[id] = seriesID
		ids = append(ids, id)
	}
	return ids
}

func (repository *memoryRepository) seedMembership(collectionID, seriesID string) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.state.memberships = append(repository.state.memberships,
		membership{collectionID: collectionID, seriesID: seriesID, active: true})
}

func (repository *memoryRepository) seedInactiveMembership(collectionID, seriesID string) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.state.memberships = append(repository.state.memberships,
		membership{collectionID: collectionID, seriesID: seriesID, active: false})
}

func (repository *memoryRepository) seedProgress(userID, seriesID string, completedFiles ...string) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.state.progress = append(repository.state.progress,
		progressRecord{userID: userID, seriesID: seriesID, issuesRead: len(completedFiles)})
	if repository.state.reads[userID] == nil {
		repository.state.reads[userID] = make(map[string]bool)
	}
	for _, fileID := range completedFiles {
		repository.state.reads[userID][fileID] = true
	}
}

func (repository *memoryRepository) owner(fileID string) string {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	return repository.state.files[fileID]
}

func (repository *memoryRepository) membershipsOf(seriesID string) []membership {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var result []membership
	for _, entry := range repository.state.memberships {
		if entry.seriesID == seriesID {
			result = append(result, entry)
		}
	}
	return result
}

func (repository *memoryRepository) progressOf(seriesID string) []progressRecord {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var result []progressRecord
	for _, record := range repository.state.progress {
		if record.seriesID == seriesID {
			result = append(result, record)
		}
	}
	return result
}

// activeNamed returns the Active series whose name matches exactly.
func (repository *memoryRepository) activeNamed(name string) []*series.Series {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()

	var result []*series.Series
	for _, entry := range repository.listActive() {
		if entry.Name == name {
			result = append(result, entry)
		}
	}
	return result
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// timeAgo returns the UTC instant hours before now.
func timeAgo(hours int) time.Time {
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
}
