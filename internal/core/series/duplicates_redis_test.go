// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RolldeoDev/Helixio-sub007/internal/core/series"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
)

// inMemoryRedis answers GET and SET from a map so the client never dials.
type inMemoryRedis struct {
	values map[string]string
}

func (hook *inMemoryRedis) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (hook *inMemoryRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (hook *inMemoryRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		switch command := cmd.(type) {
		case *redis.StatusCmd:
			if cmd.Name() != "set" {
				break
			}
			payload, ok := args[2].([]byte)
			if !ok {
				return fmt.Errorf("unexpected set payload %T", args[2])
			}
			hook.values[fmt.Sprint(args[1])] = string(payload)
			command.SetVal("OK")
			return nil
		case *redis.StringCmd:
			if cmd.Name() != "get" {
				break
			}
			value, found := hook.values[fmt.Sprint(args[1])]
			if !found {
				return redis.Nil
			}
			command.SetVal(value)
			return nil
		}
		return next(ctx, cmd)
	}
}

func newRedisReportStore(t *testing.T) *series.RedisReportStore {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(&inMemoryRedis{values: map[string]string{}})
	t.Cleanup(func() { _ = client.Close() })

	return series.NewRedisReportStore(client)
}

func TestRedisReportStore_Latest_Empty(t *testing.T) {
	_, err := newRedisReportStore(t).Latest(context.Background())

	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRedisReportStore_SaveLatest(t *testing.T) {
	ctx := context.Background()
	store := newRedisReportStore(t)

	deletedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	live := newSeries("Saga", "Image", withYear(2012))
	retired := newSeries("Saga", "Image Comics", softDeleted(deletedAt))

	report := series.DuplicateReport{
		GeneratedAt:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		SeriesScanned: 2,
		Groups: []series.DuplicateGroup{{
			ID:         "group-1",
			Confidence: series.ConfidenceHigh,
			Reasons:    []series.Reason{series.ReasonSameName},
			Members: []series.GroupMember{
				{Series: live, Reasons: []series.Reason{series.ReasonSameName}},
				{Series: retired, Reasons: []series.Reason{series.ReasonSameName}},
			},
		}},
	}
	require.NoError(t, store.Save(ctx, report, 0))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)

	assert.True(t, report.GeneratedAt.Equal(latest.GeneratedAt))
	assert.Equal(t, 2, latest.SeriesScanned)
	require.Len(t, latest.Groups, 1)
	require.Len(t, latest.Groups[0].Members, 2)
	assert.Equal(t, []string{live.ID, retired.ID}, latest.Groups[0].SeriesIDs())

	first := latest.Groups[0].Members[0].Series
	assert.True(t, first.Lifecycle.IsActive())
	require.NotNil(t, first.StartYear)
	assert.Equal(t, 2012, *first.StartYear)

	second := latest.Groups[0].Members[1].Series
	assert.Equal(t, series.StateSoftDeleted, second.Lifecycle.State())
	at, deleted := second.Lifecycle.DeletedAt()
	require.True(t, deleted)
	assert.True(t, deletedAt.Equal(at), "deleted at %s", at)
}

func TestRedisReportStore_Save_Replaces(t *testing.T) {
	ctx := context.Background()
	store := newRedisReportStore(t)

	require.NoError(t, store.Save(ctx, series.DuplicateReport{SeriesScanned: 10, Groups: []series.DuplicateGroup{}}, 0))
	require.NoError(t, store.Save(ctx, series.DuplicateReport{SeriesScanned: 3, Groups: []series.DuplicateGroup{}}, time.Hour))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.SeriesScanned)
}
