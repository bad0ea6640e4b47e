// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RolldeoDev/Helixio-sub007/internal/platform/apperr"
	"github.com/RolldeoDev/Helixio-sub007/internal/platform/constants"
)

// ReportStore keeps the latest finished duplicate report for the review UI.
type ReportStore interface {
	Save(context context.Context, report DuplicateReport, ttl time.Duration) error
	Latest(context context.Context) (*DuplicateReport, error)
}

// RedisReportStore implements [ReportStore] using Redis.
type RedisReportStore struct {
	client *redis.Client
}

// NewRedisReportStore creates a Redis-backed [ReportStore].
func NewRedisReportStore(client *redis.Client) *RedisReportStore {
	return &RedisReportStore{client: client}
}

/*
Save replaces the latest report.

Parameters:
  - context: context.Context
  - report: DuplicateReport
  - ttl: time.Duration (0 keeps the report until replaced)

Returns:
  - error: Encoding or connectivity errors
*/
func (store *RedisReportStore) Save(context context.Context, report DuplicateReport, ttl time.Duration) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis_duplicate_report_encode_failed: %w", err)
	}

	if err := store.client.Set(context, constants.RedisKeyDuplicateReport, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_duplicate_report_set_failed: %w", err)
	}

	return nil
}

/*
Latest returns the most recent report.

Returns:
  - *DuplicateReport: Decoded report
  - error: apperr.NotFound when no report is stored or it expired
*/
func (store *RedisReportStore) Latest(context context.Context) (*DuplicateReport, error) {
	payload, err := store.client.Get(context, constants.RedisKeyDuplicateReport).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Duplicate report")
		}
		return nil, fmt.Errorf("redis_duplicate_report_get_failed: %w", err)
	}

	var report DuplicateReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("redis_duplicate_report_decode_failed: %w", err)
	}

	return &report, nil
}
