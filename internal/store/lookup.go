package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-insight/apiserver/internal/query"

	"github.com/redis/go-redis/v9"
)

// ErrUnknownDimension is returned for a dimension with no lookup query.
var ErrUnknownDimension = errors.New("unknown filter dimension")

// dimensionQueries are the distinct-value lookups backing the filter
// dropdowns. The SQL is constant; nothing user-supplied enters it.
var dimensionQueries = map[query.Dimension]string{
	query.DimCohort:     `SELECT DISTINCT cohort_id FROM students WHERE cohort_id IS NOT NULL ORDER BY cohort_id`,
	query.DimDepartment: `SELECT DISTINCT department FROM students WHERE department IS NOT NULL ORDER BY department`,
	query.DimCampus:     `SELECT DISTINCT campus FROM students WHERE campus IS NOT NULL ORDER BY campus`,
	query.DimAPIName:    `SELECT DISTINCT api_name FROM system_reliability WHERE api_name IS NOT NULL ORDER BY api_name`,
	query.DimLocation:   `SELECT DISTINCT location FROM system_reliability WHERE location IS NOT NULL ORDER BY location`,
}

// LookupStore serves the distinct filter values for dropdowns, fronted by
// an optional Redis cache. A nil cache client degrades to direct SQL on
// every call.
type LookupStore struct {
	db    *sql.DB
	cache *redis.Client
	ttl   time.Duration
}

func NewLookupStore(db *sql.DB, cache *redis.Client, ttl time.Duration) *LookupStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LookupStore{db: db, cache: cache, ttl: ttl}
}

// Options returns the distinct values for a dimension in sorted order,
// without the "All" sentinel; callers prepend it for display.
func (s *LookupStore) Options(ctx context.Context, dim query.Dimension) ([]string, error) {
	lookupSQL, ok := dimensionQueries[dim]
	if !ok {
		return nil, ErrUnknownDimension
	}

	key := cacheKey(dim)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var values []string
			if err := json.Unmarshal(cached, &values); err == nil {
				return values, nil
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, lookupSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(values); err == nil {
			_ = s.cache.Set(ctx, key, encoded, s.ttl).Err()
		}
	}
	return values, nil
}

// Contains reports whether a value is among the dimension's distinct
// values. Used as the hardening check on submitted dropdown selections.
func (s *LookupStore) Contains(ctx context.Context, dim query.Dimension, value string) (bool, error) {
	values, err := s.Options(ctx, dim)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if v == value {
			return true, nil
		}
	}
	return false, nil
}

func cacheKey(dim query.Dimension) string {
	return fmt.Sprintf("insight:filters:%s", dim)
}

// NewRedisClient connects to Redis for lookup caching. It returns nil when
// no address is configured or the server is unreachable; callers treat nil
// as "cache disabled" and fall through to SQL.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
