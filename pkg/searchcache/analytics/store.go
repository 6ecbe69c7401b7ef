// Package analytics supplies the cache warmer with historically popular
// queries drawn from the platform's search-event store in Postgres.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// Postgres driver registered for sqlx.Connect
	_ "github.com/lib/pq"

	"github.com/launchify/search-cache/pkg/models"
	"github.com/launchify/search-cache/pkg/observability"
	"github.com/launchify/search-cache/pkg/searchcache"
)

// PostgresSource implements searchcache.QuerySource against the
// search_events table written by the request-handling layer.
type PostgresSource struct {
	db      *sqlx.DB
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewPostgresSource creates a popular-query source over an existing
// database handle. The handle's lifecycle belongs to the composition
// root.
func NewPostgresSource(db *sqlx.DB, logger observability.Logger, metrics observability.MetricsClient) *PostgresSource {
	if logger == nil {
		logger = observability.NewLogger("searchcache.analytics")
	}
	if metrics == nil {
		metrics = observability.NewNoopMetricsClient()
	}

	return &PostgresSource{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

// Open connects to Postgres and returns a source owning the handle
func Open(dsn string, logger observability.Logger, metrics observability.MetricsClient) (*PostgresSource, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to analytics store: %w", err)
	}
	return NewPostgresSource(db, logger, metrics), nil
}

// Close releases the database handle
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

type popularQueryRow struct {
	Query            string `db:"query"`
	Filters          []byte `db:"filters"`
	UserType         string `db:"user_type"`
	SubscriptionTier string `db:"subscription_tier"`
	Count            int    `db:"search_count"`
}

// PopularQueries returns the most frequent (query, filters, requester
// profile) combinations over the trailing window, most frequent first.
func (s *PostgresSource) PopularQueries(ctx context.Context, window time.Duration, limit int) ([]searchcache.PopularQuery, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.popular_queries")
	defer span.End()

	query := `
		SELECT query, filters, user_type, subscription_tier, COUNT(*) AS search_count
		FROM search_events
		WHERE created_at >= NOW() - $1 * INTERVAL '1 second'
		GROUP BY query, filters, user_type, subscription_tier
		ORDER BY search_count DESC
		LIMIT $2
	`

	start := time.Now()
	var rows []popularQueryRow
	err := s.db.SelectContext(ctx, &rows, query, int64(window.Seconds()), limit)
	s.metrics.RecordHistogram("analytics.popular_queries.duration", time.Since(start).Seconds(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular queries: %w", err)
	}

	popular := make([]searchcache.PopularQuery, 0, len(rows))
	for _, row := range rows {
		pq := searchcache.PopularQuery{
			Query:            row.Query,
			UserType:         models.UserType(row.UserType),
			SubscriptionTier: models.SubscriptionTier(row.SubscriptionTier),
			Count:            row.Count,
		}

		if len(row.Filters) > 0 {
			if err := json.Unmarshal(row.Filters, &pq.Filters); err != nil {
				// A row with undecodable filters still warms the bare query.
				s.logger.Warn("Skipping undecodable filters", map[string]interface{}{
					"query": row.Query,
					"error": err.Error(),
				})
			}
		}

		popular = append(popular, pq)
	}

	return popular, nil
}
