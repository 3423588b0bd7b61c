package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrPriceNotFound is returned when no quote matches the query.
var ErrPriceNotFound = errors.New("market price not found")

// Repository defines the interface for market price data access
type Repository interface {
	CreatePrice(ctx context.Context, price *Price) error
	GetPrice(ctx context.Context, id uuid.UUID) (*Price, error)
	ListPrices(ctx context.Context, filters *PriceFilters) ([]*Price, int, error)
	GetHistory(ctx context.Context, cropID string, since time.Time) ([]*Price, error)
	GetLatestPrice(ctx context.Context, cropID string) (*Price, error)
	GetPriceStats(ctx context.Context, cropID string, since time.Time) (*PriceStats, error)
	DeletePrice(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the price table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS market_prices (
			id UUID PRIMARY KEY,
			crop_id TEXT NOT NULL,
			market TEXT NOT NULL,
			price_per_quintal DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_market_prices_crop_time
			ON market_prices (crop_id, recorded_at);
	`

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure market price schema: %w", err)
	}

	return nil
}

func (r *PostgresRepository) CreatePrice(ctx context.Context, price *Price) error {
	query := `
		INSERT INTO market_prices (id, crop_id, market, price_per_quintal, recorded_at, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		price.ID, price.CropID, price.Market, price.PricePerQuintal,
		price.RecordedAt, price.Source, price.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create price: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetPrice(ctx context.Context, id uuid.UUID) (*Price, error) {
	query := `
		SELECT id, crop_id, market, price_per_quintal, recorded_at, source, created_at
		FROM market_prices
		WHERE id = $1
	`

	var price Price
	err := r.db.GetContext(ctx, &price, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPriceNotFound
		}
		return nil, fmt.Errorf("failed to get price: %w", err)
	}

	return &price, nil
}

func (r *PostgresRepository) ListPrices(ctx context.Context, filters *PriceFilters) ([]*Price, int, error) {
	var conditions []string
	var args []interface{}
	argCount := 0

	if filters.CropID != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("crop_id = $%d", argCount))
		args = append(args, *filters.CropID)
	}

	if filters.Market != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("market = $%d", argCount))
		args = append(args, *filters.Market)
	}

	if filters.RecordedAfter != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("recorded_at >= $%d", argCount))
		args = append(args, *filters.RecordedAfter)
	}

	if filters.RecordedBefore != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("recorded_at <= $%d", argCount))
		args = append(args, *filters.RecordedBefore)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int
	countQuery := `SELECT COUNT(*) FROM market_prices` + whereClause
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count prices: %w", err)
	}

	offset := (filters.Page - 1) * filters.PageSize
	if filters.Page < 1 {
		offset = 0
	}

	argCount++
	limitArg := argCount
	argCount++
	offsetArg := argCount

	query := `
		SELECT id, crop_id, market, price_per_quintal, recorded_at, source, created_at
		FROM market_prices
	` + whereClause + fmt.Sprintf(" ORDER BY recorded_at DESC LIMIT $%d OFFSET $%d", limitArg, offsetArg)
	args = append(args, filters.PageSize, offset)

	var prices []*Price
	if err := r.db.SelectContext(ctx, &prices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list prices: %w", err)
	}

	return prices, totalCount, nil
}

// GetHistory returns quotes for one crop since the cutoff, oldest
// first, the order the forecaster expects.
func (r *PostgresRepository) GetHistory(ctx context.Context, cropID string, since time.Time) ([]*Price, error) {
	query := `
		SELECT id, crop_id, market, price_per_quintal, recorded_at, source, created_at
		FROM market_prices
		WHERE crop_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC
	`

	var prices []*Price
	if err := r.db.SelectContext(ctx, &prices, query, cropID, since); err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}

	return prices, nil
}

func (r *PostgresRepository) GetLatestPrice(ctx context.Context, cropID string) (*Price, error) {
	query := `
		SELECT id, crop_id, market, price_per_quintal, recorded_at, source, created_at
		FROM market_prices
		WHERE crop_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var price Price
	err := r.db.GetContext(ctx, &price, query, cropID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPriceNotFound
		}
		return nil, fmt.Errorf("failed to get latest price: %w", err)
	}

	return &price, nil
}

func (r *PostgresRepository) GetPriceStats(ctx context.Context, cropID string, since time.Time) (*PriceStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(MIN(price_per_quintal), 0), COALESCE(MAX(price_per_quintal), 0),
			   COALESCE(AVG(price_per_quintal), 0), MIN(recorded_at), MAX(recorded_at)
		FROM market_prices
		WHERE crop_id = $1 AND recorded_at >= $2
	`

	stats := PriceStats{CropID: cropID}
	var firstAt, lastAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, cropID, since).Scan(
		&stats.Observations, &stats.MinPrice, &stats.MaxPrice, &stats.AvgPrice,
		&firstAt, &lastAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get price stats: %w", err)
	}

	if firstAt.Valid {
		stats.FirstAt = &firstAt.Time
	}
	if lastAt.Valid {
		stats.LastAt = &lastAt.Time
	}

	return &stats, nil
}

func (r *PostgresRepository) DeletePrice(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM market_prices WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete price: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrPriceNotFound
	}

	return nil
}
