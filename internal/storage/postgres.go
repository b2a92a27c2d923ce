package storage

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/executor"
)

// PostgresStorage persists settled hedge rounds in PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// legRow is the JSONB shape of one taker leg in the legs column.
type legRow struct {
	Market string `json:"market"`
	Side   string `json:"side"`
	VWAP   string `json:"vwap"`
	Amount string `json:"amount"`
}

// StoreRound stores one settled hedge round. Taker legs go into a JSONB
// column so two- and three-leg rounds share a schema.
func (p *PostgresStorage) StoreRound(ctx context.Context, record *executor.RoundRecord) error {
	legs := make([]legRow, 0, len(record.Legs))
	for _, leg := range record.Legs {
		legs = append(legs, legRow{
			Market: leg.Market,
			Side:   string(leg.Side),
			VWAP:   leg.VWAP.String(),
			Amount: leg.Amount.String(),
		})
	}

	legsJSON, err := json.Marshal(legs)
	if err != nil {
		return fmt.Errorf("marshal legs: %w", err)
	}

	query := `
		INSERT INTO hedge_rounds (
			id, maker_market, maker_side, maker_price, maker_amount,
			legs, pnl_pct, pnl_quote, fees_quote,
			created_at, settled_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err = p.db.ExecContext(ctx, query,
		record.ID,
		record.MakerMarket,
		string(record.MakerSide),
		record.MakerPrice.String(),
		record.MakerAmount.String(),
		legsJSON,
		record.PnLPct.String(),
		record.PnLQuote.String(),
		record.FeesQuote.String(),
		record.CreatedAt,
		record.SettledAt,
	)

	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	p.logger.Debug("round-stored",
		zap.String("round-id", record.ID),
		zap.String("maker-market", record.MakerMarket),
		zap.Int("leg-count", len(record.Legs)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
