package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/executor"
	"github.com/mselser95/crossarb/pkg/types"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func testRecord(t *testing.T) *executor.RoundRecord {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &executor.RoundRecord{
		ID:          "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		MakerMarket: "BTC-USDT",
		MakerSide:   types.SideBuy,
		MakerPrice:  dec(t, "99.5"),
		MakerAmount: dec(t, "1"),
		Legs: []executor.LegRecord{
			{Market: "BTC-USDT", Side: types.SideSell, VWAP: dec(t, "102.6"), Amount: dec(t, "1")},
		},
		PnLPct:    dec(t, "3.11"),
		PnLQuote:  dec(t, "3.1"),
		FeesQuote: dec(t, "0.2"),
		CreatedAt: now,
		SettledAt: now.Add(30 * time.Second),
	}
}

func TestConsoleStorage_StoreRound(t *testing.T) {
	logger := zap.NewNop()
	store := NewConsoleStorage(logger)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := store.StoreRound(context.Background(), testRecord(t))

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Fatalf("StoreRound: %v", err)
	}

	for _, want := range []string{"HEDGE ROUND SETTLED", "BTC-USDT", "3.1", "PROFITABLE"} {
		if !bytes.Contains([]byte(output), []byte(want)) {
			t.Errorf("expected output to contain %q", want)
		}
	}

	if err := store.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPostgresStorage_StoreRound(t *testing.T) {
	logger := zap.NewNop()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := &PostgresStorage{db: db, logger: logger}
	record := testRecord(t)

	mock.ExpectExec("INSERT INTO hedge_rounds").
		WithArgs(
			record.ID,
			record.MakerMarket,
			string(record.MakerSide),
			"99.5",
			"1",
			sqlmock.AnyArg(), // legs JSONB
			"3.11",
			"3.1",
			"0.2",
			record.CreatedAt,
			record.SettledAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.StoreRound(context.Background(), record); err != nil {
		t.Fatalf("StoreRound: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStorage_StoreRoundError(t *testing.T) {
	logger := zap.NewNop()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := &PostgresStorage{db: db, logger: logger}

	mock.ExpectExec("INSERT INTO hedge_rounds").
		WillReturnError(errors.New("connection reset"))

	if err := store.StoreRound(context.Background(), testRecord(t)); err == nil {
		t.Fatal("expected insert error surfaced")
	}
}

func TestPostgresStorage_Close(t *testing.T) {
	logger := zap.NewNop()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	mock.ExpectClose()

	store := &PostgresStorage{db: db, logger: logger}
	if err := store.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
