package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PolyRadar/internal/domain/models"
	pkgch "PolyRadar/pkg/clickhouse"
	applogger "PolyRadar/pkg/logger"
)

// SchemaStatements creates the signal and trade tables (idempotent).
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.signals (
            ts DateTime64(3),
            direction LowCardinality(String),
            strength UInt8,
            score Float64,
            regime LowCardinality(String),
            phase LowCardinality(String),
            spot_price Float64,
            up_price Float64,
            down_price Float64,
            momentum Float64,
            divergence Float64,
            support_resistance Float64,
            macd Float64,
            vwap Float64,
            bollinger Float64,
            trend Float64,
            scenario String
        ) ENGINE = MergeTree()
        ORDER BY ts
        TTL toDateTime(ts) + INTERVAL 30 DAY
    `, database),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.trades (
            ts DateTime64(3),
            action LowCardinality(String),
            direction LowCardinality(String),
            shares Float64,
            price Float64,
            reason String,
            pnl Float64,
            session_pnl Float64
        ) ENGINE = MergeTree()
        ORDER BY ts
    `, database),
	}
}

// CHSignalSink records signals and trade events in ClickHouse.
type CHSignalSink struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHSignalSink(ch *pkgch.Client, database string) *CHSignalSink {
	return &CHSignalSink{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHSignalSink) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalSink) RecordSignal(ctx context.Context, sig *models.SignalResult) error {
	start := time.Now()
	scenario := ""
	if sig.Scenario != nil {
		scenario = sig.Scenario.Name
	}
	q := fmt.Sprintf(`
        INSERT INTO %s.signals
        (ts, direction, strength, score, regime, phase, spot_price, up_price, down_price,
         momentum, divergence, support_resistance, macd, vwap, bollinger, trend, scenario)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, s.database)
	_, err := s.db.ExecContext(ctx, q,
		sig.Timestamp,
		string(sig.Direction),
		uint8(sig.Strength),
		sig.Score,
		string(sig.Regime),
		string(sig.Phase),
		sig.SpotPrice,
		sig.UpPrice,
		sig.DownPrice,
		sig.Components.Momentum,
		sig.Components.Divergence,
		sig.Components.SR,
		sig.Components.MACD,
		sig.Components.VWAP,
		sig.Components.Bollinger,
		sig.Components.Trend,
		scenario,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse signal insert error", applogger.Error(err))
		}
		return fmt.Errorf("record signal: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse signal insert ok",
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return nil
}

func (s *CHSignalSink) RecordTrade(ctx context.Context, ev *models.TradeEvent) error {
	q := fmt.Sprintf(`
        INSERT INTO %s.trades (ts, action, direction, shares, price, reason, pnl, session_pnl)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, s.database)
	_, err := s.db.ExecContext(ctx, q,
		ev.Timestamp,
		ev.Action,
		string(ev.Direction),
		ev.Shares,
		ev.Price,
		ev.Reason,
		ev.PnL,
		ev.SessionPL,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse trade insert error", applogger.Error(err))
		}
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

func (s *CHSignalSink) Close() error { return nil }
