package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"FxForecast/internal/domain/models"
	domrepo "FxForecast/internal/domain/repository"
	pkgch "FxForecast/pkg/clickhouse"
	applogger "FxForecast/pkg/logger"
	"FxForecast/pkg/util"
)

// CHArchive appends every published forecast point to a ClickHouse table so
// forecasts can later be compared with what actually happened.
type CHArchive struct {
	db      *sql.DB
	table   string
	timeout time.Duration
	loc     *time.Location
	l       *applogger.Logger
}

// NewCHArchive reads snapshot generated_at stamps as wall time in loc.
func NewCHArchive(ch *pkgch.Client, table string, loc *time.Location, l *applogger.Logger) *CHArchive {
	if l == nil {
		l = applogger.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CHArchive{
		db:      ch.DB(),
		table:   fmt.Sprintf("%s.%s", ch.Database(), table),
		timeout: ch.WriteTimeout(),
		loc:     loc,
		l:       l,
	}
}

// ArchiveSchema returns the DDL for the archive table.
func ArchiveSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    run_id       String,
    snapshot     LowCardinality(String),
    instrument   LowCardinality(String),
    generated_at DateTime,
    date         Date,
    prediction   Float64,
    conf_low     Float64,
    conf_high    Float64
) ENGINE = MergeTree
ORDER BY (snapshot, instrument, generated_at, date)`, database, table),
	}
}

func (a *CHArchive) Name() string { return "clickhouse" }

// Publish inserts the forecast rows of snap in one batch.
func (a *CHArchive) Publish(ctx context.Context, spec models.SnapshotSpec, runID string, snap *models.Snapshot) error {
	start := time.Now()
	generatedAt, err := a.generatedAt(snap.GeneratedAt)
	if err != nil {
		return err
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (run_id, snapshot, instrument, generated_at, date, prediction, conf_low, conf_high)", a.table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	labels := make([]string, 0, len(snap.Forecasts))
	for k := range snap.Forecasts {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	rows := 0
	for _, label := range labels {
		for _, p := range snap.Forecasts[label].Forecast {
			d, err := time.Parse(util.ISODate, p.Date)
			if err != nil {
				return fmt.Errorf("parse forecast date %q: %w", p.Date, err)
			}
			if _, err := stmt.ExecContext(ctx, runID, spec.Name, label, generatedAt, d, p.Prediction, p.ConfLow, p.ConfHigh); err != nil {
				return fmt.Errorf("append row: %w", err)
			}
			rows++
		}
	}
	if err := tx.Commit(); err != nil {
		a.l.Error("clickhouse archive insert failed",
			applogger.String("table", a.table),
			applogger.String("snapshot", spec.Name),
			applogger.Error(err),
		)
		return fmt.Errorf("commit batch: %w", err)
	}
	a.l.Info("clickhouse archive insert ok",
		applogger.String("table", a.table),
		applogger.String("snapshot", spec.Name),
		applogger.Int("rows", rows),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (a *CHArchive) generatedAt(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.GeneratedAtLayout, s, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse generated_at: %w", err)
	}
	return t, nil
}

var _ domrepo.SnapshotSink = (*CHArchive)(nil)
