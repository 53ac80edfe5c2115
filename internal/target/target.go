// Package target implements the query-target collaborator contract over a
// SQLite database. The run engine only sees the run.Target interface; this
// is the implementation the CLI wires in.
package target

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/run"
)

// SQLite executes scenario queries against a SQLite database. The database
// path comes from the scenario's resolved configuration
// (props.KeyTargetDatabase), so each scenario may point at its own target.
//
// The connection lives from Before to After of one scenario. Scenarios run
// strictly sequentially, so a single connection field is safe.
type SQLite struct {
	log *slog.Logger
	db  *sql.DB
}

// NewSQLite creates a target logging through log.
func NewSQLite(log *slog.Logger) *SQLite {
	return &SQLite{log: log}
}

// Before opens and pings the scenario's database. False means the target
// is unavailable and the scenario must be skipped.
func (t *SQLite) Before(ctx context.Context, scen *model.Scenario) bool {
	dsn := scen.Props.TargetDatabase()
	if dsn == "" {
		t.log.Warn("no target database configured", "scenario", scen.ID)
		return false
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.log.Warn("cannot open target database",
			"scenario", scen.ID,
			"error", &run.TargetUnavailableError{Target: dsn, Err: err})
		return false
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		t.log.Warn("target ping failed",
			"scenario", scen.ID,
			"error", &run.TargetUnavailableError{Target: dsn, Err: err})
		return false
	}
	t.db = db
	return true
}

// ExecuteSuite runs every query of the suite in order, recording a result
// on each. A failing query is recorded and execution continues; only
// cancellation and an exceeded time budget end the suite early.
func (t *SQLite) ExecuteSuite(ctx context.Context, scen *model.Scenario, suite *model.Suite) error {
	if t.db == nil {
		return fmt.Errorf("suite %q: target connection not open", suite.ID)
	}
	for _, q := range suite.Queries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if scen.TimeBudget > 0 {
			elapsed := time.Since(scen.StartTime)
			if elapsed > scen.TimeBudget {
				return &run.TimeBudgetError{Scenario: scen.ID, Budget: scen.TimeBudget, Elapsed: elapsed}
			}
		}
		q.Result = t.executeQuery(ctx, q)
	}
	return nil
}

// After closes the scenario's connection.
func (t *SQLite) After(context.Context, *model.Scenario) error {
	if t.db == nil {
		return nil
	}
	err := t.db.Close()
	t.db = nil
	return err
}

func (t *SQLite) executeQuery(ctx context.Context, q *model.Query) *model.QueryResult {
	rows, err := t.db.QueryContext(ctx, q.SQL)
	if err != nil {
		return &model.QueryResult{Kind: model.QueryError, Detail: err.Error()}
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return &model.QueryResult{Kind: model.QueryError, Detail: err.Error()}
	}
	if q.ExpectedRows >= 0 && count != q.ExpectedRows {
		return &model.QueryResult{
			Kind:   model.QueryMismatch,
			Detail: fmt.Sprintf("expected %d rows, got %d", q.ExpectedRows, count),
		}
	}
	return &model.QueryResult{Kind: model.QueryPass}
}
