package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo with ent's SQL builders. Both append paths
// draw their position from the shared journalSeq.
type eventRepo struct {
	drv *entsql.Driver
	seq *journalSeq
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *eventRepo) AppendDetection(ctx context.Context, data DetectionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("journal position: %w", err)
	}

	query, args := builder().
		Insert(detectionEventsTable).
		Columns("sequence", "timestamp", "run_id", "detector", "path", "label", "confidence", "flag", "latency_us", "reason").
		Values(seqNum, time.Now().UTC(), data.RunID, data.Detector, data.Path, data.Label, data.Confidence, data.Flag, data.LatencyUs, data.Reason).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save detection event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendBackendInit(ctx context.Context, data BackendInitEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("journal position: %w", err)
	}

	query, args := builder().
		Insert(backendInitEventsTable).
		Columns("sequence", "timestamp", "run_id", "detector", "state", "error_message").
		Values(seqNum, time.Now().UTC(), data.RunID, data.Detector, data.State, data.ErrorMessage).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save backend init event: %w", err)
	}
	return nil
}

// filters turns opts into predicates on t. Detector and Path only apply to
// tables that carry them.
func filters(t *entsql.SelectTable, opts QueryOpts, withPath bool) []*entsql.Predicate {
	var ps []*entsql.Predicate
	if opts.After > 0 {
		ps = append(ps, entsql.GT(t.C("sequence"), opts.After))
	}
	if opts.Before > 0 {
		ps = append(ps, entsql.LT(t.C("sequence"), opts.Before))
	}
	if opts.RunID != "" {
		ps = append(ps, entsql.EQ(t.C("run_id"), opts.RunID))
	}
	if opts.Detector != "" {
		ps = append(ps, entsql.EQ(t.C("detector"), opts.Detector))
	}
	if withPath && opts.Path != "" {
		ps = append(ps, entsql.EQ(t.C("path"), opts.Path))
	}
	return ps
}

func (r *eventRepo) QueryDetections(ctx context.Context, opts QueryOpts) ([]DetectionEvent, error) {
	b := builder()
	t := b.Table(detectionEventsTable)
	sel := b.Select(
		t.C("sequence"), t.C("timestamp"), t.C("run_id"), t.C("detector"), t.C("path"),
		t.C("label"), t.C("confidence"), t.C("flag"), t.C("latency_us"), t.C("reason"),
	).From(t)
	if ps := filters(t, opts, true); len(ps) > 0 {
		sel.Where(entsql.And(ps...))
	}
	sel.OrderBy(entsql.Desc(t.C("sequence")))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query detection events: %w", err)
	}
	defer rows.Close()

	var out []DetectionEvent
	for rows.Next() {
		var ev DetectionEvent
		if err := rows.Scan(
			&ev.Sequence, &ev.Timestamp, &ev.RunID, &ev.Detector, &ev.Path,
			&ev.Label, &ev.Confidence, &ev.Flag, &ev.LatencyUs, &ev.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan detection event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detection events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) QueryBackendInits(ctx context.Context, opts QueryOpts) ([]BackendInitEvent, error) {
	b := builder()
	t := b.Table(backendInitEventsTable)
	sel := b.Select(
		t.C("sequence"), t.C("timestamp"), t.C("run_id"), t.C("detector"), t.C("state"), t.C("error_message"),
	).From(t)
	if ps := filters(t, opts, false); len(ps) > 0 {
		sel.Where(entsql.And(ps...))
	}
	sel.OrderBy(entsql.Desc(t.C("sequence")))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query backend init events: %w", err)
	}
	defer rows.Close()

	var out []BackendInitEvent
	for rows.Next() {
		var ev BackendInitEvent
		if err := rows.Scan(&ev.Sequence, &ev.Timestamp, &ev.RunID, &ev.Detector, &ev.State, &ev.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan backend init event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backend init events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) DetectionStats(ctx context.Context, opts QueryOpts) ([]DetectionStat, error) {
	b := builder()
	t := b.Table(detectionEventsTable)
	sel := b.Select(
		t.C("detector"),
		t.C("path"),
		entsql.As(entsql.Count("*"), "n"),
		entsql.As(entsql.Sum(t.C("flag")), "flagged"),
		entsql.As(entsql.Avg(t.C("confidence")), "avg_confidence"),
		entsql.As(entsql.Avg(t.C("latency_us")), "avg_latency_us"),
	).From(t)
	if ps := filters(t, opts, true); len(ps) > 0 {
		sel.Where(entsql.And(ps...))
	}
	sel.GroupBy(t.C("detector"), t.C("path")).
		OrderBy(t.C("detector"), t.C("path"))

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query detection stats: %w", err)
	}
	defer rows.Close()

	var out []DetectionStat
	for rows.Next() {
		var s DetectionStat
		if err := rows.Scan(&s.Detector, &s.Path, &s.Count, &s.Flagged, &s.AvgConfidence, &s.AvgLatencyUs); err != nil {
			return nil, fmt.Errorf("scan detection stat: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detection stats: %w", err)
	}
	return out, nil
}

func (r *eventRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must be non-negative, got %d", keep)
	}

	// Find the sequence of the newest row that falls outside the window.
	b := builder()
	t := b.Table(detectionEventsTable)
	query, args := b.Select(t.C("sequence")).
		From(t).
		OrderBy(entsql.Desc(t.C("sequence"))).
		Offset(keep).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("query prune threshold: %w", err)
	}
	var threshold int64
	found := rows.Next()
	if found {
		if err := rows.Scan(&threshold); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan prune threshold: %w", err)
		}
	}
	rows.Close()
	if !found {
		return 0, nil // fewer than keep rows exist
	}

	query, args = builder().
		Delete(detectionEventsTable).
		Where(entsql.LTE("sequence", threshold)).
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("prune detection events: %w", err)
	}
	return res.RowsAffected()
}
