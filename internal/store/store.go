// Package store persists quality runs, scored items and their evidence
// traces in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/pkg/storage"
)

// Schema is the SQLite schema for quality results.
const Schema = `
CREATE TABLE IF NOT EXISTS quality_runs (
    id           TEXT PRIMARY KEY,
    source       TEXT NOT NULL,
    started_at   INTEGER NOT NULL,
    finished_at  INTEGER,
    items        INTEGER NOT NULL DEFAULT 0,
    good         INTEGER NOT NULL DEFAULT 0,
    warning      INTEGER NOT NULL DEFAULT 0,
    bad          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quality_results (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id           TEXT NOT NULL REFERENCES quality_runs(id) ON DELETE CASCADE,
    news_id          TEXT,
    title            TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    source           TEXT NOT NULL DEFAULT '',
    cross_sources    INTEGER NOT NULL DEFAULT 1,
    score            INTEGER NOT NULL,
    badge            TEXT NOT NULL,
    flags            TEXT NOT NULL DEFAULT '[]',
    evidence_summary TEXT NOT NULL,
    ok_ratio         REAL NOT NULL DEFAULT 0,
    weak_ratio       REAL NOT NULL DEFAULT 0,
    fail_ratio       REAL NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quality_evidence (
    result_id     INTEGER NOT NULL REFERENCES quality_results(id) ON DELETE CASCADE,
    sent_idx      INTEGER NOT NULL,
    summary_sent  TEXT NOT NULL,
    evidence_text TEXT NOT NULL,
    score         REAL NOT NULL,
    verdict       TEXT NOT NULL,
    PRIMARY KEY (result_id, sent_idx)
);

CREATE INDEX IF NOT EXISTS idx_results_run ON quality_results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_badge ON quality_results(badge);
CREATE INDEX IF NOT EXISTS idx_runs_started ON quality_runs(started_at);
`

// Run is one batch of scored items.
type Run struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Items      int       `json:"items"`
	Good       int       `json:"good"`
	Warning    int       `json:"warning"`
	Bad        int       `json:"bad"`
}

// Record is one stored result.
type Record struct {
	ID              int64                 `json:"id"`
	RunID           string                `json:"run_id"`
	NewsID          string                `json:"news_id"`
	Title           string                `json:"title"`
	URL             string                `json:"url,omitempty"`
	Source          string                `json:"source,omitempty"`
	CrossSources    int                   `json:"cross_source_count"`
	Score           int                   `json:"quality_score"`
	Badge           quality.Badge         `json:"badge"`
	Flags           []string              `json:"risk_flags"`
	EvidenceSummary string                `json:"evidence_summary"`
	OKRatio         float64               `json:"ok_ratio"`
	WeakRatio       float64               `json:"weak_ratio"`
	FailRatio       float64               `json:"fail_ratio"`
	Evidence        []quality.EvidenceRow `json:"evidence,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// NewRecord builds a Record from a scored item. url and source describe
// where the article came from and may be empty.
func NewRecord(s quality.Scored, url, source string) Record {
	flags := s.Result.Flags
	if flags == nil {
		flags = []string{}
	}
	return Record{
		NewsID:          NewsIDString(s.Item.ID),
		Title:           s.Item.Title,
		URL:             url,
		Source:          source,
		CrossSources:    s.Item.CrossSourceCount,
		Score:           s.Result.Score,
		Badge:           s.Result.Badge,
		Flags:           flags,
		EvidenceSummary: s.Result.EvidenceSummary(),
		OKRatio:         s.Result.OKRatio,
		WeakRatio:       s.Result.WeakRatio,
		FailRatio:       s.Result.FailRatio,
		Evidence:        s.Result.Evidence,
	}
}

// NewsIDString renders an item id for storage: strings as-is, numbers in
// their JSON form, and nil as "".
func NewsIDString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// Filter narrows ListResults.
type Filter struct {
	RunID string
	Badge quality.Badge
	Limit int
}

const defaultLimit = 50

// Store provides quality result persistence.
type Store struct {
	db  *storage.DB
	now func() time.Time
}

// New wraps an open database and ensures the schema exists.
func New(ctx context.Context, db *storage.DB) (*Store, error) {
	if err := db.Migrate(ctx, Schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Open opens the database at cfg and returns a ready Store.
func Open(ctx context.Context, cfg storage.Config) (*Store, error) {
	db, err := storage.Open(cfg)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the beginning of a run and returns it.
func (s *Store) StartRun(ctx context.Context, source string) (Run, error) {
	run := Run{ID: uuid.NewString(), Source: source, StartedAt: s.now().UTC()}
	_, err := s.db.Builder().
		Insert("quality_runs").
		Columns("id", "source", "started_at").
		Values(run.ID, run.Source, run.StartedAt.UnixMilli()).
		ExecContext(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("start run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's completion time and badge totals.
func (s *Store) FinishRun(ctx context.Context, runID string, counts map[quality.Badge]int) error {
	items := 0
	for _, n := range counts {
		items += n
	}
	res, err := s.db.Builder().
		Update("quality_runs").
		Set("finished_at", s.now().UTC().UnixMilli()).
		Set("items", items).
		Set("good", counts[quality.BadgeGood]).
		Set("warning", counts[quality.BadgeWarning]).
		Set("bad", counts[quality.BadgeBad]).
		Where(sq.Eq{"id": runID}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

// SaveResults stores records and their evidence under runID in one
// transaction. The stored ids are written back into recs.
func (s *Store) SaveResults(ctx context.Context, runID string, recs []Record) error {
	created := s.now().UTC()
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		for i := range recs {
			r := &recs[i]
			flags, err := json.Marshal(r.Flags)
			if err != nil {
				return fmt.Errorf("encode flags: %w", err)
			}
			res, err := sq.Insert("quality_results").
				Columns("run_id", "news_id", "title", "url", "source", "cross_sources",
					"score", "badge", "flags", "evidence_summary",
					"ok_ratio", "weak_ratio", "fail_ratio", "created_at").
				Values(runID, r.NewsID, r.Title, r.URL, r.Source, r.CrossSources,
					r.Score, string(r.Badge), string(flags), r.EvidenceSummary,
					r.OKRatio, r.WeakRatio, r.FailRatio, created.UnixMilli()).
				RunWith(tx).
				ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("insert result %d: %w", i, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("result id: %w", err)
			}
			r.ID, r.RunID, r.CreatedAt = id, runID, created

			if len(r.Evidence) == 0 {
				continue
			}
			ins := sq.Insert("quality_evidence").
				Columns("result_id", "sent_idx", "summary_sent", "evidence_text", "score", "verdict")
			for _, ev := range r.Evidence {
				ins = ins.Values(id, ev.SentenceIndex, ev.SummarySentence, ev.EvidenceText, ev.Score, string(ev.Verdict))
			}
			if _, err := ins.RunWith(tx).ExecContext(ctx); err != nil {
				return fmt.Errorf("insert evidence for result %d: %w", i, err)
			}
		}
		return nil
	})
}

// SaveRun records a complete run in one call: it starts the run, saves
// recs and finishes it with their badge totals.
func (s *Store) SaveRun(ctx context.Context, source string, recs []Record) (Run, error) {
	run, err := s.StartRun(ctx, source)
	if err != nil {
		return Run{}, err
	}
	if err := s.SaveResults(ctx, run.ID, recs); err != nil {
		return Run{}, err
	}
	counts := make(map[quality.Badge]int)
	for _, r := range recs {
		counts[r.Badge]++
	}
	if err := s.FinishRun(ctx, run.ID, counts); err != nil {
		return Run{}, err
	}
	run.Items = len(recs)
	run.Good, run.Warning, run.Bad = counts[quality.BadgeGood], counts[quality.BadgeWarning], counts[quality.BadgeBad]
	return run, nil
}

var resultColumns = []string{
	"id", "run_id", "news_id", "title", "url", "source", "cross_sources",
	"score", "badge", "flags", "evidence_summary",
	"ok_ratio", "weak_ratio", "fail_ratio", "created_at",
}

// ListResults returns stored results, newest first, without evidence.
func (s *Store) ListResults(ctx context.Context, f Filter) ([]Record, error) {
	q := s.db.Builder().Select(resultColumns...).From("quality_results").OrderBy("id DESC")
	if f.RunID != "" {
		q = q.Where(sq.Eq{"run_id": f.RunID})
	}
	if f.Badge != "" {
		q = q.Where(sq.Eq{"badge": string(f.Badge)})
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	q = q.Limit(uint64(limit))

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// RunResults returns every result of a run in insertion order, evidence
// included.
func (s *Store) RunResults(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.Builder().
		Select(resultColumns...).
		From("quality_results").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("run results: %w", err)
	}
	var recs []Record
	index := make(map[int64]int)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[r.ID] = len(recs)
		recs = append(recs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return recs, nil
	}

	ev, err := s.db.Builder().
		Select("e.result_id", "e.sent_idx", "e.summary_sent", "e.evidence_text", "e.score", "e.verdict").
		From("quality_evidence e").
		Join("quality_results r ON r.id = e.result_id").
		Where(sq.Eq{"r.run_id": runID}).
		OrderBy("e.result_id", "e.sent_idx").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("run evidence: %w", err)
	}
	defer ev.Close()
	for ev.Next() {
		var (
			resultID int64
			row      quality.EvidenceRow
			verdict  string
		)
		if err := ev.Scan(&resultID, &row.SentenceIndex, &row.SummarySentence, &row.EvidenceText, &row.Score, &verdict); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		row.Verdict = quality.Verdict(verdict)
		if i, ok := index[resultID]; ok {
			recs[i].Evidence = append(recs[i].Evidence, row)
		}
	}
	return recs, ev.Err()
}

// LatestRun returns the most recently started run, or nil when the store
// is empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.Builder().
		Select("id", "source", "started_at", "finished_at", "items", "good", "warning", "bad").
		From("quality_runs").
		OrderBy("started_at DESC", "rowid DESC").
		Limit(1).
		QueryRowContext(ctx)

	var (
		run      Run
		started  int64
		finished sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.Source, &started, &finished, &run.Items, &run.Good, &run.Warning, &run.Bad)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		run.FinishedAt = time.UnixMilli(finished.Int64).UTC()
	}
	return &run, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		r       Record
		newsID  sql.NullString
		badge   string
		flags   string
		created int64
	)
	err := rows.Scan(&r.ID, &r.RunID, &newsID, &r.Title, &r.URL, &r.Source, &r.CrossSources,
		&r.Score, &badge, &flags, &r.EvidenceSummary,
		&r.OKRatio, &r.WeakRatio, &r.FailRatio, &created)
	if err != nil {
		return Record{}, fmt.Errorf("scan result: %w", err)
	}
	r.NewsID = newsID.String
	r.Badge = quality.Badge(badge)
	r.CreatedAt = time.UnixMilli(created).UTC()
	if err := json.Unmarshal([]byte(flags), &r.Flags); err != nil {
		return Record{}, fmt.Errorf("decode flags of result %d: %w", r.ID, err)
	}
	if r.Flags == nil {
		r.Flags = []string{}
	}
	return r, nil
}
