package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/osoleve/namecorpus/internal/extract"
	"github.com/osoleve/namecorpus/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS names (
	id         TEXT PRIMARY KEY,
	raw_text   TEXT NOT NULL,
	script_tag TEXT NOT NULL,
	syllables  TEXT NOT NULL,
	source     TEXT NOT NULL,
	provenance TEXT NOT NULL,
	flags      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pairs (
	id               TEXT PRIMARY KEY,
	anchor_id        TEXT NOT NULL,
	other_id         TEXT NOT NULL,
	pair_type        TEXT NOT NULL,
	source           TEXT,
	judge_confidence REAL,
	similarity_score REAL
);

CREATE TABLE IF NOT EXISTS candidate_pairs (
	pair_id         TEXT PRIMARY KEY,
	entity_id       TEXT NOT NULL,
	name_a          TEXT NOT NULL,
	script_a        TEXT NOT NULL,
	property_a      TEXT NOT NULL,
	name_b          TEXT NOT NULL,
	script_b        TEXT NOT NULL,
	property_b      TEXT NOT NULL,
	pair_category   TEXT NOT NULL,
	source_datasets TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS triplets (
	id              TEXT PRIMARY KEY,
	anchor_id       TEXT NOT NULL,
	positive_id     TEXT NOT NULL,
	negative_id     TEXT NOT NULL,
	negative_source TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS quadruplets (
	id TEXT PRIMARY KEY,
	a1 TEXT NOT NULL,
	a2 TEXT NOT NULL,
	b1 TEXT NOT NULL,
	b2 TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS expansion_rounds (
	run_id          TEXT NOT NULL,
	round           INTEGER NOT NULL,
	gaps_found      INTEGER NOT NULL,
	proposed        INTEGER NOT NULL,
	accepted        INTEGER NOT NULL,
	acceptance_rate REAL NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run_id, round)
);

CREATE INDEX IF NOT EXISTS idx_names_source ON names(source);
CREATE INDEX IF NOT EXISTS idx_pairs_anchor ON pairs(anchor_id);
CREATE INDEX IF NOT EXISTS idx_pairs_type ON pairs(pair_type);
CREATE INDEX IF NOT EXISTS idx_candidate_pairs_entity ON candidate_pairs(entity_id);
CREATE INDEX IF NOT EXISTS idx_triplets_anchor ON triplets(anchor_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveName(ctx context.Context, name *model.SyllabifiedName) error {
	syllables, err := json.Marshal(name.Syllables)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal syllables")
	}
	provenance, err := json.Marshal(name.Provenance)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal provenance")
	}
	flags, err := json.Marshal(name.Flags)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal flags")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO names (id, raw_text, script_tag, syllables, source, provenance, flags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET flags = excluded.flags`,
		name.ID, name.RawText, name.ScriptTag, string(syllables),
		string(name.Source), string(provenance), string(flags), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save name %s", name.ID)
}

func (s *SQLiteStore) ListNames(ctx context.Context) ([]model.SyllabifiedName, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, raw_text, script_tag, syllables, source, provenance, flags FROM names ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list names")
	}
	defer rows.Close()

	var names []model.SyllabifiedName
	for rows.Next() {
		var n model.SyllabifiedName
		var syllables, provenance string
		var flags sql.NullString
		if err := rows.Scan(&n.ID, &n.RawText, &n.ScriptTag, &syllables, &n.Source, &provenance, &flags); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan name")
		}
		if err := json.Unmarshal([]byte(syllables), &n.Syllables); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal syllables for %s", n.ID)
		}
		if err := json.Unmarshal([]byte(provenance), &n.Provenance); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal provenance for %s", n.ID)
		}
		if flags.Valid && flags.String != "null" {
			if err := json.Unmarshal([]byte(flags.String), &n.Flags); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal flags for %s", n.ID)
			}
		}
		names = append(names, n)
	}
	return names, eris.Wrap(rows.Err(), "sqlite: list names iterate")
}

func (s *SQLiteStore) SavePairs(ctx context.Context, pairs []model.Pair) error {
	return s.inTx(ctx, "save pairs", func(tx *sql.Tx) error {
		for _, p := range pairs {
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO pairs (id, anchor_id, other_id, pair_type, source, judge_confidence, similarity_score)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.AnchorID, p.OtherID, string(p.Type), p.Source, p.JudgeConfidence, p.SimilarityScore,
			)
			if err != nil {
				return eris.Wrapf(err, "pair %s", p.ID)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListPairs(ctx context.Context) ([]model.Pair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, anchor_id, other_id, pair_type, source, judge_confidence, similarity_score FROM pairs ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pairs")
	}
	defer rows.Close()

	var pairs []model.Pair
	for rows.Next() {
		var p model.Pair
		var source sql.NullString
		var conf, sim sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.AnchorID, &p.OtherID, &p.Type, &source, &conf, &sim); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pair")
		}
		p.Source = source.String
		p.JudgeConfidence = conf.Float64
		p.SimilarityScore = sim.Float64
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "sqlite: list pairs iterate")
}

func (s *SQLiteStore) SaveCandidatePairs(ctx context.Context, pairs []extract.CandidatePair) error {
	return s.inTx(ctx, "save candidate pairs", func(tx *sql.Tx) error {
		for _, p := range pairs {
			datasets, err := json.Marshal(p.SourceDatasets)
			if err != nil {
				return eris.Wrapf(err, "marshal datasets for %s", p.PairID)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO candidate_pairs
				 (pair_id, entity_id, name_a, script_a, property_a, name_b, script_b, property_b, pair_category, source_datasets)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.PairID, p.EntityID, p.NameA, p.ScriptA, p.PropertyA,
				p.NameB, p.ScriptB, p.PropertyB, string(p.Category), string(datasets),
			)
			if err != nil {
				return eris.Wrapf(err, "candidate pair %s", p.PairID)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SaveTriplets(ctx context.Context, triplets []model.Triplet) error {
	return s.inTx(ctx, "save triplets", func(tx *sql.Tx) error {
		for _, t := range triplets {
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO triplets (id, anchor_id, positive_id, negative_id, negative_source)
				 VALUES (?, ?, ?, ?, ?)`,
				t.ID, t.AnchorID, t.PositiveID, t.NegativeID, string(t.NegativeSource),
			)
			if err != nil {
				return eris.Wrapf(err, "triplet %s", t.ID)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListTriplets(ctx context.Context) ([]model.Triplet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, anchor_id, positive_id, negative_id, negative_source FROM triplets ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list triplets")
	}
	defer rows.Close()

	var triplets []model.Triplet
	for rows.Next() {
		var t model.Triplet
		if err := rows.Scan(&t.ID, &t.AnchorID, &t.PositiveID, &t.NegativeID, &t.NegativeSource); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan triplet")
		}
		triplets = append(triplets, t)
	}
	return triplets, eris.Wrap(rows.Err(), "sqlite: list triplets iterate")
}

func (s *SQLiteStore) SaveQuadruplets(ctx context.Context, quads []model.Quadruplet) error {
	return s.inTx(ctx, "save quadruplets", func(tx *sql.Tx) error {
		for _, q := range quads {
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO quadruplets (id, a1, a2, b1, b2) VALUES (?, ?, ?, ?, ?)`,
				q.ID, q.A1, q.A2, q.B1, q.B2,
			)
			if err != nil {
				return eris.Wrapf(err, "quadruplet %s", q.ID)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListQuadruplets(ctx context.Context) ([]model.Quadruplet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, a1, a2, b1, b2 FROM quadruplets ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list quadruplets")
	}
	defer rows.Close()

	var quads []model.Quadruplet
	for rows.Next() {
		var q model.Quadruplet
		if err := rows.Scan(&q.ID, &q.A1, &q.A2, &q.B1, &q.B2); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan quadruplet")
		}
		quads = append(quads, q)
	}
	return quads, eris.Wrap(rows.Err(), "sqlite: list quadruplets iterate")
}

func (s *SQLiteStore) SaveRoundLog(ctx context.Context, log model.RoundLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO expansion_rounds (run_id, round, gaps_found, proposed, accepted, acceptance_rate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.RunID, log.Round, log.GapsFound, log.Proposed, log.Accepted, log.AcceptanceRate, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save round log %s/%d", log.RunID, log.Round)
}

func (s *SQLiteStore) ListRoundLogs(ctx context.Context) ([]model.RoundLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, round, gaps_found, proposed, accepted, acceptance_rate FROM expansion_rounds
		 ORDER BY created_at, run_id, round`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list round logs")
	}
	defer rows.Close()

	var logs []model.RoundLog
	for rows.Next() {
		var l model.RoundLog
		if err := rows.Scan(&l.RunID, &l.Round, &l.GapsFound, &l.Proposed, &l.Accepted, &l.AcceptanceRate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan round log")
		}
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: list round logs iterate")
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		dest  *int
		query string
	}{
		{&stats.Names, `SELECT COUNT(*) FROM names`},
		{&stats.SyntheticNames, `SELECT COUNT(*) FROM names WHERE source = 'synthetic'`},
		{&stats.Pairs, `SELECT COUNT(*) FROM pairs`},
		{&stats.CandidatePairs, `SELECT COUNT(*) FROM candidate_pairs`},
		{&stats.Triplets, `SELECT COUNT(*) FROM triplets`},
		{&stats.Quadruplets, `SELECT COUNT(*) FROM quadruplets`},
		{&stats.Rounds, `SELECT COUNT(*) FROM expansion_rounds`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, eris.Wrapf(err, "sqlite: stats query %s", q.query)
		}
	}
	return stats, nil
}

// inTx runs fn inside a transaction, wrapping errors with op.
func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin %s", op)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return eris.Wrapf(err, "sqlite: %s", op)
	}
	return eris.Wrapf(tx.Commit(), "sqlite: commit %s", op)
}
