package tier

import (
	"context"
	"database/sql"
	"time"

	"github.com/eduflow/transcache"
)

const postgresName = "postgres"

// Postgres is the durable system-of-record tier, backed by a
// translation_cache table. Writes are advisory: inserting a duplicate
// (word, source_lang, target_lang) triple is a silent no-op. Expiry is
// managed externally (the table is swept by the hosting deployment, not
// by this tier).
type Postgres struct {
	db *sql.DB
}

// Schema is the table the durable tier reads and writes. It is applied
// by the deployment's migrations, not by this package.
const Schema = `
CREATE TABLE IF NOT EXISTS translation_cache (
    cache_key   TEXT PRIMARY KEY,
    word        TEXT NOT NULL,
    source_lang TEXT NOT NULL,
    target_lang TEXT NOT NULL,
    translation TEXT NOT NULL,
    provider    TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// NewPostgres creates a durable tier over an existing database handle.
// The caller owns the handle's lifecycle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Name implements transcache.TierStore.
func (p *Postgres) Name() string {
	return postgresName
}

// Get retrieves a translation by cache key. No rows is a plain miss.
func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var translation string
	err := p.db.QueryRowContext(ctx,
		`SELECT translation FROM translation_cache WHERE cache_key = $1`, key,
	).Scan(&translation)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return translation, true, nil
}

// Set inserts the entry. A conflicting cache key is left untouched:
// the first write wins and the duplicate insert is not an error.
func (p *Postgres) Set(ctx context.Context, key string, entry transcache.Entry) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO translation_cache (cache_key, word, source_lang, target_lang, translation, provider, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (cache_key) DO NOTHING`,
		key,
		entry.Word,
		entry.SourceLang,
		entry.TargetLang,
		entry.Translation,
		string(entry.Provider),
		time.UnixMilli(entry.Timestamp).UTC(),
	)
	return err
}

// Ping verifies the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
