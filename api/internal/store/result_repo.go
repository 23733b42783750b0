// Package store caches recognition results in Postgres so a re-sent photo
// does not burn another OCR call. Authorization state is never stored here.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"snaptext-bot/api/internal/ocr"
)

var ErrNotFound = sql.ErrNoRows

type ResultRepo struct{ DB *sql.DB }

func NewResultRepo(db *sql.DB) *ResultRepo { return &ResultRepo{DB: db} }

// EnsureSchema creates the cache table on first run.
func (r *ResultRepo) EnsureSchema(ctx context.Context) error {
	const q = `
create table if not exists recognitions (
  id           bigserial primary key,
  created_at   timestamptz not null default now(),
  chat_id      bigint not null default 0,
  image_hash   text not null,
  engine       text not null,
  model        text not null,
  result_json  jsonb not null,
  unique (image_hash, engine, model)
)`
	_, err := r.DB.ExecContext(ctx, q)
	return err
}

type Row struct {
	ID        int64
	CreatedAt time.Time
	ChatID    int64
	ImageHash string
	Engine    string
	Model     string
	Result    ocr.Result
}

// FindByHash returns the freshest cached result for (image_hash, engine,
// model). With maxAge > 0 stale rows count as missing.
func (r *ResultRepo) FindByHash(ctx context.Context, imageHash, engine, model string, maxAge time.Duration) (*Row, error) {
	const q = `
select id, created_at, coalesce(chat_id,0), image_hash, engine, model, result_json
from recognitions
where image_hash = $1 and engine = $2 and model = $3
order by created_at desc
limit 1`
	row := r.DB.QueryRowContext(ctx, q, imageHash, engine, model)

	var (
		out Row
		js  []byte
	)
	if err := row.Scan(&out.ID, &out.CreatedAt, &out.ChatID, &out.ImageHash, &out.Engine, &out.Model, &js); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(out.CreatedAt) > maxAge {
		return nil, ErrNotFound
	}
	if err := json.Unmarshal(js, &out.Result); err != nil {
		// Corrupt cache row — treat as a miss rather than failing the flow.
		return nil, ErrNotFound
	}
	return &out, nil
}

// Upsert stores a result, replacing any previous row for the same key.
func (r *ResultRepo) Upsert(ctx context.Context, chatID int64, imageHash, engine, model string, res ocr.Result) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	const q = `
insert into recognitions (chat_id, image_hash, engine, model, result_json)
values ($1,$2,$3,$4,$5)
on conflict (image_hash, engine, model) do update
set chat_id = excluded.chat_id,
    result_json = excluded.result_json,
    created_at = now()`
	_, err = r.DB.ExecContext(ctx, q, chatID, imageHash, engine, model, js)
	return err
}

// PurgeOlderThan drops old cache rows to keep the table small.
func (r *ResultRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from recognitions where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
