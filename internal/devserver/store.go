package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/koji0214/summaryoutube/internal/model"
)

var errNoVideo = errors.New("video not found")

// timeLayout matches what the original backend emitted: no zone, microseconds.
const timeLayout = "2006-01-02T15:04:05.000000"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store keeps videos in SQLite (default) or Postgres.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// OpenStore opens driver ("sqlite" or "postgres") at dsn and applies migrations.
func OpenStore(ctx context.Context, driver, dsn string) (*Store, error) {
	var d dialect
	var sqlDriver string
	switch driver {
	case "", "sqlite":
		d, sqlDriver = dialectSQLite, "sqlite"
		if dsn == "" {
			dsn = "file:summaryoutube.sqlite"
		}
	case "postgres":
		d, sqlDriver = dialectPostgres, "postgres"
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	s := &Store{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}
	if d == dialectSQLite {
		// A single connection serializes writers.
		db.SetMaxOpenConns(1)
		for _, p := range []string{
			"PRAGMA journal_mode=WAL;",
			"PRAGMA busy_timeout=5000;",
		} {
			if _, err := db.ExecContext(ctx, p); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrations() []string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialectPostgres {
		id = "SERIAL PRIMARY KEY"
	}
	return []string{
		`CREATE TABLE video (
	id ` + id + `,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	channel_name TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	memo TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'completed',
	transcript TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`,
		`CREATE INDEX idx_video_title ON video(title)`,
	}
}

// migrate applies missing migrations in order and records each one, refusing to run
// against a database whose history diverges.
func (s *Store) migrate(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialectPostgres {
		id = "SERIAL PRIMARY KEY"
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migration (id `+id+`, query TEXT NOT NULL)`); err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}
	var existing []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	wanted := s.migrations()
	if len(existing) > len(wanted) {
		return fmt.Errorf("database has %d migrations, this build knows %d", len(existing), len(wanted))
	}
	for i, q := range wanted {
		if i < len(existing) {
			if existing[i] != q {
				return fmt.Errorf("incompatible migration %d", i+1)
			}
			continue
		}
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO migration (query) VALUES (?)`), q); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Filter narrows List. Tags must all be present on a video.
type Filter struct {
	Title string
	Tags  []string
	Sort  model.SortKey
	Order model.SortOrder
}

const videoColumns = `id, url, title, channel_name, tags, memo, status, transcript, created_at, updated_at`

func (s *Store) List(ctx context.Context, f Filter) ([]model.Video, error) {
	var where []string
	var args []any
	if f.Title != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Title)+"%")
	}
	for _, t := range model.NormalizeTags(f.Tags) {
		where = append(where, "(',' || tags || ',') LIKE ?")
		args = append(args, "%,"+t+",%")
	}
	sortKey := f.Sort
	if !sortKey.Valid() {
		sortKey = model.DefaultSortKey
	}
	order := "ASC"
	if f.Order == model.SortDesc {
		order = "DESC"
	}

	q := `SELECT ` + videoColumns + ` FROM video`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	// sortKey is whitelisted by Valid above.
	q += ` ORDER BY ` + string(sortKey) + ` ` + order

	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(sc scanner) (model.Video, error) {
	var (
		v                  model.Video
		tags, status       string
		transcript         sql.NullString
		createdAt, updated string
	)
	if err := sc.Scan(&v.ID, &v.URL, &v.Title, &v.ChannelName, &tags, &v.Memo, &status, &transcript, &createdAt, &updated); err != nil {
		return model.Video{}, err
	}
	v.Tags = model.DecodeTags(tags)
	v.Status = model.Status(status)
	v.Transcript = transcript.String
	if ts, err := model.ParseTimestamp(createdAt); err == nil {
		v.CreatedAt = &ts
	}
	if ts, err := model.ParseTimestamp(updated); err == nil {
		v.UpdatedAt = &ts
	}
	return v, nil
}

func (s *Store) Get(ctx context.Context, id int64) (model.Video, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+videoColumns+` FROM video WHERE id = ?`), id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Video{}, errNoVideo
	}
	return v, err
}

// Insert stores v and returns it with its new id and timestamps.
func (s *Store) Insert(ctx context.Context, v model.Video) (model.Video, error) {
	now := s.now().Format(timeLayout)
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO video (url, title, channel_name, tags, memo, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		v.URL, v.Title, v.ChannelName, model.EncodeTags(v.Tags), v.Memo, string(v.Status), now, now).Scan(&id)
	if err != nil {
		return model.Video{}, err
	}
	return s.Get(ctx, id)
}

// Update overwrites the editable fields and metadata of video v.ID.
func (s *Store) Update(ctx context.Context, v model.Video) (model.Video, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE video SET url = ?, title = ?, channel_name = ?, tags = ?, memo = ?, updated_at = ? WHERE id = ?`),
		v.URL, v.Title, v.ChannelName, model.EncodeTags(v.Tags), v.Memo, s.now().Format(timeLayout), v.ID)
	if err != nil {
		return model.Video{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Video{}, errNoVideo
	}
	return s.Get(ctx, v.ID)
}

// SetStatus records job progress. The transcript is only written when non-empty.
func (s *Store) SetStatus(ctx context.Context, id int64, status model.Status, transcript string) error {
	q := `UPDATE video SET status = ?, updated_at = ? WHERE id = ?`
	args := []any{string(status), s.now().Format(timeLayout), id}
	if transcript != "" {
		q = `UPDATE video SET status = ?, transcript = ?, updated_at = ? WHERE id = ?`
		args = []any{string(status), transcript, s.now().Format(timeLayout), id}
	}
	res, err := s.db.ExecContext(ctx, s.rebind(q), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoVideo
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM video WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoVideo
	}
	return nil
}

// Tags returns every distinct tag in use, sorted.
func (s *Store) Tags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM video WHERE tags <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := map[string]bool{}
	out := []string{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, t := range model.DecodeTags(raw) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
