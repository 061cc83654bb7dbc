// Package sqliterepo is a durable credentials.Repo backed by SQLite. Each
// credential is stored as a sealed JSON blob keyed by session ID.
package sqliterepo

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-drive-uploader/credentials"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ credentials.Repo = (*Repo)(nil)

type Repo struct {
	db      *sql.DB
	sealer  *credentials.Sealer
	nowTime func() time.Time
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string, sealer *credentials.Sealer) (*Repo, error) {
	if sealer == nil {
		return nil, errors.New("[sqliterepo Open] sealer is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("[sqliterepo Open] creating %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("[sqliterepo Open] opening %s: %w", path, err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repo{db: db, sealer: sealer, nowTime: time.Now}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("[sqliterepo] migration filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("[sqliterepo] migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("[sqliterepo] running migrations: %w", err)
	}
	for _, r := range results {
		log.Info().Str("source", r.Source.Path).Dur("duration", r.Duration).Msg("applied migration")
	}
	return nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Get(sessionID string) (*credentials.Credential, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID is required")
	}

	var sealed []byte
	err := r.db.QueryRow(`SELECT sealed FROM credentials WHERE session_id = ?`, sessionID).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, credentials.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential: %w", err)
	}

	return r.open(sessionID, sealed)
}

func (r *Repo) Put(sessionID string, cred credentials.Credential) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	sealed, err := r.seal(sessionID, cred)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO credentials (session_id, sealed, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET sealed = excluded.sealed, updated_at = excluded.updated_at`,
		sessionID, sealed, r.nowTime().UnixNano())
	if err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	return nil
}

// Refresh compares and writes inside one IMMEDIATE transaction so a
// concurrent Put or Delete cannot land between the read and the update.
func (r *Repo) Refresh(sessionID, expectToken string, cred credentials.Credential) (returnError error) {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	ctx := context.Background()
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return fmt.Errorf("starting refresh: %w", err)
	}
	defer func() {
		if returnError != nil {
			conn.ExecContext(ctx, `ROLLBACK`)
		}
	}()

	var sealed []byte
	err = conn.QueryRowContext(ctx, `SELECT sealed FROM credentials WHERE session_id = ?`, sessionID).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return credentials.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading credential: %w", err)
	}

	current, err := r.open(sessionID, sealed)
	if err != nil {
		return err
	}
	if current.Token != expectToken {
		return credentials.ErrCredentialChanged
	}

	if sealed, err = r.seal(sessionID, cred); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, `UPDATE credentials SET sealed = ?, updated_at = ? WHERE session_id = ?`,
		sealed, r.nowTime().UnixNano(), sessionID); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return fmt.Errorf("committing refresh: %w", err)
	}
	return nil
}

func (r *Repo) Delete(sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}
	if _, err := r.db.Exec(`DELETE FROM credentials WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

func (r *Repo) DeleteExpired(before time.Time) (int, error) {
	res, err := r.db.Exec(`DELETE FROM credentials WHERE updated_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("deleting expired credentials: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting expired credentials: %w", err)
	}
	return int(n), nil
}

func (r *Repo) seal(sessionID string, cred credentials.Credential) ([]byte, error) {
	plaintext, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("encoding credential: %w", err)
	}
	return r.sealer.Seal(sessionID, plaintext)
}

func (r *Repo) open(sessionID string, sealed []byte) (*credentials.Credential, error) {
	plaintext, err := r.sealer.Open(sessionID, sealed)
	if err != nil {
		return nil, err
	}

	var cred credentials.Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}
	return &cred, nil
}
