package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/abrezinsky/gacharank/internal/gacha"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository/migrations"
)

// Setting keys
const (
	SettingCatalogTitle   = "catalog_title"
	SettingRankMessageID  = "rank_message_id"
	SettingLeaderboardURL = "leaderboard_url"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single connection; :memory: databases
	// also vanish if the pool ever opens a second one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate applies the embedded goose migrations
func (r *Repository) migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, r.db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// isConstraintError reports whether err is a SQLite UNIQUE or PRIMARY KEY violation
func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// ==================== Catalog Methods ====================

// GetCatalogTitle returns the display title, or "" when none is set
func (r *Repository) GetCatalogTitle(ctx context.Context) (string, error) {
	title, err := r.GetSetting(ctx, SettingCatalogTitle)
	if err == ErrNotFound {
		return "", nil
	}
	return title, err
}

// SetCatalogTitle stores the display title
func (r *Repository) SetCatalogTitle(ctx context.Context, title string) error {
	return r.SetSetting(ctx, SettingCatalogTitle, title)
}

// ListCharacters returns the draw pool in insertion order
func (r *Repository) ListCharacters(ctx context.Context) ([]models.Character, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, id, rank, name, image, rate
		FROM characters
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	characters := []models.Character{}
	for rows.Next() {
		var c models.Character
		var rank string
		if err := rows.Scan(&c.Position, &c.ID, &rank, &c.Name, &c.Image, &c.Rate); err != nil {
			return nil, err
		}
		c.Rank = gacha.Tier(rank)
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

// GetCharacter retrieves a character by id
func (r *Repository) GetCharacter(ctx context.Context, id string) (*models.Character, error) {
	var c models.Character
	var rank string
	err := r.db.QueryRowContext(ctx, `
		SELECT seq, id, rank, name, image, rate FROM characters WHERE id = ?
	`, id).Scan(&c.Position, &c.ID, &rank, &c.Name, &c.Image, &c.Rate)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Rank = gacha.Tier(rank)
	return &c, nil
}

// CreateCharacter appends a character to the pool.
// Returns ErrDuplicate if the id is already taken.
func (r *Repository) CreateCharacter(ctx context.Context, c models.Character) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO characters (id, rank, name, image, rate) VALUES (?, ?, ?, ?, ?)
	`, c.ID, string(c.Rank), c.Name, c.Image, c.Rate)
	if isConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// RenameCharacter changes a character's display name
func (r *Repository) RenameCharacter(ctx context.Context, id, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE characters SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteCharacter removes a character from the pool
func (r *Repository) DeleteCharacter(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Cooldown Methods ====================

// GetLastDraw returns when the user last drew. ok is false if they never have.
func (r *Repository) GetLastDraw(ctx context.Context, userID string) (time.Time, bool, error) {
	var ms int64
	err := r.db.QueryRowContext(ctx, `SELECT last_draw_ms FROM cooldowns WHERE user_id = ?`, userID).Scan(&ms)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return fromMillis(ms), true, nil
}

// MarkDrawn records at as the user's last draw time
func (r *Repository) MarkDrawn(ctx context.Context, userID string, at time.Time) error {
	return markDrawn(ctx, r.db, userID, at)
}

func markDrawn(ctx context.Context, q dbtx, userID string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cooldowns (user_id, last_draw_ms) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_draw_ms = excluded.last_draw_ms
	`, userID, toMillis(at))
	return err
}

// ==================== Ledger Methods ====================

// AddPoints creates the entry if absent, adds delta and refreshes the display
// name when one is given. The total never drops below zero. Returns the new total.
func (r *Repository) AddPoints(ctx context.Context, userID, displayName string, delta int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	total, err := addPoints(ctx, tx, userID, displayName, delta, time.Now())
	if err != nil {
		return 0, err
	}
	return total, tx.Commit()
}

func addPoints(ctx context.Context, q dbtx, userID, displayName string, delta int, at time.Time) (int, error) {
	// An empty name keeps the stored one; a new entry falls back to the user id
	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger (user_id, display_name, points, updated_ms)
		VALUES (:user, COALESCE(NULLIF(:name, ''), :user), MAX(0, :delta), :at)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = COALESCE(NULLIF(:name, ''), ledger.display_name),
			points = MAX(0, ledger.points + :delta),
			updated_ms = excluded.updated_ms
	`, sql.Named("user", userID), sql.Named("name", displayName), sql.Named("delta", delta), sql.Named("at", toMillis(at)))
	if err != nil {
		return 0, err
	}

	var total int
	err = q.QueryRowContext(ctx, `SELECT points FROM ledger WHERE user_id = ?`, userID).Scan(&total)
	return total, err
}

// GetLedgerEntry returns the user's entry or ErrNotFound
func (r *Repository) GetLedgerEntry(ctx context.Context, userID string) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, points FROM ledger WHERE user_id = ?
	`, userID).Scan(&e.UserID, &e.DisplayName, &e.Points)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListLedger returns every entry ranked by points descending.
// Ties keep the order in which users first entered the ledger.
func (r *Repository) ListLedger(ctx context.Context) ([]models.LedgerEntry, error) {
	return listLedger(ctx, r.db)
}

func listLedger(ctx context.Context, q dbtx) ([]models.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id, display_name, points
		FROM ledger
		ORDER BY points DESC, seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Points); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ResetLedger zeroes every entry, keeping users and display names.
// Returns the number of entries touched.
func (r *Repository) ResetLedger(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE ledger SET points = 0`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SnapshotAndResetLedger returns every entry in rank order and zeroes them in
// the same transaction, so no write can land between the read and the reset.
func (r *Repository) SnapshotAndResetLedger(ctx context.Context) ([]models.LedgerEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entries, err := listLedger(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ledger SET points = 0`); err != nil {
		return nil, err
	}
	return entries, tx.Commit()
}

// ==================== Draw Methods ====================

// CommitDraw logs the draw, marks the cooldown and awards the points in one
// transaction. Returns the user's new total.
func (r *Repository) CommitDraw(ctx context.Context, rec models.DrawRecord) (int, error) {
	characters, err := json.Marshal(rec.Characters)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO draws (id, user_id, display_name, points, characters, created_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.DisplayName, rec.Points, string(characters), toMillis(rec.CreatedAt))
	if isConstraintError(err) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}

	if err := markDrawn(ctx, tx, rec.UserID, rec.CreatedAt); err != nil {
		return 0, err
	}

	total, err := addPoints(ctx, tx, rec.UserID, rec.DisplayName, rec.Points, rec.CreatedAt)
	if err != nil {
		return 0, err
	}

	return total, tx.Commit()
}

// ListDraws returns a user's most recent draws, newest first
func (r *Repository) ListDraws(ctx context.Context, userID string, limit int) ([]models.DrawRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, display_name, points, characters, created_ms
		FROM draws
		WHERE user_id = ?
		ORDER BY created_ms DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.DrawRecord{}
	for rows.Next() {
		var rec models.DrawRecord
		var characters string
		var ms int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.DisplayName, &rec.Points, &characters, &ms); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(characters), &rec.Characters); err != nil {
			return nil, err
		}
		rec.CreatedAt = fromMillis(ms)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ==================== Archive Methods ====================

// SaveArchive stores an immutable leaderboard snapshot
func (r *Repository) SaveArchive(ctx context.Context, rec models.ArchiveRecord) error {
	entries, err := json.Marshal(rec.Entries)
	if err != nil {
		return err
	}
	var winner sql.NullString
	if rec.Winner != nil {
		b, err := json.Marshal(rec.Winner)
		if err != nil {
			return err
		}
		winner = sql.NullString{String: string(b), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO archives (id, title, entries, winner, created_ms) VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Title, string(entries), winner, toMillis(rec.CreatedAt))
	if isConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// ListArchives returns every archive, newest first
func (r *Repository) ListArchives(ctx context.Context) ([]models.ArchiveRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, entries, winner, created_ms FROM archives ORDER BY created_ms DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	archives := []models.ArchiveRecord{}
	for rows.Next() {
		rec, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		archives = append(archives, *rec)
	}
	return archives, rows.Err()
}

// GetArchive retrieves an archive by id
func (r *Repository) GetArchive(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, entries, winner, created_ms FROM archives WHERE id = ?
	`, id)
	rec, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArchive(s scanner) (*models.ArchiveRecord, error) {
	var rec models.ArchiveRecord
	var entries string
	var winner sql.NullString
	var ms int64
	if err := s.Scan(&rec.ID, &rec.Title, &entries, &winner, &ms); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(entries), &rec.Entries); err != nil {
		return nil, err
	}
	if winner.Valid {
		rec.Winner = &models.RankedEntry{}
		if err := json.Unmarshal([]byte(winner.String), rec.Winner); err != nil {
			return nil, err
		}
	}
	rec.CreatedAt = fromMillis(ms)
	return &rec, nil
}

// ==================== Panel Methods ====================

// GetPanel returns the panel installed in channelID or ErrNotFound
func (r *Repository) GetPanel(ctx context.Context, channelID string) (*models.Panel, error) {
	var p models.Panel
	var ms int64
	err := r.db.QueryRowContext(ctx, `
		SELECT channel_id, message_id, created_ms FROM panels WHERE channel_id = ?
	`, channelID).Scan(&p.ChannelID, &p.MessageID, &ms)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = fromMillis(ms)
	return &p, nil
}

// SavePanel records a panel. Returns ErrDuplicate if the channel already has one.
func (r *Repository) SavePanel(ctx context.Context, p models.Panel) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO panels (channel_id, message_id, created_ms) VALUES (?, ?, ?)
	`, p.ChannelID, p.MessageID, toMillis(p.CreatedAt))
	if isConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// ListPanels returns every installed panel
func (r *Repository) ListPanels(ctx context.Context) ([]models.Panel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT channel_id, message_id, created_ms FROM panels ORDER BY created_ms ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	panels := []models.Panel{}
	for rows.Next() {
		var p models.Panel
		var ms int64
		if err := rows.Scan(&p.ChannelID, &p.MessageID, &ms); err != nil {
			return nil, err
		}
		p.CreatedAt = fromMillis(ms)
		panels = append(panels, p)
	}
	return panels, rows.Err()
}
