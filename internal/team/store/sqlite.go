package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"binoqule/internal/ordering"
	"binoqule/internal/team/models"
	"binoqule/pkg/platform/sentinel"
	"binoqule/pkg/platform/tx"
)

// SQLiteStore persists team members in a local SQLite file.
// Timestamps are stored as unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite constructs a SQLite-backed member store over a migrated database.
func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) FetchAll(ctx context.Context) ([]ordering.Item[models.Member], error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+memberColumns+` FROM team_members ORDER BY order_position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var items []ordering.Item[models.Member]
	for rows.Next() {
		m, err := scanSQLiteMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, toItem(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, item ordering.Item[models.Member]) (string, error) {
	m := item.Payload
	m.ID = newID(m)
	m.Position = item.Position
	if err := checkWrite(m); err != nil {
		return "", err
	}
	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO team_members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Role,
		nullString(m.FocusArea), nullString(m.Bio), nullString(m.PhotoURL),
		m.Position, toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return "", fmt.Errorf("insert team member: %w", sentinel.ErrConflict)
		}
		return "", fmt.Errorf("insert team member: %w", err)
	}
	return m.ID, nil
}

func (s *SQLiteStore) UpdatePosition(ctx context.Context, id string, position int) error {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE team_members SET order_position = ? WHERE id = ?`, position, id)
	if err != nil {
		return fmt.Errorf("update team member position: %w", err)
	}
	return requireOneRow(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM team_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	return requireOneRow(res)
}

func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*models.Member, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+memberColumns+` FROM team_members WHERE id = ?`, id)
	m, err := scanSQLiteMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpdateProfile writes the editable fields and updated_at. Position is not touched.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, m *models.Member) error {
	if err := checkWrite(*m); err != nil {
		return err
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE team_members SET
			name = ?, email = ?, role = ?,
			focus_area = ?, bio = ?, photo_url = ?,
			updated_at = ?
		WHERE id = ?`,
		m.Name, m.Email, m.Role,
		nullString(m.FocusArea), nullString(m.Bio), nullString(m.PhotoURL),
		toMillis(m.UpdatedAt), m.ID,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("update team member: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update team member: %w", err)
	}
	return requireOneRow(res)
}

// conn joins a transaction carried by ctx, if any.
func (s *SQLiteStore) conn(ctx context.Context) tx.Executor {
	return tx.Conn(ctx, s.db)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanSQLiteMember(row rowScanner) (models.Member, error) {
	var (
		m                        models.Member
		focusArea, bio, photoURL sql.NullString
		createdAt, updatedAt     int64
	)
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &focusArea, &bio, &photoURL,
		&m.Position, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Member{}, err
		}
		return models.Member{}, fmt.Errorf("scan team member: %w", err)
	}
	m.FocusArea, m.Bio, m.PhotoURL = focusArea.String, bio.String, photoURL.String
	m.CreatedAt, m.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	if err := checkRow(m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	switch code {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	// Without extended result codes only the primary code is set.
	return code&0xff == sqlite3lib.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
