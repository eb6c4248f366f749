package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"binoqule/internal/ordering"
	"binoqule/internal/team/models"
	"binoqule/pkg/platform/sentinel"
	"binoqule/pkg/platform/tx"
)

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// PostgresStore persists team members in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed member store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const memberColumns = `id, name, email, role, focus_area, bio, photo_url, order_position, created_at, updated_at`

func (s *PostgresStore) FetchAll(ctx context.Context) ([]ordering.Item[models.Member], error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+memberColumns+` FROM team_members ORDER BY order_position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var items []ordering.Item[models.Member]
	for rows.Next() {
		m, err := scanPostgresMember(rows)
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

func (s *PostgresStore) Insert(ctx context.Context, item ordering.Item[models.Member]) (string, error) {
	m := item.Payload
	m.ID = newID(m)
	m.Position = item.Position
	if err := checkWrite(m); err != nil {
		return "", err
	}
	query := `
		INSERT INTO team_members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		m.ID, m.Name, m.Email, m.Role,
		nullString(m.FocusArea), nullString(m.Bio), nullString(m.PhotoURL),
		m.Position, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isPQUniqueViolation(err) {
			return "", fmt.Errorf("insert team member: %w", sentinel.ErrConflict)
		}
		return "", fmt.Errorf("insert team member: %w", err)
	}
	return m.ID, nil
}

func (s *PostgresStore) UpdatePosition(ctx context.Context, id string, position int) error {
	if !isMemberID(id) {
		return sentinel.ErrNotFound
	}
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE team_members SET order_position = $2 WHERE id = $1`, id, position)
	if err != nil {
		return fmt.Errorf("update team member position: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if !isMemberID(id) {
		return sentinel.ErrNotFound
	}
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Member, error) {
	if !isMemberID(id) {
		return nil, sentinel.ErrNotFound
	}
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+memberColumns+` FROM team_members WHERE id = $1`, id)
	m, err := scanPostgresMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpdateProfile writes the editable fields and updated_at. Position is not touched.
func (s *PostgresStore) UpdateProfile(ctx context.Context, m *models.Member) error {
	if err := checkWrite(*m); err != nil {
		return err
	}
	if !isMemberID(m.ID) {
		return sentinel.ErrNotFound
	}
	query := `
		UPDATE team_members SET
			name = $2, email = $3, role = $4,
			focus_area = $5, bio = $6, photo_url = $7,
			updated_at = $8
		WHERE id = $1
	`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		m.ID, m.Name, m.Email, m.Role,
		nullString(m.FocusArea), nullString(m.Bio), nullString(m.PhotoURL),
		m.UpdatedAt,
	)
	if err != nil {
		if isPQUniqueViolation(err) {
			return fmt.Errorf("update team member: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update team member: %w", err)
	}
	return requireOneRow(res)
}

// conn joins a transaction carried by ctx, if any.
func (s *PostgresStore) conn(ctx context.Context) tx.Executor {
	return tx.Conn(ctx, s.db)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresMember(row rowScanner) (models.Member, error) {
	var (
		m                        models.Member
		focusArea, bio, photoURL sql.NullString
	)
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &focusArea, &bio, &photoURL,
		&m.Position, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Member{}, err
		}
		return models.Member{}, fmt.Errorf("scan team member: %w", err)
	}
	m.FocusArea, m.Bio, m.PhotoURL = focusArea.String, bio.String, photoURL.String
	if err := checkRow(m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

func isPQUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
