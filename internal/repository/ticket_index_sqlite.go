package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/support-triage/internal/domain"
)

type sqliteTicketIndex struct {
	db *sql.DB
}

// NewSQLiteTicketIndex instantiates the embedded index over an open database.
func NewSQLiteTicketIndex(db *sql.DB) TicketIndex {
	return &sqliteTicketIndex{db: db}
}

const sqliteTicketColumns = `ticket_id, user_id, username, issue_description, status, severity, category, created_at, updated_at`

func (r *sqliteTicketIndex) Save(ctx context.Context, ticket *domain.Ticket) error {
	prepareForSave(ticket)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (`+sqliteTicketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ticket_id) DO UPDATE SET
			user_id = excluded.user_id,
			username = excluded.username,
			issue_description = excluded.issue_description,
			status = excluded.status,
			severity = excluded.severity,
			category = excluded.category,
			updated_at = excluded.updated_at`,
		ticket.ID,
		ticket.RequesterID,
		ticket.Username,
		ticket.Description,
		ticket.Status,
		string(ticket.Severity),
		string(ticket.Category),
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}

	var createdAt time.Time
	if err := r.db.QueryRowContext(ctx, `SELECT created_at FROM tickets WHERE ticket_id = ?`, ticket.ID).Scan(&createdAt); err != nil {
		return fmt.Errorf("failed to read back ticket: %w", err)
	}
	ticket.CreatedAt = createdAt.UTC()
	return nil
}

func (r *sqliteTicketIndex) GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteTicketColumns+` FROM tickets WHERE ticket_id = ?`, ticketID)
	ticket, err := scanSQLiteTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

func (r *sqliteTicketIndex) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	query := `SELECT ` + sqliteTicketColumns + ` FROM tickets WHERE user_id = ? ORDER BY created_at DESC, ticket_id DESC`
	args := []any{userID}
	switch {
	case limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(offset, 0))
	case offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanSQLiteTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (r *sqliteTicketIndex) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

func (r *sqliteTicketIndex) UpdateStatus(ctx context.Context, ticketID, status string, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tickets SET status = ?, updated_at = ? WHERE ticket_id = ?`,
		status, updatedAt.UTC(), ticketID)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if affected == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (r *sqliteTicketIndex) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		severity string
		category string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.Username,
		&ticket.Description,
		&ticket.Status,
		&severity,
		&category,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.Severity = domain.Severity(severity)
	ticket.Category = domain.Category(category)
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	ticket.UpdatedAt = ticket.UpdatedAt.UTC()
	return &ticket, nil
}
