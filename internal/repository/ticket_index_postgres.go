package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-triage/internal/domain"
)

type pgTicketIndex struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketIndex instantiates the pgx-backed index.
func NewPostgresTicketIndex(pool *pgxpool.Pool) TicketIndex {
	return &pgTicketIndex{pool: pool}
}

const pgTicketColumns = `ticket_id, user_id, username, issue_description, status, severity, category, created_at, updated_at`

func (r *pgTicketIndex) Save(ctx context.Context, ticket *domain.Ticket) error {
	prepareForSave(ticket)
	const query = `
        INSERT INTO tickets (` + pgTicketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (ticket_id) DO UPDATE SET
            user_id = EXCLUDED.user_id,
            username = EXCLUDED.username,
            issue_description = EXCLUDED.issue_description,
            status = EXCLUDED.status,
            severity = EXCLUDED.severity,
            category = EXCLUDED.category,
            updated_at = EXCLUDED.updated_at
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.RequesterID,
		ticket.Username,
		ticket.Description,
		ticket.Status,
		string(ticket.Severity),
		string(ticket.Category),
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.CreatedAt)
}

func (r *pgTicketIndex) GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	const query = `SELECT ` + pgTicketColumns + ` FROM tickets WHERE ticket_id=$1`
	ticket, err := scanPgTicket(r.pool.QueryRow(ctx, query, ticketID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *pgTicketIndex) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	query := `SELECT ` + pgTicketColumns + ` FROM tickets WHERE user_id=$1
              ORDER BY created_at DESC, ticket_id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2 OFFSET $3"
		args = append(args, limit, max(offset, 0))
	} else if offset > 0 {
		query += " OFFSET $2"
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanPgTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (r *pgTicketIndex) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE user_id=$1`, userID).Scan(&count)
	return count, err
}

func (r *pgTicketIndex) UpdateStatus(ctx context.Context, ticketID, status string, updatedAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=$2 WHERE ticket_id=$3`,
		status, updatedAt.UTC(), ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (r *pgTicketIndex) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanPgTicket(row pgx.Row) (*domain.Ticket, error) {
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
	return &ticket, nil
}
