package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// ArrivalRepository stores the arrival log.
type ArrivalRepository interface {
	Create(ctx context.Context, arrival *domain.Arrival) error
	ListRecent(ctx context.Context, limit int) ([]domain.Arrival, error)
}

type arrivalRepository struct {
	pool *pgxpool.Pool
}

// NewArrivalRepository builds repository.
func NewArrivalRepository(pool *pgxpool.Pool) ArrivalRepository {
	return &arrivalRepository{pool: pool}
}

func (r *arrivalRepository) Create(ctx context.Context, arrival *domain.Arrival) error {
	const query = `
        INSERT INTO ticket_arrivals (id, session_id, ticket_ids, ticket_count)
        VALUES ($1,$2,$3,$4)
        RETURNING detected_at`
	return r.pool.QueryRow(ctx, query,
		arrival.ID,
		arrival.SessionID,
		arrival.TicketIDs,
		arrival.Count,
	).Scan(&arrival.DetectedAt)
}

func (r *arrivalRepository) ListRecent(ctx context.Context, limit int) ([]domain.Arrival, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id::text, session_id, ticket_ids, ticket_count, detected_at
        FROM ticket_arrivals ORDER BY detected_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Arrival{}
	for rows.Next() {
		var arrival domain.Arrival
		if err := rows.Scan(
			&arrival.ID,
			&arrival.SessionID,
			&arrival.TicketIDs,
			&arrival.Count,
			&arrival.DetectedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, arrival)
	}
	return result, rows.Err()
}
