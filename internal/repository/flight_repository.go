package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/flight-board/internal/domain"
	apperrors "github.com/spec-kit/flight-board/pkg/util"
)

// SearchFilter captures the board's read-side filters. Both fields are
// optional; set fields combine with logical AND.
type SearchFilter struct {
	Status      string
	Destination string
}

// FlightRepository encapsulates flight persistence. It is the single source
// of truth shared by the lifecycle service and the reconciler.
type FlightRepository interface {
	Insert(ctx context.Context, flight *domain.Flight) error
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	// FindInWindow returns flights whose departure time falls inside
	// [start, end], both bounds inclusive.
	FindInWindow(ctx context.Context, start, end time.Time) ([]domain.Flight, error)
	// UpdateStatus writes a new status for the given id. It returns false
	// when the record no longer exists; absence is not an error so that a
	// reconciler racing a delete treats the update as a no-op.
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (bool, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter SearchFilter) ([]domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
}

const uniqueViolationCode = "23505"

type postgresFlightRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresFlightRepository instantiates the pgx-backed repository.
func NewPostgresFlightRepository(pool *pgxpool.Pool) FlightRepository {
	return &postgresFlightRepository{pool: pool}
}

func (r *postgresFlightRepository) Insert(ctx context.Context, flight *domain.Flight) error {
	const query = `
        INSERT INTO flights (flight_number, destination, departure_time, gate, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		flight.FlightNumber,
		flight.Destination,
		flight.DepartureTime,
		flight.Gate,
		flight.Status,
	).Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.NewConflict("flight number already exists", map[string]any{
				"flight_number": flight.FlightNumber,
			})
		}
		return err
	}
	return nil
}

func (r *postgresFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	const query = `
        SELECT id, flight_number, destination, departure_time, gate, status, created_at, updated_at
        FROM flights WHERE id=$1`
	var flight domain.Flight
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&flight.ID,
		&flight.FlightNumber,
		&flight.Destination,
		&flight.DepartureTime,
		&flight.Gate,
		&flight.Status,
		&flight.CreatedAt,
		&flight.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("flight", map[string]any{"id": id})
		}
		return nil, err
	}
	return &flight, nil
}

func (r *postgresFlightRepository) FindInWindow(ctx context.Context, start, end time.Time) ([]domain.Flight, error) {
	const query = `
        SELECT id, flight_number, destination, departure_time, gate, status, created_at, updated_at
        FROM flights
        WHERE departure_time >= $1 AND departure_time <= $2
        ORDER BY departure_time ASC`
	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlights(rows)
}

func (r *postgresFlightRepository) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (bool, error) {
	const query = `UPDATE flights SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresFlightRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM flights WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("flight", map[string]any{"id": id})
	}
	return nil
}

func (r *postgresFlightRepository) Search(ctx context.Context, filter SearchFilter) ([]domain.Flight, error) {
	base := `SELECT id, flight_number, destination, departure_time, gate, status, created_at, updated_at
             FROM flights`
	clauses := []string{"1=1"}
	args := []any{}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, strings.ToLower(status))
		clauses = append(clauses, fmt.Sprintf("LOWER(status) = $%d", len(args)))
	}
	if dest := strings.TrimSpace(filter.Destination); dest != "" {
		args = append(args, "%"+strings.ToLower(dest)+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(destination) LIKE $%d", len(args)))
	}

	query := base + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY departure_time ASC"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlights(rows)
}

func (r *postgresFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.Search(ctx, SearchFilter{})
}

func scanFlights(rows pgx.Rows) ([]domain.Flight, error) {
	var result []domain.Flight
	for rows.Next() {
		var flight domain.Flight
		if err := rows.Scan(
			&flight.ID,
			&flight.FlightNumber,
			&flight.Destination,
			&flight.DepartureTime,
			&flight.Gate,
			&flight.Status,
			&flight.CreatedAt,
			&flight.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, flight)
	}
	return result, rows.Err()
}
