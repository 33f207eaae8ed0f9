package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	"blueprints/pkg/platform/sentinel"
	txcontext "blueprints/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

const requestColumns = `
	id, type_id, type_name, is_original, runs, material_efficiency, time_efficiency,
	location_id, location_name, requested_runs, requestor_id, requestor_name,
	owner_kind, owner_id, owner_name, status, fulfilling_user,
	created_at, updated_at, closed_at, version`

// PostgresStore persists requests and their status history in PostgreSQL.
// It joins a transaction carried in the context (pkg/platform/tx) and opens
// its own otherwise.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// withTx runs fn inside the context transaction, or a new one.
func (s *PostgresStore) withTx(ctx context.Context, fn func(exec dbExecutor) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Request) error {
	return s.withTx(ctx, func(exec dbExecutor) error {
		query := `
			INSERT INTO requests (` + requestColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		`
		_, err := exec.ExecContext(ctx, query,
			uuid.UUID(r.ID),
			int64(r.Blueprint.TypeID),
			r.Blueprint.TypeName,
			r.Blueprint.IsOriginal,
			r.Blueprint.Runs,
			r.Blueprint.MaterialEfficiency,
			r.Blueprint.TimeEfficiency,
			int64(r.Blueprint.LocationID),
			r.Blueprint.LocationName,
			r.RequestedRuns,
			uuid.UUID(r.Requestor),
			r.RequestorName,
			string(r.Owner.Kind),
			r.Owner.ID,
			r.Owner.Name,
			string(r.Status),
			nullableUser(r.FulfillingUser),
			r.CreatedAt,
			r.UpdatedAt,
			r.ClosedAt,
			r.Version,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return sentinel.ErrAlreadyUsed
			}
			return fmt.Errorf("insert request: %w", err)
		}
		return insertHistory(ctx, exec, r.ID, 0, r.History)
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	exec := s.execer(ctx)
	r, err := scanRequest(exec.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	history, err := loadHistory(ctx, exec, requestID)
	if err != nil {
		return nil, err
	}
	r.History = history
	return r, nil
}

// ListByRequestor returns the requestor's requests without history.
func (s *PostgresStore) ListByRequestor(ctx context.Context, requestor id.UserID, includeClosed bool) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE requestor_id = $1 AND ($2 OR closed_at IS NULL)`
	return s.list(ctx, query, uuid.UUID(requestor), includeClosed)
}

// ListByOwners returns requests held by any of the characters or corporations, without history.
func (s *PostgresStore) ListByOwners(ctx context.Context, characters []id.CharacterID, corporations []id.CorporationID, includeClosed bool) ([]*models.Request, error) {
	if len(characters) == 0 && len(corporations) == 0 {
		return []*models.Request{}, nil
	}
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE ((owner_kind = 'character' AND owner_id = ANY($1))
		    OR (owner_kind = 'corporation' AND owner_id = ANY($2)))
		  AND ($3 OR closed_at IS NULL)`
	return s.list(ctx, query, pq.Array(int64s(characters)), pq.Array(int64s(corporations)), includeClosed)
}

// CompareAndSwap loads the request, applies fn to it and writes it back with
// a conditional UPDATE on (id, version, status). History rows appended by fn
// are inserted in the same transaction. Zero updated rows means another writer
// committed first.
func (s *PostgresStore) CompareAndSwap(ctx context.Context, requestID id.RequestID, expectedVersion int64, fn func(*models.Request) error) (*models.Request, error) {
	var updated *models.Request
	err := s.withTx(ctx, func(exec dbExecutor) error {
		txCtx := ctx
		if tx, ok := exec.(*sql.Tx); ok {
			txCtx = txcontext.WithTx(ctx, tx)
		}
		current, err := s.FindByID(txCtx, requestID)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return sentinel.ErrConflict
		}
		prevStatus := current.Status
		prevHistory := len(current.History)

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}

		res, err := exec.ExecContext(ctx, `
			UPDATE requests
			SET status = $1, fulfilling_user = $2, updated_at = $3, closed_at = $4, version = $5
			WHERE id = $6 AND version = $7 AND status = $8
		`,
			string(next.Status),
			nullableUser(next.FulfillingUser),
			next.UpdatedAt,
			next.ClosedAt,
			next.Version,
			uuid.UUID(requestID),
			expectedVersion,
			string(prevStatus),
		)
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update request rows affected: %w", err)
		}
		if n == 0 {
			return sentinel.ErrConflict
		}
		if err := insertHistory(ctx, exec, requestID, prevHistory, next.History[prevHistory:]); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Request, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return out, nil
}

func insertHistory(ctx context.Context, exec dbExecutor, requestID id.RequestID, startSeq int, entries []models.StatusChange) error {
	for i, h := range entries {
		var from *string
		if h.From != "" {
			f := string(h.From)
			from = &f
		}
		_, err := exec.ExecContext(ctx, `
			INSERT INTO request_status_history (request_id, seq, from_status, to_status, action, actor_id, at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			uuid.UUID(requestID),
			startSeq+i,
			from,
			string(h.To),
			string(h.Action),
			uuid.UUID(h.Actor),
			h.At,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert status history: %w", err)
		}
	}
	return nil
}

func loadHistory(ctx context.Context, exec dbExecutor, requestID id.RequestID) ([]models.StatusChange, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT from_status, to_status, action, actor_id, at
		FROM request_status_history
		WHERE request_id = $1
		ORDER BY seq
	`, uuid.UUID(requestID))
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	history := make([]models.StatusChange, 0)
	for rows.Next() {
		var (
			from  sql.NullString
			h     models.StatusChange
			to    string
			act   string
			actor uuid.UUID
		)
		if err := rows.Scan(&from, &to, &act, &actor, &h.At); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		h.From = models.Status(from.String)
		if h.To, err = models.ParseStatus(to); err != nil {
			return nil, fmt.Errorf("%w: history of request %s has status %q", sentinel.ErrInvalidState, requestID, to)
		}
		h.Action = models.Action(act)
		h.Actor = id.UserID(actor)
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}
	return history, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r          models.Request
		reqID      uuid.UUID
		typeID     int64
		locationID int64
		requestor  uuid.UUID
		ownerKind  string
		status     string
		fulfilling uuid.NullUUID
		closedAt   sql.NullTime
	)
	err := row.Scan(
		&reqID,
		&typeID,
		&r.Blueprint.TypeName,
		&r.Blueprint.IsOriginal,
		&r.Blueprint.Runs,
		&r.Blueprint.MaterialEfficiency,
		&r.Blueprint.TimeEfficiency,
		&locationID,
		&r.Blueprint.LocationName,
		&r.RequestedRuns,
		&requestor,
		&r.RequestorName,
		&ownerKind,
		&r.Owner.ID,
		&r.Owner.Name,
		&status,
		&fulfilling,
		&r.CreatedAt,
		&r.UpdatedAt,
		&closedAt,
		&r.Version,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.RequestID(reqID)
	r.Blueprint.TypeID = id.TypeID(typeID)
	r.Blueprint.LocationID = id.LocationID(locationID)
	r.Requestor = id.UserID(requestor)
	r.Owner.Kind = models.OwnerKind(ownerKind)
	if r.Status, err = models.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("%w: request %s has status %q", sentinel.ErrInvalidState, r.ID, status)
	}
	if fulfilling.Valid {
		u := id.UserID(fulfilling.UUID)
		r.FulfillingUser = &u
	}
	if closedAt.Valid {
		t := closedAt.Time
		r.ClosedAt = &t
	}
	return &r, nil
}

func nullableUser(u *id.UserID) *uuid.UUID {
	if u == nil {
		return nil
	}
	v := uuid.UUID(*u)
	return &v
}

func int64s[T ~int64](in []T) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
