package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	"blueprints/pkg/platform/sentinel"
	txcontext "blueprints/pkg/platform/tx"
)

const ownerColumns = `owner_kind, owner_id, owner_name, corporation_id, sync_character_id, added_by, created_at, updated_at`

const blueprintSelect = `
	SELECT b.id, b.owner_kind, b.owner_id, o.owner_name, o.corporation_id, b.type_id, b.type_name,
	       b.runs, b.material_efficiency, b.time_efficiency, b.location_id, b.location_name,
	       b.location_flag, b.quantity
	FROM blueprints b
	JOIN blueprint_owners o ON o.owner_kind = b.owner_kind AND o.owner_id = b.owner_id`

// PostgresStore keeps owners and blueprints in two tables. Deleting an owner
// cascades to its blueprints.
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

func (s *PostgresStore) SaveOwner(ctx context.Context, o *models.RegisteredOwner) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO blueprint_owners (`+ownerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_kind, owner_id) DO UPDATE SET
			owner_name = EXCLUDED.owner_name,
			corporation_id = EXCLUDED.corporation_id,
			sync_character_id = EXCLUDED.sync_character_id,
			added_by = EXCLUDED.added_by,
			updated_at = EXCLUDED.updated_at
	`,
		string(o.Owner.Kind),
		o.Owner.ID,
		o.Owner.Name,
		int64(o.CorporationID),
		int64(o.SyncCharacter),
		uuid.UUID(o.AddedBy),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save owner: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindOwner(ctx context.Context, key models.OwnerKey) (*models.RegisteredOwner, error) {
	o, err := scanOwner(s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+ownerColumns+` FROM blueprint_owners WHERE owner_kind = $1 AND owner_id = $2`,
		string(key.Kind), key.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find owner: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) ListOwnersAddedBy(ctx context.Context, user id.UserID) ([]*models.RegisteredOwner, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+ownerColumns+` FROM blueprint_owners WHERE added_by = $1`, uuid.UUID(user))
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	out := make([]*models.RegisteredOwner, 0)
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteOwner(ctx context.Context, key models.OwnerKey) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM blueprint_owners WHERE owner_kind = $1 AND owner_id = $2`,
		string(key.Kind), key.ID)
	if err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete owner rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ReplaceBlueprints locks the owner row, deletes its inventory and inserts
// bps in one transaction.
func (s *PostgresStore) ReplaceBlueprints(ctx context.Context, key models.OwnerKey, bps []*models.Blueprint) error {
	return s.withTx(ctx, func(exec dbExecutor) error {
		var locked int64
		err := exec.QueryRowContext(ctx,
			`SELECT owner_id FROM blueprint_owners WHERE owner_kind = $1 AND owner_id = $2 FOR UPDATE`,
			string(key.Kind), key.ID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock owner: %w", err)
		}
		if _, err := exec.ExecContext(ctx,
			`DELETE FROM blueprints WHERE owner_kind = $1 AND owner_id = $2`,
			string(key.Kind), key.ID); err != nil {
			return fmt.Errorf("clear blueprints: %w", err)
		}
		for _, b := range bps {
			_, err := exec.ExecContext(ctx, `
				INSERT INTO blueprints (
					id, owner_kind, owner_id, type_id, type_name, runs, material_efficiency,
					time_efficiency, location_id, location_name, location_flag, quantity
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			`,
				uuid.UUID(b.ID),
				string(key.Kind),
				key.ID,
				int64(b.TypeID),
				b.TypeName,
				b.Runs,
				b.MaterialEfficiency,
				b.TimeEfficiency,
				int64(b.LocationID),
				b.LocationName,
				b.LocationFlag,
				b.Quantity,
			)
			if err != nil {
				return fmt.Errorf("insert blueprint: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) FindBlueprint(ctx context.Context, bpID id.BlueprintID) (*models.Blueprint, error) {
	b, err := scanBlueprint(s.execer(ctx).QueryRowContext(ctx, blueprintSelect+` WHERE b.id = $1`, uuid.UUID(bpID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find blueprint: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListBlueprintsByCorporations(ctx context.Context, corporations []id.CorporationID) ([]*models.Blueprint, error) {
	if len(corporations) == 0 {
		return []*models.Blueprint{}, nil
	}
	corpIDs := make([]int64, len(corporations))
	for i, c := range corporations {
		corpIDs[i] = int64(c)
	}
	rows, err := s.execer(ctx).QueryContext(ctx, blueprintSelect+` WHERE o.corporation_id = ANY($1)`, pq.Array(corpIDs))
	if err != nil {
		return nil, fmt.Errorf("query blueprints: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Blueprint, 0)
	for rows.Next() {
		b, err := scanBlueprint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blueprint: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blueprints: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOwner(row rowScanner) (*models.RegisteredOwner, error) {
	var (
		o       models.RegisteredOwner
		kind    string
		corp    int64
		char    int64
		addedBy uuid.UUID
	)
	err := row.Scan(&kind, &o.Owner.ID, &o.Owner.Name, &corp, &char, &addedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Owner.Kind = models.OwnerKind(kind)
	o.CorporationID = id.CorporationID(corp)
	o.SyncCharacter = id.CharacterID(char)
	o.AddedBy = id.UserID(addedBy)
	return &o, nil
}

func scanBlueprint(row rowScanner) (*models.Blueprint, error) {
	var (
		b          models.Blueprint
		bpID       uuid.UUID
		kind       string
		corp       int64
		typeID     int64
		locationID int64
	)
	err := row.Scan(
		&bpID,
		&kind,
		&b.Owner.ID,
		&b.Owner.Name,
		&corp,
		&typeID,
		&b.TypeName,
		&b.Runs,
		&b.MaterialEfficiency,
		&b.TimeEfficiency,
		&locationID,
		&b.LocationName,
		&b.LocationFlag,
		&b.Quantity,
	)
	if err != nil {
		return nil, err
	}
	b.ID = id.BlueprintID(bpID)
	b.Owner.Kind = models.OwnerKind(kind)
	b.CorporationID = id.CorporationID(corp)
	b.TypeID = id.TypeID(typeID)
	b.LocationID = id.LocationID(locationID)
	return &b, nil
}
