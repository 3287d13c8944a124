package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/andresuchdata/budget-engine/backend-go/internal/repository"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const defaultProductLimit = 50

var movementColumns = []string{
	"movement_date", "store", "product_code", "description", "movement_type",
	"quantity", "unit_cost", "unit_price", "supplier", "destination_store",
	"document_number", "source_file",
}

type movementRepository struct {
	db *DB
}

func NewMovementRepository(db *DB) repository.MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Transaction, error) {
	query := `
		SELECT
			m.movement_date, m.store, m.product_code, m.description, m.movement_type,
			m.quantity, m.unit_cost, m.unit_price,
			COALESCE(m.supplier, '') AS supplier,
			COALESCE(m.destination_store, '') AS destination_store,
			COALESCE(m.document_number, '') AS document_number
		FROM movements m
		WHERE 1=1
	`

	clause, args := buildMovementFilterClause(filter, "m", 1)
	query += clause + " ORDER BY m.movement_date, m.id"

	var movements []domain.Transaction
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, fmt.Errorf("error listing movements: %w", err)
	}

	log.Debug().
		Int("rows", len(movements)).
		Strs("types", typeNames(filter.Types)).
		Msg("movements loaded")

	return movements, nil
}

func (r *movementRepository) ListStores(ctx context.Context) ([]string, error) {
	query := `
		SELECT store FROM movements
		UNION
		SELECT destination_store FROM movements WHERE COALESCE(destination_store, '') <> ''
		ORDER BY 1
	`

	var stores []string
	if err := r.db.SelectContext(ctx, &stores, query); err != nil {
		return nil, fmt.Errorf("error listing stores: %w", err)
	}
	return stores, nil
}

func (r *movementRepository) ListSuppliers(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT supplier
		FROM movements
		WHERE COALESCE(supplier, '') <> ''
		ORDER BY supplier
	`

	var suppliers []string
	if err := r.db.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, fmt.Errorf("error listing suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *movementRepository) SearchProducts(ctx context.Context, search string, limit int) ([]domain.ProductKey, error) {
	if limit <= 0 {
		limit = defaultProductLimit
	}

	query := `
		SELECT DISTINCT product_code, description, COALESCE(supplier, '') AS supplier
		FROM movements
		WHERE 1=1
	`
	clause, args := buildMovementFilterClause(domain.MovementFilter{Search: search}, "", 1)
	query += clause + fmt.Sprintf(" ORDER BY product_code, description LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var products []domain.ProductKey
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("error searching products: %w", err)
	}
	return products, nil
}

func (r *movementRepository) InsertMovements(ctx context.Context, source string, movements []domain.Transaction) (int, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM movements WHERE source_file = $1`, source); err != nil {
			return fmt.Errorf("error clearing movements of %s: %w", source, err)
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("movements", movementColumns...))
		if err != nil {
			return fmt.Errorf("error preparing copy: %w", err)
		}
		defer stmt.Close()

		for _, m := range movements {
			if _, err := stmt.ExecContext(ctx,
				m.Date, m.Store, m.Code, m.Description, string(m.Type),
				m.Quantity, m.UnitCost, m.UnitPrice,
				nullable(m.Supplier), nullable(m.DestinationStore), nullable(m.DocumentNumber),
				source,
			); err != nil {
				return fmt.Errorf("error copying movement %s: %w", m.Code, err)
			}
		}

		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("error flushing copy: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(movements), nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func typeNames(types []domain.MovementType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
