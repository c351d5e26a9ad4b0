package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aroma-tales/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound     = fmt.Errorf("cart %w", domain.ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", domain.ErrNotFound)
	ErrCartChanged      = errors.New("cart changed during checkout")
	ErrQuantityLimit    = errors.New("cart line quantity limit exceeded")
)

// CartRepository defines the interface for session cart data access.
// Every returned cart has its lines resolved against the live catalog.
type CartRepository interface {
	GetOrCreate(ctx context.Context, sessionID string) (*domain.Cart, error)
	Find(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error)
	SetQuantity(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*domain.Cart, error)
	Delete(ctx context.Context, sessionID string) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreate returns the session's cart, persisting an empty one on first access
func (r *cartRepository) GetOrCreate(ctx context.Context, sessionID string) (*domain.Cart, error) {
	query := `
		INSERT INTO carts (session_id)
		VALUES ($1)
		ON CONFLICT (session_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return r.Find(ctx, sessionID)
}

// Find retrieves the session's cart
func (r *cartRepository) Find(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return loadCart(ctx, r.db, sessionID)
}

// AddItem merges quantity into the line for productID, appending a new line when absent.
// The upsert is a single statement so concurrent adds for the same product never lose an update.
// A merge that would push the line past domain.MaxLineQuantity leaves it untouched and returns ErrQuantityLimit.
func (r *cartRepository) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity > domain.MaxLineQuantity {
		return nil, ErrQuantityLimit
	}

	var cart *domain.Cart

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO carts (session_id)
			VALUES ($1)
			ON CONFLICT (session_id) DO UPDATE SET updated_at = NOW()
		`, sessionID)
		if err != nil {
			return fmt.Errorf("failed to upsert cart: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (id, session_id, product_id, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (session_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			WHERE cart_items.quantity + EXCLUDED.quantity <= $5
		`, uuid.New(), sessionID, productID, quantity, domain.MaxLineQuantity)
		if err != nil {
			if isOutOfRange(err) {
				return ErrQuantityLimit
			}
			return fmt.Errorf("failed to add cart item: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrQuantityLimit
		}

		cart, err = loadCart(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// SetQuantity replaces a line's quantity; quantity <= 0 deletes the line
func (r *cartRepository) SetQuantity(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return r.RemoveItem(ctx, sessionID, lineID)
	}
	if quantity > domain.MaxLineQuantity {
		return nil, ErrQuantityLimit
	}

	return r.mutateLine(ctx, sessionID, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = $3 WHERE id = $1 AND session_id = $2`,
			lineID, sessionID, quantity,
		)
	})
}

// RemoveItem deletes a line from the cart
func (r *cartRepository) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) (*domain.Cart, error) {
	return r.mutateLine(ctx, sessionID, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE id = $1 AND session_id = $2`,
			lineID, sessionID,
		)
	})
}

// mutateLine locks the cart row, applies a single-line statement and reloads the cart
func (r *cartRepository) mutateLine(ctx context.Context, sessionID string, stmt func(tx *sql.Tx) (sql.Result, error)) (*domain.Cart, error) {
	var cart *domain.Cart

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var locked string
		err := tx.QueryRowContext(ctx,
			`SELECT session_id FROM carts WHERE session_id = $1 FOR UPDATE`,
			sessionID,
		).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCartNotFound
			}
			return fmt.Errorf("failed to lock cart: %w", err)
		}

		result, err := stmt(tx)
		if err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrCartItemNotFound
		}

		if _, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("failed to touch cart: %w", err)
		}

		cart, err = loadCart(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// Delete removes the cart record; its lines cascade
func (r *cartRepository) Delete(ctx context.Context, sessionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartNotFound
	}

	return nil
}

func loadCart(ctx context.Context, q querier, sessionID string) (*domain.Cart, error) {
	cart := &domain.Cart{SessionID: sessionID, Lines: []domain.CartLine{}}

	err := q.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM carts WHERE session_id = $1`,
		sessionID,
	).Scan(&cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	query := `
		SELECT ci.id, ci.product_id, ci.quantity, ci.added_at, ` + joinedProductColumns + `
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.session_id = $1
		ORDER BY ci.position ASC
	`

	rows, err := q.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		var joined joinedProduct

		dest := append([]any{&line.ID, &line.ProductID, &line.Quantity, &line.AddedAt}, joined.targets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		line.Product = joined.product()
		cart.Lines = append(cart.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return cart, nil
}
