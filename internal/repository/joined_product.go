package repository

import (
	"database/sql"

	"aroma-tales/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// joinedProductColumns selects a LEFT JOINed products row aliased as p
const joinedProductColumns = `p.id, p.name, p.category, p.price, p.description, p.image, p.in_stock, p.created_at, p.updated_at`

// joinedProduct holds the nullable scan targets of a LEFT JOINed product
type joinedProduct struct {
	ID          uuid.NullUUID
	Name        sql.NullString
	Category    sql.NullString
	Price       decimal.NullDecimal
	Description sql.NullString
	Image       sql.NullString
	InStock     sql.NullBool
	CreatedAt   sql.NullTime
	UpdatedAt   sql.NullTime
}

func (j *joinedProduct) targets() []any {
	return []any{
		&j.ID,
		&j.Name,
		&j.Category,
		&j.Price,
		&j.Description,
		&j.Image,
		&j.InStock,
		&j.CreatedAt,
		&j.UpdatedAt,
	}
}

// product returns nil when the catalog row no longer exists
func (j *joinedProduct) product() *domain.Product {
	if !j.ID.Valid {
		return nil
	}
	return &domain.Product{
		ID:          j.ID.UUID,
		Name:        j.Name.String,
		Category:    domain.Category(j.Category.String),
		Price:       j.Price.Decimal,
		Description: j.Description.String,
		Image:       j.Image.String,
		InStock:     j.InStock.Bool,
		CreatedAt:   j.CreatedAt.Time,
		UpdatedAt:   j.UpdatedAt.Time,
	}
}
