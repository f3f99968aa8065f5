package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/debtbook/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO orders (id, partner_id, kind, payment_method, total_amount, amount_paid, date, display_id, note, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID,
			order.PartnerID,
			string(order.Kind),
			string(order.PaymentMethod),
			order.TotalAmount,
			order.AmountPaid,
			order.Date,
			order.DisplayID,
			order.Note,
			order.CreatedAt,
		).Error; err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := tx.Exec(
				`INSERT INTO order_items (id, order_id, product_name, quantity, unit_price)
				 VALUES (?, ?, ?, ?, ?)`,
				item.ID,
				order.ID,
				item.ProductName,
				item.Quantity,
				item.UnitPrice,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) ListByPartner(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, from, to time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	stmt := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("partner_id = ?", partnerID)
	if !from.IsZero() {
		stmt = stmt.Where("date >= ?", from)
	}
	if !to.IsZero() {
		stmt = stmt.Where("date <= ?", to)
	}
	err := stmt.Order("date asc, id asc").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
