package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/debtbook/internal/voucher/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, voucher *domain.Voucher) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO vouchers (id, partner_id, kind, amount, date, note, linked_order_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		voucher.ID,
		voucher.PartnerID,
		string(voucher.Kind),
		voucher.Amount,
		voucher.Date,
		voucher.Note,
		voucher.LinkedOrderID,
		voucher.CreatedAt,
	).Error
}

func (r *repo) ListByPartner(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, from, to time.Time) ([]domain.Voucher, error) {
	var vouchers []domain.Voucher
	stmt := db.WithContext(ctx).
		Model(&domain.Voucher{}).
		Where("partner_id = ?", partnerID)
	if !from.IsZero() {
		stmt = stmt.Where("date >= ?", from)
	}
	if !to.IsZero() {
		stmt = stmt.Where("date <= ?", to)
	}
	err := stmt.Order("date asc, id asc").Find(&vouchers).Error
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}
