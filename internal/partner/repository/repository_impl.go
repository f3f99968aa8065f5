package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/debtbook/internal/partner/domain"
	"github.com/smallbiznis/debtbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, partner *domain.Partner) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO partners (id, name, is_customer, is_supplier, phone, address, debt_balance, balance_version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		partner.ID,
		partner.Name,
		partner.IsCustomer,
		partner.IsSupplier,
		partner.Phone,
		partner.Address,
		partner.DebtBalance,
		partner.BalanceVersion,
		partner.CreatedAt,
		partner.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Partner, error) {
	var partner domain.Partner
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, is_customer, is_supplier, phone, address, debt_balance, balance_version, created_at, updated_at
		 FROM partners WHERE id = ?`,
		id,
	).Scan(&partner).Error
	if err != nil {
		return nil, err
	}
	if partner.ID == 0 {
		return nil, nil
	}
	return &partner, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListPartnerFilter, page pagination.Pagination) ([]*domain.Partner, error) {
	var partners []*domain.Partner
	stmt := db.WithContext(ctx).Model(&domain.Partner{})
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.IsCustomer != nil {
		stmt = stmt.Where("is_customer = ?", *filter.IsCustomer)
	}
	if filter.IsSupplier != nil {
		stmt = stmt.Where("is_supplier = ?", *filter.IsSupplier)
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = 50
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if cursor.CreatedAt != "" {
			createdAt, err := time.Parse(time.RFC3339, cursor.CreatedAt)
			if err != nil {
				return nil, err
			}
			stmt = stmt.Where("(created_at, id) < (?, ?)", createdAt, cursor.ID)
		}
	}

	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&partners).Error
	if err != nil {
		return nil, err
	}
	return partners, nil
}

func (r *repo) UpdateBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, newBalance, expectVersion int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE partners
		 SET debt_balance = ?, balance_version = balance_version + 1, updated_at = ?
		 WHERE id = ? AND balance_version = ?`,
		newBalance,
		time.Now().UTC(),
		id,
		expectVersion,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
