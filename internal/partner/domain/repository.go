package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/debtbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListPartnerFilter struct {
	Name       string
	IsCustomer *bool
	IsSupplier *bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, partner *Partner) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Partner, error)
	List(ctx context.Context, db *gorm.DB, filter ListPartnerFilter, page pagination.Pagination) ([]*Partner, error)
	// UpdateBalance overwrites the stored balance iff the version still
	// matches, bumping the version. Returns false when another writer won.
	UpdateBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, newBalance, expectVersion int64) (bool, error)
}
