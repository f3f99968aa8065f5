package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	// ListByPartner returns the partner's orders, date ascending. Zero
	// bounds mean unbounded.
	ListByPartner(ctx context.Context, db *gorm.DB, partnerID snowflake.ID, from, to time.Time) ([]Order, error)
}
