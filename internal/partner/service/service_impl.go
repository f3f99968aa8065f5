package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/debtbook/internal/clock"
	orderdomain "github.com/smallbiznis/debtbook/internal/order/domain"
	"github.com/smallbiznis/debtbook/internal/partner/domain"
	"github.com/smallbiznis/debtbook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	OrderRepo orderdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	orderRepo orderdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("partner.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		orderRepo: p.OrderRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePartnerRequest) (domain.Partner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Partner{}, domain.ErrInvalidName
	}
	if !req.IsCustomer && !req.IsSupplier {
		return domain.Partner{}, domain.ErrInvalidRole
	}

	now := s.clock.Now()
	partner := domain.Partner{
		ID:          s.genID.Generate(),
		Name:        name,
		IsCustomer:  req.IsCustomer,
		IsSupplier:  req.IsSupplier,
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		DebtBalance: req.OpeningBalance,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &partner); err != nil {
			return err
		}
		if req.OpeningBalance != 0 {
			// Record the starting balance as history so a later full
			// recomputation reproduces the snapshot.
			opening := orderdomain.NewOpeningBalance(s.genID.Generate(), partner.ID, req.OpeningBalance, now)
			if err := s.orderRepo.Insert(ctx, tx, &opening); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Partner{}, err
	}

	return partner, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPartnerRequest) (domain.ListPartnerResponse, error) {
	filter := domain.ListPartnerFilter{
		Name:       strings.TrimSpace(req.Name),
		IsCustomer: req.IsCustomer,
		IsSupplier: req.IsSupplier,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListPartnerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(partner *domain.Partner) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        partner.ID.String(),
			CreatedAt: partner.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	partners := make([]domain.Partner, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		partners = append(partners, *item)
	}

	resp := domain.ListPartnerResponse{Partners: partners}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetPartnerRequest) (domain.Partner, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Partner{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Partner{}, err
	}
	if item == nil {
		return domain.Partner{}, domain.ErrNotFound
	}
	return *item, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
