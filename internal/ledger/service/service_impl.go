package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/debtbook/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/debtbook/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/debtbook/internal/order/domain"
	partnerdomain "github.com/smallbiznis/debtbook/internal/partner/domain"
	voucherdomain "github.com/smallbiznis/debtbook/internal/voucher/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	PartnerRepo partnerdomain.Repository
	OrderRepo   orderdomain.Repository
	VoucherRepo voucherdomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	partnerRepo partnerdomain.Repository
	orderRepo   orderdomain.Repository
	voucherRepo voucherdomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func New(p Params) ledgerdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("ledger.service"),
		partnerRepo: p.PartnerRepo,
		orderRepo:   p.OrderRepo,
		voucherRepo: p.VoucherRepo,
		obsMetrics:  p.ObsMetrics,
	}
}

// BuildHistory merges the partner's order and voucher streams into one
// normalized, filtered, date-ascending sequence. All filters apply as a
// conjunction. Ties on date break by (source, source id) so the result is
// deterministic.
func (s *Service) BuildHistory(ctx context.Context, partnerID string, filter ledgerdomain.StatementFilter) ([]ledgerdomain.LedgerEntry, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	partner, err := s.getPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	id := partner.ID

	// The date-range bounds push down to the store. When settled orders
	// cascade out we need the full order set anyway: a surviving voucher
	// may be linked to an order outside the window.
	ordersFrom, ordersTo := filter.From, filter.To
	if filter.ExcludeSettled {
		ordersFrom, ordersTo = time.Time{}, time.Time{}
	}

	orders, err := s.orderRepo.ListByPartner(ctx, s.db, id, ordersFrom, ordersTo)
	if err != nil {
		return nil, err
	}
	vouchers, err := s.voucherRepo.ListByPartner(ctx, s.db, id, filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	settled := make(map[snowflake.ID]bool)
	if filter.ExcludeSettled {
		for _, o := range orders {
			if o.Settled() {
				settled[o.ID] = true
			}
		}
	}

	entries := make([]ledgerdomain.LedgerEntry, 0, len(orders)+len(vouchers))

	if filter.Category != ledgerdomain.CategoryVoucher {
		for _, o := range orders {
			if !matchDate(o.Date, filter) || !matchCalendar(o.Date, filter.Calendar) {
				continue
			}
			if !matchPaymentMethod(o, filter.PaymentMethod) {
				continue
			}
			if filter.ExcludeSettled && o.Settled() {
				continue
			}
			entry, err := ledgerdomain.NormalizeOrder(o)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	if filter.Category != ledgerdomain.CategoryOrder {
		for _, v := range vouchers {
			if !matchDate(v.Date, filter) || !matchCalendar(v.Date, filter.Calendar) {
				continue
			}
			if filter.ExcludeSettled && v.LinkedOrderID != 0 && settled[v.LinkedOrderID] {
				continue
			}
			entry, err := ledgerdomain.NormalizeVoucher(v)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		if entries[i].Source != entries[j].Source {
			return entries[i].Source < entries[j].Source
		}
		return entries[i].SourceID < entries[j].SourceID
	})

	return entries, nil
}

func (s *Service) GetStatement(ctx context.Context, req ledgerdomain.GetStatementRequest) (ledgerdomain.GetStatementResponse, error) {
	partner, err := s.getPartner(ctx, req.PartnerID)
	if err != nil {
		return ledgerdomain.GetStatementResponse{}, err
	}

	entries, err := s.BuildHistory(ctx, req.PartnerID, req.Filter)
	if err != nil {
		return ledgerdomain.GetStatementResponse{}, err
	}
	entries = ledgerdomain.WithRunningBalance(entries)

	var closing int64
	if len(entries) > 0 {
		closing = entries[len(entries)-1].RunningBalance
	}

	if req.Sort == ledgerdomain.SortDescending {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	s.obsMetrics.RecordStatementRequest(ctx, !req.Filter.IsZero())

	return ledgerdomain.GetStatementResponse{
		Partner:        *partner,
		Entries:        entries,
		ClosingBalance: closing,
	}, nil
}

func (s *Service) GetCycles(ctx context.Context, req ledgerdomain.GetCyclesRequest) (ledgerdomain.GetCyclesResponse, error) {
	// Segmentation is only meaningful over the full unfiltered history.
	entries, err := s.BuildHistory(ctx, req.PartnerID, ledgerdomain.StatementFilter{})
	if err != nil {
		return ledgerdomain.GetCyclesResponse{}, err
	}

	s.obsMetrics.RecordCycleRequest(ctx)

	return ledgerdomain.GetCyclesResponse{
		Cycles: ledgerdomain.SegmentCycles(entries),
	}, nil
}

func (s *Service) getPartner(ctx context.Context, raw string) (*partnerdomain.Partner, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return nil, ledgerdomain.ErrPartnerNotFound
	}
	partner, err := s.partnerRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, ledgerdomain.ErrPartnerNotFound
	}
	return partner, nil
}
