package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/debtbook/internal/clock"
	"github.com/smallbiznis/debtbook/internal/config"
	ledgerdomain "github.com/smallbiznis/debtbook/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/debtbook/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/debtbook/internal/order/domain"
	partnerdomain "github.com/smallbiznis/debtbook/internal/partner/domain"
	"github.com/smallbiznis/debtbook/internal/reconcile/domain"
	"github.com/smallbiznis/debtbook/internal/reconcile/lock"
	"github.com/smallbiznis/debtbook/pkg/db"
)

const (
	lockTTL       = 30 * time.Second
	storeAttempts = 3
	storeBackoff  = 100 * time.Millisecond
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	LedgerCfg   *config.LedgerConfigHolder
	Locker      lock.Locker
	PartnerRepo partnerdomain.Repository
	OrderRepo   orderdomain.Repository
	LedgerSvc   ledgerdomain.Service
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	ledgerCfg   *config.LedgerConfigHolder
	locker      lock.Locker
	partnerRepo partnerdomain.Repository
	orderRepo   orderdomain.Repository
	ledgerSvc   ledgerdomain.Service
	obsMetrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("reconcile.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		ledgerCfg:   p.LedgerCfg,
		locker:      p.Locker,
		partnerRepo: p.PartnerRepo,
		orderRepo:   p.OrderRepo,
		ledgerSvc:   p.LedgerSvc,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) Recalculate(ctx context.Context, req domain.RecalculateRequest) (domain.RecalculateResponse, error) {
	release, err := s.acquire(ctx, req.PartnerID)
	if err != nil {
		return domain.RecalculateResponse{}, err
	}
	defer release()

	// The lock serializes reconciliation for the partner; the version
	// check below still guards against non-reconciliation writers racing
	// between our read and write.
	for attempt := 0; attempt < 2; attempt++ {
		partner, history, err := s.replay(ctx, req.PartnerID)
		if err != nil {
			return domain.RecalculateResponse{}, err
		}
		computed := ledgerdomain.Sum(history)

		if computed == partner.DebtBalance {
			s.obsMetrics.RecordRecalculation(ctx, "unchanged")
			return domain.RecalculateResponse{
				PartnerID:       partner.ID.String(),
				PreviousBalance: partner.DebtBalance,
				NewBalance:      computed,
				Changed:         false,
			}, nil
		}

		updated, err := s.updateBalance(ctx, partner.ID, computed, partner.BalanceVersion)
		if err != nil {
			return domain.RecalculateResponse{}, err
		}
		if updated {
			s.obsMetrics.RecordRecalculation(ctx, "updated")
			s.log.Info("balance recalculated",
				zap.String("partner_id", partner.ID.String()),
				zap.Int64("previous_balance", partner.DebtBalance),
				zap.Int64("new_balance", computed),
			)
			return domain.RecalculateResponse{
				PartnerID:       partner.ID.String(),
				PreviousBalance: partner.DebtBalance,
				NewBalance:      computed,
				Changed:         true,
			}, nil
		}

		s.log.Warn("balance version moved during recalculation, retrying",
			zap.String("partner_id", partner.ID.String()),
		)
	}

	s.obsMetrics.RecordRecalculation(ctx, "conflict")
	return domain.RecalculateResponse{}, domain.ErrConcurrentReconciliation
}

func (s *Service) CheckAndFixOpeningBalance(ctx context.Context, req domain.FixOpeningBalanceRequest) (domain.FixOpeningBalanceResponse, error) {
	release, err := s.acquire(ctx, req.PartnerID)
	if err != nil {
		return domain.FixOpeningBalanceResponse{}, err
	}
	defer release()

	partner, history, err := s.replay(ctx, req.PartnerID)
	if err != nil {
		return domain.FixOpeningBalanceResponse{}, err
	}
	computed := ledgerdomain.Sum(history)

	discrepancy := partner.DebtBalance - computed
	resp := domain.FixOpeningBalanceResponse{
		PartnerID:       partner.ID.String(),
		StoredBalance:   partner.DebtBalance,
		ComputedBalance: computed,
		Discrepancy:     discrepancy,
	}

	cfg := s.ledgerCfg.Current()
	if abs(discrepancy) <= cfg.ToleranceAmount {
		return resp, nil
	}

	openDate := ledgerdomain.EarliestDate(history)
	if openDate.IsZero() {
		openDate = s.clock.Now()
	}
	openDate = openDate.Add(-cfg.OpeningBackdate)

	opening := orderdomain.NewOpeningBalance(s.genID.Generate(), partner.ID, discrepancy, openDate)
	if err := s.withStoreRetry(ctx, func() error {
		return s.orderRepo.Insert(ctx, s.db, &opening)
	}); err != nil {
		return domain.FixOpeningBalanceResponse{}, err
	}

	s.obsMetrics.RecordDiscrepancyFixed(ctx, discrepancy)
	s.log.Info("opening balance posted",
		zap.String("partner_id", partner.ID.String()),
		zap.String("order_id", opening.ID.String()),
		zap.Int64("discrepancy", discrepancy),
	)

	resp.Applied = true
	resp.OpeningOrderID = opening.ID.String()
	return resp, nil
}

// replay reads the partner row and its full normalized history.
func (s *Service) replay(ctx context.Context, partnerID string) (*partnerdomain.Partner, []ledgerdomain.LedgerEntry, error) {
	id, err := snowflake.ParseString(partnerID)
	if err != nil || id == 0 {
		return nil, nil, ledgerdomain.ErrPartnerNotFound
	}

	var partner *partnerdomain.Partner
	if err := s.withStoreRetry(ctx, func() error {
		var err error
		partner, err = s.partnerRepo.FindByID(ctx, s.db, id)
		return err
	}); err != nil {
		return nil, nil, err
	}
	if partner == nil {
		return nil, nil, ledgerdomain.ErrPartnerNotFound
	}

	var history []ledgerdomain.LedgerEntry
	if err := s.withStoreRetry(ctx, func() error {
		var err error
		history, err = s.ledgerSvc.BuildHistory(ctx, partnerID, ledgerdomain.StatementFilter{})
		return err
	}); err != nil {
		return nil, nil, err
	}

	return partner, history, nil
}

func (s *Service) updateBalance(ctx context.Context, id snowflake.ID, balance, expectVersion int64) (bool, error) {
	var updated bool
	err := s.withStoreRetry(ctx, func() error {
		var err error
		updated, err = s.partnerRepo.UpdateBalance(ctx, s.db, id, balance, expectVersion)
		return err
	})
	return updated, err
}

func (s *Service) acquire(ctx context.Context, partnerID string) (func(), error) {
	key := "debtbook:reconcile:partner:" + partnerID
	token, ok, err := s.locker.TryLock(ctx, key, lockTTL)
	if err != nil {
		s.log.Error("lock acquisition failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, domain.ErrConcurrentReconciliation
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// withStoreRetry retries transient connectivity failures a few times and
// reports exhaustion as a store availability error.
func (s *Service) withStoreRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= storeAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !db.IsUnavailableErr(lastErr) {
			return lastErr
		}
		if attempt == storeAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * storeBackoff):
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, lastErr)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
