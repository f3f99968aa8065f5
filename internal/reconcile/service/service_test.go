package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/debtbook/internal/clock"
	"github.com/smallbiznis/debtbook/internal/config"
	ledgerservice "github.com/smallbiznis/debtbook/internal/ledger/service"
	orderdomain "github.com/smallbiznis/debtbook/internal/order/domain"
	orderrepo "github.com/smallbiznis/debtbook/internal/order/repository"
	partnerdomain "github.com/smallbiznis/debtbook/internal/partner/domain"
	partnerrepo "github.com/smallbiznis/debtbook/internal/partner/repository"
	"github.com/smallbiznis/debtbook/internal/reconcile/domain"
	"github.com/smallbiznis/debtbook/internal/reconcile/lock"
	voucherdomain "github.com/smallbiznis/debtbook/internal/voucher/domain"
	voucherrepo "github.com/smallbiznis/debtbook/internal/voucher/repository"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	for _, ddl := range []string{
		`CREATE TABLE partners (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			is_customer BOOLEAN NOT NULL DEFAULT FALSE,
			is_supplier BOOLEAN NOT NULL DEFAULT FALSE,
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			debt_balance INTEGER NOT NULL DEFAULT 0,
			balance_version INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			partner_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			total_amount INTEGER NOT NULL,
			amount_paid INTEGER NOT NULL DEFAULT 0,
			date DATETIME NOT NULL,
			display_id TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE order_items (
			id INTEGER PRIMARY KEY,
			order_id INTEGER NOT NULL,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price INTEGER NOT NULL
		)`,
		`CREATE TABLE vouchers (
			id INTEGER PRIMARY KEY,
			partner_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			amount INTEGER NOT NULL,
			date DATETIME NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			linked_order_id INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type reconcileFixture struct {
	svc       domain.Service
	db        *gorm.DB
	node      *snowflake.Node
	clock     *clock.FakeClock
	locker    lock.Locker
	partnerID snowflake.ID
}

func setupReconcileService(t *testing.T, tolerance int64) *reconcileFixture {
	t.Helper()

	node := mustNode(t)
	db := openTestDB(t)
	fakeClock := clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	partnerRepo := partnerrepo.Provide()
	orderRepo := orderrepo.Provide()
	voucherRepo := voucherrepo.Provide()

	now := fakeClock.Now()
	partner := &partnerdomain.Partner{
		ID:         node.Generate(),
		Name:       "Dai Ly Hung Phat",
		IsSupplier: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, partnerRepo.Insert(context.Background(), db, partner))

	ledgerSvc := ledgerservice.New(ledgerservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		PartnerRepo: partnerRepo,
		OrderRepo:   orderRepo,
		VoucherRepo: voucherRepo,
	})

	locker := lock.NewLocalLocker()
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		LedgerCfg: config.NewStaticLedgerConfigHolder(config.LedgerConfig{
			ToleranceAmount: tolerance,
			OpeningBackdate: 24 * time.Hour,
		}),
		Locker:      locker,
		PartnerRepo: partnerRepo,
		OrderRepo:   orderRepo,
		LedgerSvc:   ledgerSvc,
	})

	return &reconcileFixture{
		svc:       svc,
		db:        db,
		node:      node,
		clock:     fakeClock,
		locker:    locker,
		partnerID: partner.ID,
	}
}

func (f *reconcileFixture) seedOrder(t *testing.T, total int64, date time.Time) orderdomain.Order {
	t.Helper()
	order := orderdomain.Order{
		ID:            f.node.Generate(),
		PartnerID:     f.partnerID,
		Kind:          orderdomain.OrderKindSale,
		PaymentMethod: orderdomain.PaymentMethodDebt,
		TotalAmount:   total,
		Date:          date,
		CreatedAt:     date,
	}
	require.NoError(t, orderrepo.Provide().Insert(context.Background(), f.db, &order))
	return order
}

func (f *reconcileFixture) seedReceipt(t *testing.T, amount int64, date time.Time) {
	t.Helper()
	voucher := voucherdomain.Voucher{
		ID:        f.node.Generate(),
		PartnerID: f.partnerID,
		Kind:      voucherdomain.VoucherKindReceipt,
		Amount:    amount,
		Date:      date,
		CreatedAt: date,
	}
	require.NoError(t, voucherrepo.Provide().Insert(context.Background(), f.db, &voucher))
}

func (f *reconcileFixture) readPartner(t *testing.T) *partnerdomain.Partner {
	t.Helper()
	partner, err := partnerrepo.Provide().FindByID(context.Background(), f.db, f.partnerID)
	require.NoError(t, err)
	require.NotNil(t, partner)
	return partner
}

func (f *reconcileFixture) setStoredBalance(t *testing.T, balance int64) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`UPDATE partners SET debt_balance = ? WHERE id = ?`, balance, f.partnerID,
	).Error)
}

func TestRecalculateOverwritesStoredBalance(t *testing.T) {
	f := setupReconcileService(t, 1_000)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	f.seedOrder(t, 250_000, base)
	f.seedReceipt(t, 100_000, base.AddDate(0, 0, 3))
	f.setStoredBalance(t, 999_999)

	resp, err := f.svc.Recalculate(context.Background(), domain.RecalculateRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, int64(999_999), resp.PreviousBalance)
	assert.Equal(t, int64(150_000), resp.NewBalance)

	partner := f.readPartner(t)
	assert.Equal(t, int64(150_000), partner.DebtBalance)
	assert.Equal(t, int64(1), partner.BalanceVersion)
}

func TestRecalculateUnchangedSkipsWrite(t *testing.T) {
	f := setupReconcileService(t, 1_000)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	f.seedOrder(t, 120_000, base)
	f.setStoredBalance(t, 120_000)

	resp, err := f.svc.Recalculate(context.Background(), domain.RecalculateRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	assert.False(t, resp.Changed)
	assert.Equal(t, int64(120_000), resp.NewBalance)

	// No write means no version bump.
	assert.Equal(t, int64(0), f.readPartner(t).BalanceVersion)
}

func TestRecalculateEmptyHistoryZeroesBalance(t *testing.T) {
	f := setupReconcileService(t, 1_000)
	f.setStoredBalance(t, 77_000)

	resp, err := f.svc.Recalculate(context.Background(), domain.RecalculateRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, int64(0), resp.NewBalance)
	assert.Equal(t, int64(0), f.readPartner(t).DebtBalance)
}

func TestRecalculateUnknownPartner(t *testing.T) {
	f := setupReconcileService(t, 1_000)

	_, err := f.svc.Recalculate(context.Background(), domain.RecalculateRequest{
		PartnerID: f.node.Generate().String(),
	})
	require.Error(t, err)
}

func TestRecalculateHeldLockConflicts(t *testing.T) {
	f := setupReconcileService(t, 1_000)

	key := "debtbook:reconcile:partner:" + f.partnerID.String()
	_, ok, err := f.locker.TryLock(context.Background(), key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Recalculate(context.Background(), domain.RecalculateRequest{
		PartnerID: f.partnerID.String(),
	})
	require.ErrorIs(t, err, domain.ErrConcurrentReconciliation)
}

func TestFixOpeningBalanceWithinToleranceNoop(t *testing.T) {
	f := setupReconcileService(t, 1_000)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	f.seedOrder(t, 100_000, base)
	f.setStoredBalance(t, 100_800)

	resp, err := f.svc.CheckAndFixOpeningBalance(context.Background(), domain.FixOpeningBalanceRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	assert.False(t, resp.Applied)
	assert.Equal(t, int64(800), resp.Discrepancy)
	assert.Empty(t, resp.OpeningOrderID)

	var count int64
	require.NoError(t, f.db.Model(&orderdomain.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFixOpeningBalancePostsBackdatedOrder(t *testing.T) {
	f := setupReconcileService(t, 1_000)

	base := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	f.seedOrder(t, 100_000, base)
	f.setStoredBalance(t, 150_000)

	resp, err := f.svc.CheckAndFixOpeningBalance(context.Background(), domain.FixOpeningBalanceRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Equal(t, int64(50_000), resp.Discrepancy)
	require.NotEmpty(t, resp.OpeningOrderID)

	openingID, parseErr := snowflake.ParseString(resp.OpeningOrderID)
	require.NoError(t, parseErr)

	var opening orderdomain.Order
	require.NoError(t, f.db.First(&opening, "id = ?", openingID).Error)
	assert.Equal(t, orderdomain.OpeningDisplayID, opening.DisplayID)
	assert.Equal(t, orderdomain.OrderKindSale, opening.Kind)
	assert.Equal(t, orderdomain.PaymentMethodDebt, opening.PaymentMethod)
	assert.Equal(t, int64(50_000), opening.TotalAmount)
	assert.True(t, opening.Date.Equal(base.Add(-24*time.Hour)))

	// After the fix the replayed history matches the stored balance.
	recalc, err := f.svc.Recalculate(context.Background(), domain.RecalculateRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	assert.False(t, recalc.Changed)
	assert.Equal(t, int64(150_000), recalc.NewBalance)
}

func TestFixOpeningBalanceNegativeDiscrepancy(t *testing.T) {
	f := setupReconcileService(t, 1_000)

	base := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	f.seedOrder(t, 100_000, base)
	f.setStoredBalance(t, 20_000)

	resp, err := f.svc.CheckAndFixOpeningBalance(context.Background(), domain.FixOpeningBalanceRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Equal(t, int64(-80_000), resp.Discrepancy)

	openingID, parseErr := snowflake.ParseString(resp.OpeningOrderID)
	require.NoError(t, parseErr)

	var opening orderdomain.Order
	require.NoError(t, f.db.First(&opening, "id = ?", openingID).Error)
	assert.Equal(t, orderdomain.OrderKindPurchase, opening.Kind)
	assert.Equal(t, int64(80_000), opening.TotalAmount)
}

func TestFixOpeningBalanceEmptyHistoryUsesClock(t *testing.T) {
	f := setupReconcileService(t, 1_000)
	f.setStoredBalance(t, 30_000)

	resp, err := f.svc.CheckAndFixOpeningBalance(context.Background(), domain.FixOpeningBalanceRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	require.True(t, resp.Applied)

	openingID, parseErr := snowflake.ParseString(resp.OpeningOrderID)
	require.NoError(t, parseErr)

	var opening orderdomain.Order
	require.NoError(t, f.db.First(&opening, "id = ?", openingID).Error)
	assert.True(t, opening.Date.Equal(f.clock.Now().Add(-24*time.Hour)))
}

func TestLocalLockerMutualExclusion(t *testing.T) {
	locker := lock.NewLocalLocker()
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "k", token))

	_, ok, err = locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerStaleTokenRelease(t *testing.T) {
	locker := lock.NewLocalLocker()
	ctx := context.Background()

	_, ok, err := locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing with a wrong token leaves the lock held.
	require.NoError(t, locker.Release(ctx, "k", "bogus"))
	_, ok, err = locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
