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

	ledgerdomain "github.com/smallbiznis/debtbook/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/debtbook/internal/order/domain"
	orderrepo "github.com/smallbiznis/debtbook/internal/order/repository"
	partnerdomain "github.com/smallbiznis/debtbook/internal/partner/domain"
	partnerrepo "github.com/smallbiznis/debtbook/internal/partner/repository"
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

type ledgerFixture struct {
	svc       ledgerdomain.Service
	db        *gorm.DB
	node      *snowflake.Node
	partnerID snowflake.ID
}

func setupLedgerService(t *testing.T) *ledgerFixture {
	t.Helper()

	node := mustNode(t)
	db := openTestDB(t)

	partnerRepo := partnerrepo.Provide()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	partner := &partnerdomain.Partner{
		ID:         node.Generate(),
		Name:       "Tap Hoa Minh",
		IsCustomer: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, partnerRepo.Insert(context.Background(), db, partner))

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		PartnerRepo: partnerRepo,
		OrderRepo:   orderrepo.Provide(),
		VoucherRepo: voucherrepo.Provide(),
	})

	return &ledgerFixture{
		svc:       svc,
		db:        db,
		node:      node,
		partnerID: partner.ID,
	}
}

func (f *ledgerFixture) seedOrder(t *testing.T, kind orderdomain.OrderKind, method orderdomain.PaymentMethod, total, paid int64, date time.Time) orderdomain.Order {
	t.Helper()
	order := orderdomain.Order{
		ID:            f.node.Generate(),
		PartnerID:     f.partnerID,
		Kind:          kind,
		PaymentMethod: method,
		TotalAmount:   total,
		AmountPaid:    paid,
		Date:          date,
		CreatedAt:     date,
	}
	require.NoError(t, orderrepo.Provide().Insert(context.Background(), f.db, &order))
	return order
}

func (f *ledgerFixture) seedVoucher(t *testing.T, kind voucherdomain.VoucherKind, amount int64, date time.Time, linked snowflake.ID) voucherdomain.Voucher {
	t.Helper()
	voucher := voucherdomain.Voucher{
		ID:            f.node.Generate(),
		PartnerID:     f.partnerID,
		Kind:          kind,
		Amount:        amount,
		Date:          date,
		LinkedOrderID: linked,
		CreatedAt:     date,
	}
	require.NoError(t, voucherrepo.Provide().Insert(context.Background(), f.db, &voucher))
	return voucher
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildHistoryMergesAndSorts(t *testing.T) {
	f := setupLedgerService(t)

	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 250_000, 0, day(1))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 100_000, day(3), 0)
	f.seedOrder(t, orderdomain.OrderKindPurchase, orderdomain.PaymentMethodDebt, 80_000, 0, day(5))

	entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, int64(250_000), entries[0].Amount)
	assert.Equal(t, int64(-100_000), entries[1].Amount)
	assert.Equal(t, int64(-80_000), entries[2].Amount)
}

func TestBuildHistorySameDayOrderBeforeVoucher(t *testing.T) {
	f := setupLedgerService(t)

	// Voucher inserted first; the order on the same date must still sort
	// ahead of it.
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 250_000, day(1), 0)
	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 250_000, 0, day(1))

	entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledgerdomain.SourceOrder, entries[0].Source)
	assert.Equal(t, ledgerdomain.SourceVoucher, entries[1].Source)
}

func TestBuildHistoryUnknownPartner(t *testing.T) {
	f := setupLedgerService(t)

	_, err := f.svc.BuildHistory(context.Background(), f.node.Generate().String(), ledgerdomain.StatementFilter{})
	require.ErrorIs(t, err, ledgerdomain.ErrPartnerNotFound)

	_, err = f.svc.BuildHistory(context.Background(), "not-a-number", ledgerdomain.StatementFilter{})
	require.ErrorIs(t, err, ledgerdomain.ErrPartnerNotFound)
}

func TestBuildHistoryDateRangeFilter(t *testing.T) {
	f := setupLedgerService(t)

	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 10_000, 0, day(1))
	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 20_000, 0, day(10))
	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 30_000, 0, day(20))

	entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
		From: day(10),
		To:   day(10),
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(20_000), entries[0].Amount)
}

func TestBuildHistoryCalendarFilters(t *testing.T) {
	f := setupLedgerService(t)

	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 10_000, 0, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 20_000, 0, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 30_000, 0, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))

	t.Run("year", func(t *testing.T) {
		entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
			Calendar: ledgerdomain.CalendarFilter{Year: 2026},
		})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("year and month", func(t *testing.T) {
		entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
			Calendar: ledgerdomain.CalendarFilter{Year: 2026, Month: time.February},
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(20_000), entries[0].Amount)
	})

	t.Run("quarter selects three months", func(t *testing.T) {
		entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
			Calendar: ledgerdomain.CalendarFilter{Year: 2026, Quarter: 2},
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(30_000), entries[0].Amount)
	})

	t.Run("quarter and month rejected", func(t *testing.T) {
		_, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
			Calendar: ledgerdomain.CalendarFilter{Month: time.February, Quarter: 1},
		})
		require.ErrorIs(t, err, ledgerdomain.ErrInvalidFilter)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
			From: day(10),
			To:   day(1),
		})
		require.ErrorIs(t, err, ledgerdomain.ErrInvalidFilter)
	})
}

func TestBuildHistoryPaymentMethodFilterKeepsVouchers(t *testing.T) {
	f := setupLedgerService(t)

	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 100_000, 0, day(1))
	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodCash, 50_000, 50_000, day(2))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 40_000, day(3), 0)

	entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
		PaymentMethod: ledgerdomain.PaymentMethodDebt,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledgerdomain.SourceOrder, entries[0].Source)
	assert.Equal(t, ledgerdomain.SourceVoucher, entries[1].Source)
}

func TestBuildHistoryCategoryFilter(t *testing.T) {
	f := setupLedgerService(t)

	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 100_000, 0, day(1))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 40_000, day(2), 0)

	orders, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
		Category: ledgerdomain.CategoryOrder,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, ledgerdomain.SourceOrder, orders[0].Source)

	vouchers, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
		Category: ledgerdomain.CategoryVoucher,
	})
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Equal(t, ledgerdomain.SourceVoucher, vouchers[0].Source)
}

func TestBuildHistoryExcludeSettled(t *testing.T) {
	f := setupLedgerService(t)

	settledOrder := f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 100_000, 100_000, day(1))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 100_000, day(2), settledOrder.ID)

	openOrder := f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 200_000, 50_000, day(3))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 50_000, day(4), openOrder.ID)
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 10_000, day(5), 0)

	entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
		ExcludeSettled: true,
	})
	require.NoError(t, err)

	// The settled order and its linked voucher drop together; the open
	// order, its voucher and the unlinked voucher stay.
	require.Len(t, entries, 3)
	assert.Equal(t, openOrder.ID, entries[0].SourceID)
}

func TestBuildHistoryExcludeSettledCrossWindowLink(t *testing.T) {
	f := setupLedgerService(t)

	// The settled order sits outside the query window but its voucher is
	// inside: the voucher must still cascade out.
	settledOrder := f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 100_000, 100_000, day(1))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 100_000, day(10), settledOrder.ID)
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 5_000, day(11), 0)

	entries, err := f.svc.BuildHistory(context.Background(), f.partnerID.String(), ledgerdomain.StatementFilter{
		From:           day(9),
		To:             day(12),
		ExcludeSettled: true,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(-5_000), entries[0].Amount)
}

func TestGetStatementRunningBalanceAndClosing(t *testing.T) {
	f := setupLedgerService(t)

	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 250_000, 0, day(1))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 100_000, day(3), 0)
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 150_000, day(5), 0)
	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 80_000, 0, day(7))

	resp, err := f.svc.GetStatement(context.Background(), ledgerdomain.GetStatementRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 4)

	assert.Equal(t, int64(250_000), resp.Entries[0].RunningBalance)
	assert.Equal(t, int64(150_000), resp.Entries[1].RunningBalance)
	assert.Equal(t, int64(0), resp.Entries[2].RunningBalance)
	assert.Equal(t, int64(80_000), resp.Entries[3].RunningBalance)
	assert.Equal(t, int64(80_000), resp.ClosingBalance)
	assert.Equal(t, f.partnerID, resp.Partner.ID)
}

func TestGetStatementDescendingPreservesBalances(t *testing.T) {
	f := setupLedgerService(t)

	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 100_000, 0, day(1))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 30_000, day(2), 0)

	resp, err := f.svc.GetStatement(context.Background(), ledgerdomain.GetStatementRequest{
		PartnerID: f.partnerID.String(),
		Sort:      ledgerdomain.SortDescending,
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)

	// Newest first, but balances are still those of the ascending fold.
	assert.Equal(t, int64(70_000), resp.Entries[0].RunningBalance)
	assert.Equal(t, int64(100_000), resp.Entries[1].RunningBalance)
	assert.Equal(t, int64(70_000), resp.ClosingBalance)
}

func TestGetStatementEmptyHistory(t *testing.T) {
	f := setupLedgerService(t)

	resp, err := f.svc.GetStatement(context.Background(), ledgerdomain.GetStatementRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Entries)
	assert.Equal(t, int64(0), resp.ClosingBalance)
}

func TestGetCycles(t *testing.T) {
	f := setupLedgerService(t)

	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 250_000, 0, day(1))
	f.seedVoucher(t, voucherdomain.VoucherKindReceipt, 250_000, day(5), 0)
	f.seedOrder(t, orderdomain.OrderKindSale, orderdomain.PaymentMethodDebt, 80_000, 0, day(9))

	resp, err := f.svc.GetCycles(context.Background(), ledgerdomain.GetCyclesRequest{
		PartnerID: f.partnerID.String(),
	})
	require.NoError(t, err)
	require.Len(t, resp.Cycles, 2)

	assert.Equal(t, ledgerdomain.CycleStatusClosed, resp.Cycles[0].Status)
	require.NotNil(t, resp.Cycles[0].EndDate)
	assert.Equal(t, ledgerdomain.CycleStatusOpen, resp.Cycles[1].Status)
}
