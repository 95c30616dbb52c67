package application

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradingledger/internal/inventory/domain"
	"github.com/wyfcoding/tradingledger/internal/inventory/infrastructure/persistence"
	refdomain "github.com/wyfcoding/tradingledger/internal/referencedata/domain"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestManager(t *testing.T) (*gorm.DB, *LotManager) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&refdomain.Asset{}, &domain.AssetLot{}))
	return db, NewLotManager(persistence.NewLotRepository(db))
}

func day(n int) time.Time {
	return time.Date(2025, 1, n, 0, 0, 0, 0, time.UTC)
}

func TestAcquireValidation(t *testing.T) {
	_, mgr := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Acquire(ctx, 1, 1, dec("0"), dec("100"), day(1))
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = mgr.Acquire(ctx, 1, 1, dec("5"), dec("-1"), day(1))
	require.ErrorIs(t, err, domain.ErrInvalidUnitCost)

	lot, err := mgr.Acquire(ctx, 1, 1, dec("5"), dec("100"), day(1))
	require.NoError(t, err)
	require.True(t, lot.RemainingQuantity.Equal(dec("5")))
}

func TestConsumeFIFO(t *testing.T) {
	_, mgr := newTestManager(t)
	ctx := context.Background()

	// 旧批次 2 @ 100，新批次 3 @ 120
	_, err := mgr.Acquire(ctx, 1, 1, dec("2"), dec("100"), day(1))
	require.NoError(t, err)
	_, err = mgr.Acquire(ctx, 1, 1, dec("3"), dec("120"), day(2))
	require.NoError(t, err)

	// 消耗 3：吃光旧批次，再从新批次取 1
	cost, err := mgr.Consume(ctx, 1, 1, dec("3"))
	require.NoError(t, err)
	require.True(t, cost.Equal(dec("320")), "got %s", cost)

	available, err := mgr.Available(ctx, 1, 1)
	require.NoError(t, err)
	require.True(t, available.Equal(dec("2")))
}

func TestConsumePartialLot(t *testing.T) {
	db, mgr := newTestManager(t)
	ctx := context.Background()

	lotA, err := mgr.Acquire(ctx, 1, 1, dec("2"), dec("100"), day(1))
	require.NoError(t, err)
	lotB, err := mgr.Acquire(ctx, 1, 1, dec("3"), dec("120"), day(2))
	require.NoError(t, err)

	cost, err := mgr.Consume(ctx, 1, 1, dec("4"))
	require.NoError(t, err)
	require.True(t, cost.Equal(dec("440")), "got %s", cost)

	var a, b domain.AssetLot
	require.NoError(t, db.First(&a, lotA.ID).Error)
	require.NoError(t, db.First(&b, lotB.ID).Error)
	require.True(t, a.RemainingQuantity.IsZero())
	require.True(t, b.RemainingQuantity.Equal(dec("1")))
	// 原批次数量与单位成本不变
	require.True(t, a.Quantity.Equal(dec("2")))
	require.True(t, b.UnitCost.Equal(dec("120")))
}

func TestConsumeInsufficient(t *testing.T) {
	db, mgr := newTestManager(t)
	ctx := context.Background()

	lot, err := mgr.Acquire(ctx, 1, 1, dec("2"), dec("100"), day(1))
	require.NoError(t, err)

	_, err = mgr.Consume(ctx, 1, 1, dec("5"))
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	// 失败不留部分扣减
	var got domain.AssetLot
	require.NoError(t, db.First(&got, lot.ID).Error)
	require.True(t, got.RemainingQuantity.Equal(dec("2")))
}

func TestConsumeScopedByAccountAndAsset(t *testing.T) {
	_, mgr := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Acquire(ctx, 1, 1, dec("5"), dec("100"), day(1))
	require.NoError(t, err)
	_, err = mgr.Acquire(ctx, 2, 1, dec("5"), dec("100"), day(1))
	require.NoError(t, err)
	_, err = mgr.Acquire(ctx, 1, 2, dec("5"), dec("100"), day(1))
	require.NoError(t, err)

	_, err = mgr.Consume(ctx, 1, 1, dec("5"))
	require.NoError(t, err)

	other, err := mgr.Available(ctx, 2, 1)
	require.NoError(t, err)
	require.True(t, other.Equal(dec("5")))
	otherAsset, err := mgr.Available(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, otherAsset.Equal(dec("5")))
}

func TestPurgeTradingAccount(t *testing.T) {
	_, mgr := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Acquire(ctx, 1, 1, dec("5"), dec("100"), day(1))
	require.NoError(t, err)
	require.NoError(t, mgr.PurgeTradingAccount(ctx, 1))

	available, err := mgr.Available(ctx, 1, 1)
	require.NoError(t, err)
	require.True(t, available.IsZero())
}
