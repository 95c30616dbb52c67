package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tradingledger/internal/ledger/domain"
	"github.com/wyfcoding/tradingledger/internal/ledger/infrastructure/persistence"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.TradingAccount{},
		&domain.Account{},
		&domain.JournalEntry{},
		&domain.JournalEntryLine{},
	))
	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *ChartBuilder, *LedgerService) {
	t.Helper()
	db := newTestDB(t)
	tradingAccounts := persistence.NewTradingAccountRepository(db)
	accounts := persistence.NewAccountRepository(db)
	journal := persistence.NewJournalRepository(db)
	users := persistence.NewUserRepository(db)

	chart := NewChartBuilder(db, tradingAccounts, accounts)
	ledger := NewLedgerService(accounts, journal, tradingAccounts, users, nil)
	return db, chart, ledger
}

func TestCreateTradingAccountBuildsChart(t *testing.T) {
	db, chart, ledger := newTestServices(t)
	ctx := context.Background()

	ta, err := chart.CreateTradingAccount(ctx, 1, "Binance Account", domain.MarketCrypto, domain.PurposeSpot)
	require.NoError(t, err)
	require.NotZero(t, ta.ID)

	var count int64
	require.NoError(t, db.Model(&domain.Account{}).Where("trading_account_id = ?", ta.ID).Count(&count).Error)
	require.EqualValues(t, 16, count)

	cash, err := ledger.MustGetAccount(ctx, ta.ID, domain.NumberCash)
	require.NoError(t, err)
	require.Equal(t, "Cash", cash.Name)
	require.Equal(t, domain.KindAsset, cash.Kind)
	require.NotNil(t, cash.ParentID)

	assetsRoot, err := ledger.MustGetAccount(ctx, ta.ID, domain.NumberAssetsRoot)
	require.NoError(t, err)
	require.Equal(t, "Assets (Binance Account)", assetsRoot.Name)
	require.Nil(t, assetsRoot.ParentID)
	require.Equal(t, assetsRoot.ID, *cash.ParentID)

	// 同一编号在另一个交易账户下互不冲突
	ta2, err := chart.CreateTradingAccount(ctx, 1, "Kraken Account", domain.MarketCrypto, domain.PurposeSpot)
	require.NoError(t, err)
	cash2, err := ledger.MustGetAccount(ctx, ta2.ID, domain.NumberCash)
	require.NoError(t, err)
	require.NotEqual(t, cash.ID, cash2.ID)
}

func TestBuildChartRejectsRebuild(t *testing.T) {
	db, chart, _ := newTestServices(t)
	ctx := context.Background()

	ta, err := chart.CreateTradingAccount(ctx, 1, "Main", domain.MarketCrypto, domain.PurposeSpot)
	require.NoError(t, err)

	// 重复实例化撞 (trading_account_id, number) 唯一索引
	err = chart.BuildChart(ctx, ta)
	require.Error(t, err)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	var count int64
	require.NoError(t, db.Model(&domain.Account{}).Where("trading_account_id = ?", ta.ID).Count(&count).Error)
	require.EqualValues(t, 16, count)
}

func TestIsDuplicateKey(t *testing.T) {
	require.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	require.True(t, isDuplicateKey(fmt.Errorf("create account: %w", gorm.ErrDuplicatedKey)))
	// 未开启 TranslateError 时拿到的是原生驱动错误
	require.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	require.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}))
	require.False(t, isDuplicateKey(gorm.ErrRecordNotFound))
}

func TestMustGetAccountMissingChart(t *testing.T) {
	_, _, ledger := newTestServices(t)

	_, err := ledger.MustGetAccount(context.Background(), 999, domain.NumberCash)
	require.ErrorIs(t, err, domain.ErrAccountingNotConfigured)
}

func TestEnsureAccountIdempotent(t *testing.T) {
	_, chart, ledger := newTestServices(t)
	ctx := context.Background()

	ta, err := chart.CreateTradingAccount(ctx, 1, "Main", domain.MarketForex, domain.PurposeSpot)
	require.NoError(t, err)

	first, err := ledger.EnsureAccount(ctx, ta, domain.NumberRealizedSpotGain, "Realized Gain on Spot Sale", domain.KindRevenue, nil)
	require.NoError(t, err)
	second, err := ledger.EnsureAccount(ctx, ta, domain.NumberRealizedSpotGain, "Realized Gain on Spot Sale", domain.KindRevenue, nil)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestEnsurePayableAccount(t *testing.T) {
	db, chart, ledger := newTestServices(t)
	ctx := context.Background()

	ta, err := chart.CreateTradingAccount(ctx, 1, "Main", domain.MarketCrypto, domain.PurposeFutures)
	require.NoError(t, err)

	trader := &domain.User{Username: "alice", Role: domain.RoleTrader}
	require.NoError(t, db.Create(trader).Error)
	clerk := &domain.User{Username: "bob", Role: domain.RoleAccountant}
	require.NoError(t, db.Create(clerk).Error)

	payable, err := ledger.EnsurePayableAccount(ctx, ta, trader)
	require.NoError(t, err)
	require.Equal(t, domain.KindLiability, payable.Kind)
	require.Equal(t, "Payable to: alice", payable.Name)
	require.NotNil(t, payable.CounterpartyUserID)
	require.Equal(t, trader.ID, *payable.CounterpartyUserID)

	again, err := ledger.EnsurePayableAccount(ctx, ta, trader)
	require.NoError(t, err)
	require.Equal(t, payable.ID, again.ID)

	_, err = ledger.EnsurePayableAccount(ctx, ta, clerk)
	require.ErrorIs(t, err, domain.ErrNotTrader)
}

func TestPostRejectsUnbalanced(t *testing.T) {
	_, chart, ledger := newTestServices(t)
	ctx := context.Background()

	ta, err := chart.CreateTradingAccount(ctx, 1, "Main", domain.MarketCrypto, domain.PurposeSpot)
	require.NoError(t, err)
	cash, err := ledger.MustGetAccount(ctx, ta.ID, domain.NumberCash)
	require.NoError(t, err)
	capital, err := ledger.MustGetAccount(ctx, ta.ID, domain.NumberUserCapital)
	require.NoError(t, err)

	_, err = ledger.Post(ctx, testNow(), "bad entry", nil, []domain.JournalEntryLine{
		domain.DebitLine(cash.ID, dec("100.00")),
		domain.CreditLine(capital.ID, dec("90.00")),
	})
	require.ErrorIs(t, err, domain.ErrUnbalancedEntry)

	entry, err := ledger.Post(ctx, testNow(), "good entry", nil, []domain.JournalEntryLine{
		domain.DebitLine(cash.ID, dec("100.00")),
		domain.CreditLine(capital.ID, dec("100.00")),
	})
	require.NoError(t, err)
	require.NotEmpty(t, entry.EntryNo)
	require.Len(t, entry.Lines, 2)

	totals, err := ledger.CashBalance(ctx, cash.ID)
	require.NoError(t, err)
	require.True(t, totals.Debit.Sub(totals.Credit).Equal(dec("100.00")))
}
