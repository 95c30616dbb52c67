package application

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	invapp "github.com/wyfcoding/tradingledger/internal/inventory/application"
	invdomain "github.com/wyfcoding/tradingledger/internal/inventory/domain"
	invpersistence "github.com/wyfcoding/tradingledger/internal/inventory/infrastructure/persistence"
	ledgerapp "github.com/wyfcoding/tradingledger/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
	ledgerpersistence "github.com/wyfcoding/tradingledger/internal/ledger/infrastructure/persistence"
	refdomain "github.com/wyfcoding/tradingledger/internal/referencedata/domain"
	refpersistence "github.com/wyfcoding/tradingledger/internal/referencedata/infrastructure/persistence"
	"github.com/wyfcoding/tradingledger/internal/trading/domain"
	tradingpersistence "github.com/wyfcoding/tradingledger/internal/trading/infrastructure/persistence"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type fixture struct {
	db      *gorm.DB
	chart   *ledgerapp.ChartBuilder
	ledger  *ledgerapp.LedgerService
	journal ledgerdomain.JournalRepository
	svc     *TradingService

	owner  *ledgerdomain.User
	trader *ledgerdomain.User
	ta     *ledgerdomain.TradingAccount
	spot   *refdomain.Asset
	deriv  *refdomain.Asset
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&ledgerdomain.User{},
		&ledgerdomain.TradingAccount{},
		&ledgerdomain.Account{},
		&ledgerdomain.JournalEntry{},
		&ledgerdomain.JournalEntryLine{},
		&refdomain.Asset{},
		&refdomain.Currency{},
		&invdomain.AssetLot{},
		&domain.Trade{},
	))

	tradingAccounts := ledgerpersistence.NewTradingAccountRepository(db)
	accounts := ledgerpersistence.NewAccountRepository(db)
	journal := ledgerpersistence.NewJournalRepository(db)
	users := ledgerpersistence.NewUserRepository(db)
	assets := refpersistence.NewAssetRepository(db)
	lots := invpersistence.NewLotRepository(db)
	trades := tradingpersistence.NewTradeRepository(db)

	ledger := ledgerapp.NewLedgerService(accounts, journal, tradingAccounts, users, nil)
	chart := ledgerapp.NewChartBuilder(db, tradingAccounts, accounts)
	lotManager := invapp.NewLotManager(lots)
	svc := NewTradingService(db, ledger, lotManager, trades, assets, tradingAccounts, accounts, journal, users)

	ctx := context.Background()
	owner := &ledgerdomain.User{Username: "owner", Role: ledgerdomain.RoleAccountant}
	require.NoError(t, db.Create(owner).Error)
	trader := &ledgerdomain.User{Username: "alice", Role: ledgerdomain.RoleTrader}
	require.NoError(t, db.Create(trader).Error)

	ta, err := chart.CreateTradingAccount(ctx, owner.ID, "Main Account", ledgerdomain.MarketCrypto, ledgerdomain.PurposeSpot)
	require.NoError(t, err)

	spot := &refdomain.Asset{Symbol: "BTC", Name: "Bitcoin", Kind: refdomain.AssetSpot}
	require.NoError(t, db.Create(spot).Error)
	deriv := &refdomain.Asset{Symbol: "BTC-PERP", Name: "Bitcoin Perpetual", Kind: refdomain.AssetDerivative}
	require.NoError(t, db.Create(deriv).Error)

	return &fixture{
		db:      db,
		chart:   chart,
		ledger:  ledger,
		journal: journal,
		svc:     svc,
		owner:   owner,
		trader:  trader,
		ta:      ta,
		spot:    spot,
		deriv:   deriv,
	}
}

// balance 按科目编号取正常方向余额。
func (f *fixture) balance(t *testing.T, number string) decimal.Decimal {
	t.Helper()
	ctx := context.Background()
	account, err := f.ledger.MustGetAccount(ctx, f.ta.ID, number)
	require.NoError(t, err)
	totals, err := f.journal.TotalsForAccount(ctx, account.ID)
	require.NoError(t, err)
	return account.SignedBalance(totals.Debit, totals.Credit)
}

func (f *fixture) entryCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&ledgerdomain.JournalEntry{}).Count(&count).Error)
	return count
}

func TestDepositThenWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("1000.00"), "initial funding", f.owner.ID)
	require.NoError(t, err)
	require.Len(t, entry.Lines, 2)

	_, err = f.svc.MakeWithdrawal(ctx, f.ta.ID, dec("400.00"), "partial withdrawal", f.owner.ID)
	require.NoError(t, err)

	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("600.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberUserCapital).Equal(dec("600.00")))
	require.EqualValues(t, 2, f.entryCount(t))
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("100.00"), "funding", f.owner.ID)
	require.NoError(t, err)

	_, err = f.svc.MakeWithdrawal(ctx, f.ta.ID, dec("100.01"), "too much", f.owner.ID)
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientFunds)

	// 失败不产生凭证
	require.EqualValues(t, 1, f.entryCount(t))
	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("100.00")))
}

func TestDepositRejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("0"), "zero", f.owner.ID)
	require.ErrorIs(t, err, ledgerdomain.ErrInvalidAmount)
	_, err = f.svc.MakeDeposit(ctx, f.ta.ID, dec("-5"), "negative", f.owner.ID)
	require.ErrorIs(t, err, ledgerdomain.ErrInvalidAmount)
}

func TestTransferFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.chart.CreateTradingAccount(ctx, f.owner.ID, "Second Account", ledgerdomain.MarketCrypto, ledgerdomain.PurposeSpot)
	require.NoError(t, err)
	foreign, err := f.chart.CreateTradingAccount(ctx, f.trader.ID, "Foreign Account", ledgerdomain.MarketCrypto, ledgerdomain.PurposeSpot)
	require.NoError(t, err)

	_, err = f.svc.MakeDeposit(ctx, f.ta.ID, dec("500.00"), "funding", f.owner.ID)
	require.NoError(t, err)

	_, err = f.svc.TransferFunds(ctx, f.ta.ID, f.ta.ID, dec("100.00"), "", f.owner.ID)
	require.ErrorIs(t, err, ledgerdomain.ErrSameAccountOperation)

	_, err = f.svc.TransferFunds(ctx, f.ta.ID, foreign.ID, dec("100.00"), "", f.owner.ID)
	require.ErrorIs(t, err, ledgerdomain.ErrCrossOwnerOperation)

	entry, err := f.svc.TransferFunds(ctx, f.ta.ID, other.ID, dec("100.00"), "", f.owner.ID)
	require.NoError(t, err)
	require.Len(t, entry.Lines, 2)

	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("400.00")))

	otherCash, err := f.ledger.MustGetAccount(ctx, other.ID, ledgerdomain.NumberCash)
	require.NoError(t, err)
	totals, err := f.journal.TotalsForAccount(ctx, otherCash.ID)
	require.NoError(t, err)
	require.True(t, totals.Debit.Sub(totals.Credit).Equal(dec("100.00")))
}

func TestRecordExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("500.00"), "funding", f.owner.ID)
	require.NoError(t, err)

	_, err = f.svc.RecordExpense(ctx, f.ta.ID, ledgerdomain.NumberTradingFees, dec("30.00"), "exchange fee", f.owner.ID)
	require.NoError(t, err)

	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("470.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberTradingFees).Equal(dec("30.00")))

	// 非费用科目拒绝
	_, err = f.svc.RecordExpense(ctx, f.ta.ID, ledgerdomain.NumberCash, dec("10.00"), "bad target", f.owner.ID)
	require.ErrorIs(t, err, ledgerdomain.ErrInvalidLine)
}

func TestSpotBuySellProfit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("20000.00"), "funding", f.owner.ID)
	require.NoError(t, err)

	_, err = f.svc.ExecuteSpotBuy(ctx, SpotTradeCommand{
		TradingAccountID: f.ta.ID,
		AssetID:          f.spot.ID,
		Quantity:         dec("100"),
		Amount:           dec("10000.00"),
		PostedByID:       f.owner.ID,
	})
	require.NoError(t, err)

	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("10000.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberAssetHoldings).Equal(dec("10000.00")))

	_, err = f.svc.ExecuteSpotSell(ctx, SpotTradeCommand{
		TradingAccountID: f.ta.ID,
		AssetID:          f.spot.ID,
		Quantity:         dec("100"),
		Amount:           dec("12000.00"),
		PostedByID:       f.owner.ID,
	})
	require.NoError(t, err)

	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("22000.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberAssetHoldings).IsZero())
	require.True(t, f.balance(t, ledgerdomain.NumberRealizedSpotGain).Equal(dec("2000.00")))
}

func TestSpotSellLoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("10000.00"), "funding", f.owner.ID)
	require.NoError(t, err)
	_, err = f.svc.ExecuteSpotBuy(ctx, SpotTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.spot.ID,
		Quantity: dec("10"), Amount: dec("1000.00"), PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.ExecuteSpotSell(ctx, SpotTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.spot.ID,
		Quantity: dec("10"), Amount: dec("800.00"), PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	require.True(t, f.balance(t, ledgerdomain.NumberRealizedSpotLoss).Equal(dec("200.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("9800.00")))
}

func TestSpotBuyGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("100.00"), "funding", f.owner.ID)
	require.NoError(t, err)

	// 现金不足
	_, err = f.svc.ExecuteSpotBuy(ctx, SpotTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.spot.ID,
		Quantity: dec("10"), Amount: dec("1000.00"), PostedByID: f.owner.ID,
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientFunds)

	// 衍生品标的不允许现货买入
	_, err = f.svc.ExecuteSpotBuy(ctx, SpotTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.deriv.ID,
		Quantity: dec("1"), Amount: dec("50.00"), PostedByID: f.owner.ID,
	})
	require.ErrorIs(t, err, domain.ErrAssetKindMismatch)

	// 持仓不足的卖出
	_, err = f.svc.ExecuteSpotSell(ctx, SpotTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.spot.ID,
		Quantity: dec("1"), Amount: dec("50.00"), PostedByID: f.owner.ID,
	})
	require.ErrorIs(t, err, invdomain.ErrInsufficientQuantity)
}

func TestSpotAssetDepositWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.DepositSpotAsset(ctx, SpotTransferCommand{
		TradingAccountID: f.ta.ID, AssetID: f.spot.ID,
		Quantity: dec("4"), UnitPrice: dec("250.00"), PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	require.True(t, f.balance(t, ledgerdomain.NumberAssetHoldings).Equal(dec("1000.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberUserCapital).Equal(dec("1000.00")))

	// 按更高的申报价出金，差额进现货处置收益
	_, err = f.svc.WithdrawSpotAsset(ctx, SpotTransferCommand{
		TradingAccountID: f.ta.ID, AssetID: f.spot.ID,
		Quantity: dec("4"), UnitPrice: dec("300.00"), PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	require.True(t, f.balance(t, ledgerdomain.NumberAssetHoldings).IsZero())
	require.True(t, f.balance(t, ledgerdomain.NumberUserCapital).Equal(dec("-200.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberRealizedSpotGain).Equal(dec("200.00")))
}

func TestCloseTradeCommissionSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("1000.00"), "funding", f.owner.ID)
	require.NoError(t, err)

	trade, err := f.svc.OpenTrade(ctx, OpenTradeCommand{
		TradingAccountID: f.ta.ID,
		AssetID:          f.deriv.ID,
		Side:             domain.SideLong,
		Quantity:         dec("2"),
		EntryPrice:       dec("100.00"),
		PostedByID:       f.owner.ID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, trade.Status)
	// 开仓不产生凭证
	require.EqualValues(t, 1, f.entryCount(t))

	recipientID := f.trader.ID
	closed, err := f.svc.CloseTrade(ctx, CloseTradeCommand{
		TradeID:               trade.ID,
		ExitPrice:             dec("350.00"),
		ExitNotes:             "take profit",
		GrossPnL:              dec("500.00"),
		BrokerCommission:      dec("20.00"),
		TraderCommission:      dec("10.00"),
		CommissionRecipientID: &recipientID,
		PostedByID:            f.owner.ID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, closed.Status)
	require.NotNil(t, closed.ExitDate)

	// 现金 = 1000 + 500 - 20
	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("1480.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberRealizedPnL).Equal(dec("500.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberCommissionExpense).Equal(dec("30.00")))

	payable, err := f.ledger.EnsurePayableAccount(ctx, f.ta, f.trader)
	require.NoError(t, err)
	totals, err := f.journal.TotalsForAccount(ctx, payable.ID)
	require.NoError(t, err)
	require.True(t, totals.Credit.Sub(totals.Debit).Equal(dec("10.00")))

	// 二次平仓拒绝
	_, err = f.svc.CloseTrade(ctx, CloseTradeCommand{
		TradeID:    trade.ID,
		ExitPrice:  dec("350.00"),
		GrossPnL:   dec("500.00"),
		PostedByID: f.owner.ID,
	})
	require.ErrorIs(t, err, domain.ErrAlreadyClosed)
}

func TestCloseTradeLossNoCommission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("1000.00"), "funding", f.owner.ID)
	require.NoError(t, err)

	trade, err := f.svc.OpenTrade(ctx, OpenTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.deriv.ID,
		Side: domain.SideShort, Quantity: dec("1"), EntryPrice: dec("200.00"),
		PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.CloseTrade(ctx, CloseTradeCommand{
		TradeID:    trade.ID,
		ExitPrice:  dec("250.00"),
		GrossPnL:   dec("-50.00"),
		PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("950.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberRealizedPnL).Equal(dec("-50.00")))
}

func TestRecordDirectClosedTrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("1000.00"), "funding", f.owner.ID)
	require.NoError(t, err)

	trade, err := f.svc.RecordDirectClosedTrade(ctx, DirectClosedTradeCommand{
		Open: OpenTradeCommand{
			TradingAccountID: f.ta.ID,
			AssetID:          f.deriv.ID,
			Side:             domain.SideLong,
			Quantity:         dec("1"),
			EntryPrice:       dec("100.00"),
			EntryDate:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			PostedByID:       f.owner.ID,
		},
		Close: CloseTradeCommand{
			ExitPrice:        dec("180.00"),
			ExitDate:         time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			GrossPnL:         dec("80.00"),
			BrokerCommission: dec("5.00"),
			PostedByID:       f.owner.ID,
		},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusClosed, trade.Status)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), trade.EntryDate.UTC())

	require.True(t, f.balance(t, ledgerdomain.NumberCash).Equal(dec("1075.00")))
	require.True(t, f.balance(t, ledgerdomain.NumberCommissionExpense).Equal(dec("5.00")))
}

func TestListTrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open, err := f.svc.OpenTrade(ctx, OpenTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.deriv.ID,
		Side: domain.SideLong, Quantity: dec("1"), EntryPrice: dec("100.00"),
		PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.CloseTrade(ctx, CloseTradeCommand{
		TradeID: open.ID, ExitPrice: dec("100.00"), GrossPnL: dec("0"), PostedByID: f.owner.ID,
	})
	require.NoError(t, err)
	// 零损益零佣金平仓不产生凭证
	require.EqualValues(t, 0, f.entryCount(t))

	_, err = f.svc.OpenTrade(ctx, OpenTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.deriv.ID,
		Side: domain.SideShort, Quantity: dec("2"), EntryPrice: dec("150.00"),
		PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	all, err := f.svc.ListTrades(ctx, f.ta.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	openOnly := domain.StatusOpen
	trades, err := f.svc.ListTrades(ctx, f.ta.ID, &openOnly)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, domain.SideShort, trades[0].Side)
}

func TestDeleteTradingAccountCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MakeDeposit(ctx, f.ta.ID, dec("20000.00"), "funding", f.owner.ID)
	require.NoError(t, err)
	_, err = f.svc.ExecuteSpotBuy(ctx, SpotTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.spot.ID,
		Quantity: dec("10"), Amount: dec("1000.00"), PostedByID: f.owner.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.OpenTrade(ctx, OpenTradeCommand{
		TradingAccountID: f.ta.ID, AssetID: f.deriv.ID,
		Side: domain.SideLong, Quantity: dec("1"), EntryPrice: dec("100.00"),
		PostedByID: f.owner.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTradingAccount(ctx, f.ta.ID))

	for _, model := range []any{
		&ledgerdomain.JournalEntry{},
		&ledgerdomain.JournalEntryLine{},
		&invdomain.AssetLot{},
		&domain.Trade{},
		&ledgerdomain.Account{},
		&ledgerdomain.TradingAccount{},
	} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		require.Zero(t, count, "leftover rows in %T", model)
	}

	// 标的与用户是全局数据，不随账户删除
	var assetCount int64
	require.NoError(t, f.db.Model(&refdomain.Asset{}).Count(&assetCount).Error)
	require.EqualValues(t, 2, assetCount)

	err = f.svc.DeleteTradingAccount(ctx, f.ta.ID)
	require.ErrorIs(t, err, ledgerdomain.ErrNotFound)
}
