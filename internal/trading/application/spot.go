package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
)

// ExecuteSpotBuy 现货买入：按总成本建批次，借记资产持仓 1020，贷记现金 1010。
// 单位成本 = 总成本 / 数量，保留 8 位小数。
func (s *TradingService) ExecuteSpotBuy(ctx context.Context, cmd SpotTradeCommand) (*ledgerdomain.JournalEntry, error) {
	if !cmd.Quantity.IsPositive() || !cmd.Amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	cost := money(cmd.Amount)

	var entry *ledgerdomain.JournalEntry
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ta, err := s.mustGetTradingAccount(txCtx, cmd.TradingAccountID)
		if err != nil {
			return err
		}
		asset, err := s.mustGetAsset(txCtx, cmd.AssetID, refSpot)
		if err != nil {
			return err
		}
		cash, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberCash)
		if err != nil {
			return err
		}
		holdings, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberAssetHoldings)
		if err != nil {
			return err
		}
		if err := s.requireCash(txCtx, cash.ID, cost); err != nil {
			return err
		}

		unitCost := cmd.Amount.DivRound(cmd.Quantity, 8)
		if _, err := s.lots.Acquire(txCtx, ta.ID, asset.ID, cmd.Quantity, unitCost, time.Now()); err != nil {
			return err
		}

		description := cmd.Description
		if description == "" {
			description = fmt.Sprintf("Buy %s %s", cmd.Quantity.String(), asset.Symbol)
		}
		entry, err = s.ledger.Post(txCtx, time.Now(), description, &cmd.PostedByID, []ledgerdomain.JournalEntryLine{
			ledgerdomain.DebitLine(holdings.ID, cost),
			ledgerdomain.CreditLine(cash.ID, cost),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return entry, nil
}

// ExecuteSpotSell 现货卖出：FIFO 消耗批次得到销货成本，
// 借记现金（成交额），贷记资产持仓（成本），差额计入现货平仓损益科目。
func (s *TradingService) ExecuteSpotSell(ctx context.Context, cmd SpotTradeCommand) (*ledgerdomain.JournalEntry, error) {
	if !cmd.Quantity.IsPositive() || !cmd.Amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	proceeds := money(cmd.Amount)

	var entry *ledgerdomain.JournalEntry
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ta, err := s.mustGetTradingAccount(txCtx, cmd.TradingAccountID)
		if err != nil {
			return err
		}
		asset, err := s.mustGetAsset(txCtx, cmd.AssetID, refSpot)
		if err != nil {
			return err
		}
		cash, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberCash)
		if err != nil {
			return err
		}
		holdings, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberAssetHoldings)
		if err != nil {
			return err
		}

		cogs, err := s.lots.Consume(txCtx, ta.ID, asset.ID, cmd.Quantity)
		if err != nil {
			return err
		}
		cogs = money(cogs)
		pnl := proceeds.Sub(cogs)

		lines := []ledgerdomain.JournalEntryLine{
			ledgerdomain.DebitLine(cash.ID, proceeds),
			ledgerdomain.CreditLine(holdings.ID, cogs),
		}
		lines, err = s.appendSpotPnLLine(txCtx, ta, lines, pnl)
		if err != nil {
			return err
		}

		description := cmd.Description
		if description == "" {
			description = fmt.Sprintf("Sell %s %s", cmd.Quantity.String(), asset.Symbol)
		}
		entry, err = s.ledger.Post(txCtx, time.Now(), description, &cmd.PostedByID, lines)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return entry, nil
}

// DepositSpotAsset 现货实物入金：按申报单价建批次，
// 借记资产持仓（数量×单价），贷记用户资本。
func (s *TradingService) DepositSpotAsset(ctx context.Context, cmd SpotTransferCommand) (*ledgerdomain.JournalEntry, error) {
	if !cmd.Quantity.IsPositive() || !cmd.UnitPrice.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	value := money(cmd.Quantity.Mul(cmd.UnitPrice))

	var entry *ledgerdomain.JournalEntry
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ta, err := s.mustGetTradingAccount(txCtx, cmd.TradingAccountID)
		if err != nil {
			return err
		}
		asset, err := s.mustGetAsset(txCtx, cmd.AssetID, refSpot)
		if err != nil {
			return err
		}
		holdings, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberAssetHoldings)
		if err != nil {
			return err
		}
		capital, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberUserCapital)
		if err != nil {
			return err
		}

		if _, err := s.lots.Acquire(txCtx, ta.ID, asset.ID, cmd.Quantity, cmd.UnitPrice, time.Now()); err != nil {
			return err
		}

		description := cmd.Description
		if description == "" {
			description = fmt.Sprintf("Deposit %s %s", cmd.Quantity.String(), asset.Symbol)
		}
		entry, err = s.ledger.Post(txCtx, time.Now(), description, &cmd.PostedByID, []ledgerdomain.JournalEntryLine{
			ledgerdomain.DebitLine(holdings.ID, value),
			ledgerdomain.CreditLine(capital.ID, value),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return entry, nil
}

// WithdrawSpotAsset 现货实物出金：FIFO 消耗批次，
// 借记用户资本（数量×申报单价），贷记资产持仓（成本），差额计入现货平仓损益。
func (s *TradingService) WithdrawSpotAsset(ctx context.Context, cmd SpotTransferCommand) (*ledgerdomain.JournalEntry, error) {
	if !cmd.Quantity.IsPositive() || !cmd.UnitPrice.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	value := money(cmd.Quantity.Mul(cmd.UnitPrice))

	var entry *ledgerdomain.JournalEntry
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ta, err := s.mustGetTradingAccount(txCtx, cmd.TradingAccountID)
		if err != nil {
			return err
		}
		asset, err := s.mustGetAsset(txCtx, cmd.AssetID, refSpot)
		if err != nil {
			return err
		}
		holdings, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberAssetHoldings)
		if err != nil {
			return err
		}
		capital, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberUserCapital)
		if err != nil {
			return err
		}

		cogs, err := s.lots.Consume(txCtx, ta.ID, asset.ID, cmd.Quantity)
		if err != nil {
			return err
		}
		cogs = money(cogs)
		pnl := value.Sub(cogs)

		lines := []ledgerdomain.JournalEntryLine{
			ledgerdomain.DebitLine(capital.ID, value),
			ledgerdomain.CreditLine(holdings.ID, cogs),
		}
		lines, err = s.appendSpotPnLLine(txCtx, ta, lines, pnl)
		if err != nil {
			return err
		}

		description := cmd.Description
		if description == "" {
			description = fmt.Sprintf("Withdraw %s %s", cmd.Quantity.String(), asset.Symbol)
		}
		entry, err = s.ledger.Post(txCtx, time.Now(), description, &cmd.PostedByID, lines)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return entry, nil
}

// appendSpotPnLLine 把现货处置差额挂到惰性创建的损益科目上。
// 盈利贷记收入科目 4015，亏损借记费用科目 5015，零差额不加行。
func (s *TradingService) appendSpotPnLLine(ctx context.Context, ta *ledgerdomain.TradingAccount, lines []ledgerdomain.JournalEntryLine, pnl decimal.Decimal) ([]ledgerdomain.JournalEntryLine, error) {
	switch {
	case pnl.IsPositive():
		parent, err := s.ledger.MustGetAccount(ctx, ta.ID, ledgerdomain.NumberRevenuesRoot)
		if err != nil {
			return nil, err
		}
		parentID := parent.ID
		gain, err := s.ledger.EnsureAccount(ctx, ta, ledgerdomain.NumberRealizedSpotGain, "Realized Gain on Spot Sale", ledgerdomain.KindRevenue, &parentID)
		if err != nil {
			return nil, err
		}
		return append(lines, ledgerdomain.CreditLine(gain.ID, pnl)), nil
	case pnl.IsNegative():
		parent, err := s.ledger.MustGetAccount(ctx, ta.ID, ledgerdomain.NumberExpensesRoot)
		if err != nil {
			return nil, err
		}
		parentID := parent.ID
		loss, err := s.ledger.EnsureAccount(ctx, ta, ledgerdomain.NumberRealizedSpotLoss, "Realized Loss on Spot Sale", ledgerdomain.KindExpense, &parentID)
		if err != nil {
			return nil, err
		}
		return append(lines, ledgerdomain.DebitLine(loss.ID, pnl.Abs())), nil
	default:
		return lines, nil
	}
}
