package application

import (
	"context"
	"fmt"
	"time"

	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
	"github.com/wyfcoding/tradingledger/internal/trading/domain"
)

// OpenTrade 衍生品开仓。只建立持仓记录，不产生任何账务，
// 损益在平仓时一次性落账。
func (s *TradingService) OpenTrade(ctx context.Context, cmd OpenTradeCommand) (*domain.Trade, error) {
	if !cmd.Quantity.IsPositive() || !cmd.EntryPrice.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	if cmd.Side != domain.SideLong && cmd.Side != domain.SideShort {
		return nil, fmt.Errorf("%w: side %q", ledgerdomain.ErrInvalidLine, cmd.Side)
	}

	if _, err := s.mustGetTradingAccount(ctx, cmd.TradingAccountID); err != nil {
		return nil, err
	}
	asset, err := s.mustGetAsset(ctx, cmd.AssetID, refDerivative)
	if err != nil {
		return nil, err
	}

	entryDate := cmd.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}
	trade := &domain.Trade{
		TradingAccountID: cmd.TradingAccountID,
		AssetID:          asset.ID,
		Status:           domain.StatusOpen,
		Side:             cmd.Side,
		Quantity:         cmd.Quantity,
		EntryPrice:       cmd.EntryPrice,
		EntryDate:        entryDate,
	}
	if err := s.trades.Save(ctx, trade); err != nil {
		return nil, err
	}
	return trade, nil
}

// CloseTrade 衍生品平仓：状态转换与损益、佣金过账在同一事务内完成。
// 毛损益记入现金对已实现损益科目 4010；佣金总额借记佣金费用 5010，
// 经纪商部分贷记现金、交易员分成贷记其应付往来科目。
func (s *TradingService) CloseTrade(ctx context.Context, cmd CloseTradeCommand) (*domain.Trade, error) {
	if cmd.BrokerCommission.IsNegative() || cmd.TraderCommission.IsNegative() {
		return nil, ledgerdomain.ErrInvalidAmount
	}

	var (
		trade *domain.Trade
		entry *ledgerdomain.JournalEntry
	)
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		trade, err = s.trades.Get(txCtx, cmd.TradeID)
		if err != nil {
			return err
		}
		if trade == nil {
			return fmt.Errorf("%w: trade %d", domain.ErrTradeNotFound, cmd.TradeID)
		}
		entry, err = s.closeTradeLocked(txCtx, trade, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return trade, nil
}

// RecordDirectClosedTrade 补录一笔已完结交易：同一事务内开仓并立即平仓。
func (s *TradingService) RecordDirectClosedTrade(ctx context.Context, cmd DirectClosedTradeCommand) (*domain.Trade, error) {
	if !cmd.Open.Quantity.IsPositive() || !cmd.Open.EntryPrice.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	if cmd.Open.Side != domain.SideLong && cmd.Open.Side != domain.SideShort {
		return nil, fmt.Errorf("%w: side %q", ledgerdomain.ErrInvalidLine, cmd.Open.Side)
	}
	if cmd.Close.BrokerCommission.IsNegative() || cmd.Close.TraderCommission.IsNegative() {
		return nil, ledgerdomain.ErrInvalidAmount
	}

	var (
		trade *domain.Trade
		entry *ledgerdomain.JournalEntry
	)
	err := s.inTx(ctx, func(txCtx context.Context) error {
		if _, err := s.mustGetTradingAccount(txCtx, cmd.Open.TradingAccountID); err != nil {
			return err
		}
		asset, err := s.mustGetAsset(txCtx, cmd.Open.AssetID, refDerivative)
		if err != nil {
			return err
		}

		entryDate := cmd.Open.EntryDate
		if entryDate.IsZero() {
			entryDate = time.Now()
		}
		trade = &domain.Trade{
			TradingAccountID: cmd.Open.TradingAccountID,
			AssetID:          asset.ID,
			Status:           domain.StatusOpen,
			Side:             cmd.Open.Side,
			Quantity:         cmd.Open.Quantity,
			EntryPrice:       cmd.Open.EntryPrice,
			EntryDate:        entryDate,
		}
		if err := s.trades.Save(txCtx, trade); err != nil {
			return err
		}

		entry, err = s.closeTradeLocked(txCtx, trade, cmd.Close)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return trade, nil
}

// ListTrades 交易账户下的持仓记录，可按状态过滤。
func (s *TradingService) ListTrades(ctx context.Context, tradingAccountID uint, status *domain.TradeStatus) ([]*domain.Trade, error) {
	if _, err := s.mustGetTradingAccount(ctx, tradingAccountID); err != nil {
		return nil, err
	}
	return s.trades.ListByTradingAccount(ctx, tradingAccountID, status)
}

// closeTradeLocked 在调用方事务内执行平仓：写平仓字段并过账。
// 毛损益与佣金均为零时不产生凭证。
func (s *TradingService) closeTradeLocked(ctx context.Context, trade *domain.Trade, cmd CloseTradeCommand) (*ledgerdomain.JournalEntry, error) {
	gross := money(cmd.GrossPnL)
	broker := money(cmd.BrokerCommission)
	traderShare := money(cmd.TraderCommission)

	exitDate := cmd.ExitDate
	if exitDate.IsZero() {
		exitDate = time.Now()
	}
	if err := trade.Close(cmd.ExitPrice, exitDate, cmd.ExitNotes, gross, broker, traderShare, cmd.CommissionRecipientID); err != nil {
		return nil, err
	}

	ta, err := s.mustGetTradingAccount(ctx, trade.TradingAccountID)
	if err != nil {
		return nil, err
	}
	cash, err := s.ledger.MustGetAccount(ctx, ta.ID, ledgerdomain.NumberCash)
	if err != nil {
		return nil, err
	}

	var lines []ledgerdomain.JournalEntryLine
	switch {
	case gross.IsPositive():
		pnlAccount, err := s.ledger.MustGetAccount(ctx, ta.ID, ledgerdomain.NumberRealizedPnL)
		if err != nil {
			return nil, err
		}
		lines = append(lines,
			ledgerdomain.DebitLine(cash.ID, gross),
			ledgerdomain.CreditLine(pnlAccount.ID, gross))
	case gross.IsNegative():
		pnlAccount, err := s.ledger.MustGetAccount(ctx, ta.ID, ledgerdomain.NumberRealizedPnL)
		if err != nil {
			return nil, err
		}
		lines = append(lines,
			ledgerdomain.DebitLine(pnlAccount.ID, gross.Abs()),
			ledgerdomain.CreditLine(cash.ID, gross.Abs()))
	}

	commission := broker.Add(traderShare)
	if commission.IsPositive() {
		expense, err := s.ledger.MustGetAccount(ctx, ta.ID, ledgerdomain.NumberCommissionExpense)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ledgerdomain.DebitLine(expense.ID, commission))
		if broker.IsPositive() {
			lines = append(lines, ledgerdomain.CreditLine(cash.ID, broker))
		}
		if traderShare.IsPositive() {
			if cmd.CommissionRecipientID == nil {
				return nil, fmt.Errorf("%w: trader commission requires a recipient", ledgerdomain.ErrInvalidLine)
			}
			recipient, err := s.users.Get(ctx, *cmd.CommissionRecipientID)
			if err != nil {
				return nil, err
			}
			if recipient == nil {
				return nil, fmt.Errorf("%w: user %d", ledgerdomain.ErrNotFound, *cmd.CommissionRecipientID)
			}
			payable, err := s.ledger.EnsurePayableAccount(ctx, ta, recipient)
			if err != nil {
				return nil, err
			}
			lines = append(lines, ledgerdomain.CreditLine(payable.ID, traderShare))
		}
	}

	if err := s.trades.Save(ctx, trade); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	description := fmt.Sprintf("Close trade #%d: %s", trade.ID, cmd.ExitNotes)
	if cmd.ExitNotes == "" {
		description = fmt.Sprintf("Close trade #%d", trade.ID)
	}
	return s.ledger.Post(ctx, exitDate, description, &cmd.PostedByID, lines)
}
