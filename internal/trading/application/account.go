package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/pkg/logging"
	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
)

// DeleteTradingAccount 级联删除交易账户及其全部账务痕迹。
// 单个事务内按依赖顺序清理：凭证（行先于头）、批次、交易、科目、账户本身。
func (s *TradingService) DeleteTradingAccount(ctx context.Context, tradingAccountID uint) error {
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ta, err := s.mustGetTradingAccount(txCtx, tradingAccountID)
		if err != nil {
			return err
		}

		accounts, err := s.accounts.ListByTradingAccount(txCtx, ta.ID)
		if err != nil {
			return err
		}
		accountIDs := make([]uint, 0, len(accounts))
		for _, account := range accounts {
			accountIDs = append(accountIDs, account.ID)
		}

		if len(accountIDs) > 0 {
			if err := s.journal.DeleteByAccounts(txCtx, accountIDs); err != nil {
				return fmt.Errorf("delete journal entries: %w", err)
			}
		}
		if err := s.lots.PurgeTradingAccount(txCtx, ta.ID); err != nil {
			return fmt.Errorf("delete asset lots: %w", err)
		}
		if err := s.trades.DeleteByTradingAccount(txCtx, ta.ID); err != nil {
			return fmt.Errorf("delete trades: %w", err)
		}
		if err := s.accounts.DeleteByTradingAccount(txCtx, ta.ID); err != nil {
			return fmt.Errorf("delete accounts: %w", err)
		}
		if err := s.tradingAccounts.Delete(txCtx, ta.ID); err != nil {
			return fmt.Errorf("delete trading account: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ledgerdomain.ErrNotFound) {
			logging.Error(ctx, "failed to delete trading account", "trading_account_id", tradingAccountID, "error", err)
		}
		return err
	}
	return nil
}
