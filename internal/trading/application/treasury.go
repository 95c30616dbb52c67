package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
)

// MakeDeposit 向交易账户注入资金：借记现金 1010，贷记用户资本 3010。
func (s *TradingService) MakeDeposit(ctx context.Context, tradingAccountID uint, amount decimal.Decimal, description string, postedByID uint) (*ledgerdomain.JournalEntry, error) {
	if !amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	amount = money(amount)

	var entry *ledgerdomain.JournalEntry
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ta, err := s.mustGetTradingAccount(txCtx, tradingAccountID)
		if err != nil {
			return err
		}
		cash, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberCash)
		if err != nil {
			return err
		}
		capital, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberUserCapital)
		if err != nil {
			return err
		}

		entry, err = s.ledger.Post(txCtx, time.Now(), description, &postedByID, []ledgerdomain.JournalEntryLine{
			ledgerdomain.DebitLine(cash.ID, amount),
			ledgerdomain.CreditLine(capital.ID, amount),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return entry, nil
}

// MakeWithdrawal 从交易账户提取资金：贷记现金，借记用户资本。
// 现金余额不足时整笔拒绝，不产生任何凭证。
func (s *TradingService) MakeWithdrawal(ctx context.Context, tradingAccountID uint, amount decimal.Decimal, description string, postedByID uint) (*ledgerdomain.JournalEntry, error) {
	if !amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	amount = money(amount)

	var entry *ledgerdomain.JournalEntry
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ta, err := s.mustGetTradingAccount(txCtx, tradingAccountID)
		if err != nil {
			return err
		}
		cash, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberCash)
		if err != nil {
			return err
		}
		capital, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberUserCapital)
		if err != nil {
			return err
		}
		if err := s.requireCash(txCtx, cash.ID, amount); err != nil {
			return err
		}

		entry, err = s.ledger.Post(txCtx, time.Now(), description, &postedByID, []ledgerdomain.JournalEntryLine{
			ledgerdomain.DebitLine(capital.ID, amount),
			ledgerdomain.CreditLine(cash.ID, amount),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return entry, nil
}

// TransferFunds 同一所有者名下两个交易账户间的现金划转，单张凭证记两个现金科目。
// 跨所有者划转与自转均拒绝。
func (s *TradingService) TransferFunds(ctx context.Context, fromID, toID uint, amount decimal.Decimal, description string, postedByID uint) (*ledgerdomain.JournalEntry, error) {
	if !amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	if fromID == toID {
		return nil, ledgerdomain.ErrSameAccountOperation
	}
	amount = money(amount)

	var entry *ledgerdomain.JournalEntry
	err := s.inTx(ctx, func(txCtx context.Context) error {
		from, err := s.mustGetTradingAccount(txCtx, fromID)
		if err != nil {
			return err
		}
		to, err := s.mustGetTradingAccount(txCtx, toID)
		if err != nil {
			return err
		}
		if from.UserID != to.UserID {
			return ledgerdomain.ErrCrossOwnerOperation
		}

		fromCash, err := s.ledger.MustGetAccount(txCtx, from.ID, ledgerdomain.NumberCash)
		if err != nil {
			return err
		}
		toCash, err := s.ledger.MustGetAccount(txCtx, to.ID, ledgerdomain.NumberCash)
		if err != nil {
			return err
		}
		if err := s.requireCash(txCtx, fromCash.ID, amount); err != nil {
			return err
		}

		if description == "" {
			description = fmt.Sprintf("Transfer from %s to %s", from.Name, to.Name)
		}
		entry, err = s.ledger.Post(txCtx, time.Now(), description, &postedByID, []ledgerdomain.JournalEntryLine{
			ledgerdomain.DebitLine(toCash.ID, amount),
			ledgerdomain.CreditLine(fromCash.ID, amount),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return entry, nil
}

// RecordExpense 以现金支付一笔费用：借记指定费用科目，贷记现金。
func (s *TradingService) RecordExpense(ctx context.Context, tradingAccountID uint, expenseNumber string, amount decimal.Decimal, description string, postedByID uint) (*ledgerdomain.JournalEntry, error) {
	if !amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	amount = money(amount)

	var entry *ledgerdomain.JournalEntry
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ta, err := s.mustGetTradingAccount(txCtx, tradingAccountID)
		if err != nil {
			return err
		}
		expense, err := s.ledger.MustGetAccount(txCtx, ta.ID, expenseNumber)
		if err != nil {
			return err
		}
		if expense.Kind != ledgerdomain.KindExpense {
			return fmt.Errorf("%w: account %s is %s, not an expense account", ledgerdomain.ErrInvalidLine, expense.Number, expense.Kind)
		}
		cash, err := s.ledger.MustGetAccount(txCtx, ta.ID, ledgerdomain.NumberCash)
		if err != nil {
			return err
		}
		if err := s.requireCash(txCtx, cash.ID, amount); err != nil {
			return err
		}

		entry, err = s.ledger.Post(txCtx, time.Now(), description, &postedByID, []ledgerdomain.JournalEntryLine{
			ledgerdomain.DebitLine(expense.ID, amount),
			ledgerdomain.CreditLine(cash.ID, amount),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.ledger.PublishPosted(ctx, entry)
	return entry, nil
}
