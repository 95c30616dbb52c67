// 包 persistence 提供记账核心仓储接口的 GORM 实现。
// 事务上下文经 contextx 传递：事务内的读写共用同一个 *gorm.DB。
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/tradingledger/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate 在支持 SELECT ... FOR UPDATE 的方言上加行锁。
// 余额检查与批次扣减是典型的 check-then-act，必须在事务内锁住触及的行；
// sqlite 事务本身可串行化，无需也不支持该子句。
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "mysql" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}

// --- TradingAccountRepository ---

type tradingAccountRepository struct {
	db *gorm.DB
}

func NewTradingAccountRepository(db *gorm.DB) domain.TradingAccountRepository {
	return &tradingAccountRepository{db: db}
}

func (r *tradingAccountRepository) Save(ctx context.Context, account *domain.TradingAccount) error {
	if err := dbFrom(ctx, r.db).Save(account).Error; err != nil {
		logging.Error(ctx, "failed to save trading account", "name", account.Name, "error", err)
		return err
	}
	return nil
}

func (r *tradingAccountRepository) Get(ctx context.Context, id uint) (*domain.TradingAccount, error) {
	var account domain.TradingAccount
	err := dbFrom(ctx, r.db).First(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *tradingAccountRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.TradingAccount, error) {
	var accounts []*domain.TradingAccount
	if err := dbFrom(ctx, r.db).Where("user_id = ?", userID).Order("id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *tradingAccountRepository) Delete(ctx context.Context, id uint) error {
	return dbFrom(ctx, r.db).Delete(&domain.TradingAccount{}, id).Error
}

// --- AccountRepository ---

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	return dbFrom(ctx, r.db).Create(account).Error
}

func (r *accountRepository) GetByNumber(ctx context.Context, tradingAccountID uint, number string) (*domain.Account, error) {
	var account domain.Account
	err := dbFrom(ctx, r.db).
		Where("trading_account_id = ? AND number = ?", tradingAccountID, number).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logging.Error(ctx, "failed to get account by number", "trading_account_id", tradingAccountID, "number", number, "error", err)
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByCounterparty(ctx context.Context, tradingAccountID, counterpartyUserID uint) (*domain.Account, error) {
	var account domain.Account
	err := dbFrom(ctx, r.db).
		Where("trading_account_id = ? AND counterparty_user_id = ?", tradingAccountID, counterpartyUserID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) ListByTradingAccount(ctx context.Context, tradingAccountID uint) ([]*domain.Account, error) {
	var accounts []*domain.Account
	if err := dbFrom(ctx, r.db).
		Where("trading_account_id = ?", tradingAccountID).
		Order("number").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) DeleteByTradingAccount(ctx context.Context, tradingAccountID uint) error {
	return dbFrom(ctx, r.db).
		Where("trading_account_id = ?", tradingAccountID).
		Delete(&domain.Account{}).Error
}

// --- JournalRepository ---

type journalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) domain.JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) CreateEntry(ctx context.Context, entry *domain.JournalEntry) error {
	if err := dbFrom(ctx, r.db).Create(entry).Error; err != nil {
		logging.Error(ctx, "failed to create journal entry", "entry_no", entry.EntryNo, "error", err)
		return err
	}
	return nil
}

type totalsRow struct {
	AccountID uint            `gorm:"column:account_id"`
	Debit     decimal.Decimal `gorm:"column:debit"`
	Credit    decimal.Decimal `gorm:"column:credit"`
}

func (r *journalRepository) TotalsForAccount(ctx context.Context, accountID uint) (domain.AccountTotals, error) {
	var row totalsRow
	q := lockForUpdate(dbFrom(ctx, r.db)).
		Model(&domain.JournalEntryLine{}).
		Select("COALESCE(SUM(debit_amount), 0) AS debit, COALESCE(SUM(credit_amount), 0) AS credit").
		Where("account_id = ?", accountID)
	if err := q.Scan(&row).Error; err != nil {
		return domain.AccountTotals{}, err
	}
	return domain.AccountTotals{Debit: row.Debit, Credit: row.Credit}, nil
}

func (r *journalRepository) TotalsForAccounts(ctx context.Context, accountIDs []uint) (map[uint]domain.AccountTotals, error) {
	totals := make(map[uint]domain.AccountTotals, len(accountIDs))
	if len(accountIDs) == 0 {
		return totals, nil
	}

	var rows []totalsRow
	err := dbFrom(ctx, r.db).
		Model(&domain.JournalEntryLine{}).
		Select("account_id, COALESCE(SUM(debit_amount), 0) AS debit, COALESCE(SUM(credit_amount), 0) AS credit").
		Where("account_id IN ?", accountIDs).
		Group("account_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		totals[row.AccountID] = domain.AccountTotals{Debit: row.Debit, Credit: row.Credit}
	}
	return totals, nil
}

func (r *journalRepository) LinesForAccounts(ctx context.Context, accountIDs []uint, start, end *time.Time) ([]*domain.JournalEntryLine, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	q := dbFrom(ctx, r.db).
		Model(&domain.JournalEntryLine{}).
		Joins("JOIN journal_entries ON journal_entries.id = journal_entry_lines.journal_entry_id AND journal_entries.deleted_at IS NULL").
		Where("journal_entry_lines.account_id IN ?", accountIDs).
		Preload("Account")
	if start != nil {
		q = q.Where("journal_entries.entry_date >= ?", *start)
	}
	if end != nil {
		q = q.Where("journal_entries.entry_date <= ?", *end)
	}

	var lines []*domain.JournalEntryLine
	if err := q.Order("journal_entry_lines.id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *journalRepository) DeleteByAccounts(ctx context.Context, accountIDs []uint) error {
	if len(accountIDs) == 0 {
		return nil
	}
	db := dbFrom(ctx, r.db)

	// 触及这些科目的所有凭证整体删除，先删分录行再删凭证头，
	// 跨交易账户的调拨凭证也连同其对侧分录一并移除。
	var entryIDs []uint
	if err := db.Model(&domain.JournalEntryLine{}).
		Where("account_id IN ?", accountIDs).
		Distinct().
		Pluck("journal_entry_id", &entryIDs).Error; err != nil {
		return err
	}
	if len(entryIDs) == 0 {
		return nil
	}

	if err := db.Where("journal_entry_id IN ?", entryIDs).Delete(&domain.JournalEntryLine{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", entryIDs).Delete(&domain.JournalEntry{}).Error
}

// --- UserRepository ---

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	return dbFrom(ctx, r.db).Save(user).Error
}

func (r *userRepository) Get(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := dbFrom(ctx, r.db).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
