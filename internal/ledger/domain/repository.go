package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TradingAccountRepository 交易账户仓储接口
type TradingAccountRepository interface {
	Save(ctx context.Context, account *TradingAccount) error
	// Get 按主键获取，不存在时返回 (nil, nil)
	Get(ctx context.Context, id uint) (*TradingAccount, error)
	ListByUser(ctx context.Context, userID uint) ([]*TradingAccount, error)
	Delete(ctx context.Context, id uint) error
}

// AccountRepository 科目仓储接口
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	// GetByNumber 在单个交易账户范围内按编号获取科目，不存在时返回 (nil, nil)
	GetByNumber(ctx context.Context, tradingAccountID uint, number string) (*Account, error)
	// GetByCounterparty 获取某交易账户下挂在指定对手方用户上的往来科目
	GetByCounterparty(ctx context.Context, tradingAccountID, counterpartyUserID uint) (*Account, error)
	ListByTradingAccount(ctx context.Context, tradingAccountID uint) ([]*Account, error)
	DeleteByTradingAccount(ctx context.Context, tradingAccountID uint) error
}

// AccountTotals 科目借贷发生额合计
type AccountTotals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// JournalRepository 凭证仓储接口
type JournalRepository interface {
	// CreateEntry 持久化凭证及其全部分录行
	CreateEntry(ctx context.Context, entry *JournalEntry) error
	// TotalsForAccount 单科目借贷合计（余额检查的读路径，事务内调用时带行锁）
	TotalsForAccount(ctx context.Context, accountID uint) (AccountTotals, error)
	// TotalsForAccounts 批量借贷合计，key 为科目 ID
	TotalsForAccounts(ctx context.Context, accountIDs []uint) (map[uint]AccountTotals, error)
	// LinesForAccounts 拉取指定科目的分录行，按凭证日期过滤（nil 表示不限），
	// 预加载科目与凭证头
	LinesForAccounts(ctx context.Context, accountIDs []uint, start, end *time.Time) ([]*JournalEntryLine, error)
	// DeleteByAccounts 删除触及任一指定科目的全部凭证（含其在其他科目上的分录行），
	// 先删行再删头，不留下不平衡的残缺凭证
	DeleteByAccounts(ctx context.Context, accountIDs []uint) error
}

// UserRepository 用户仓储接口
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	Get(ctx context.Context, id uint) (*User, error)
}

// EntryPublisher 凭证过账事件发布接口（Kafka 实现，提交后尽力而为）
type EntryPublisher interface {
	PublishEntryPosted(ctx context.Context, entry *JournalEntry) error
}
