// 包 application 实现记账核心的应用服务：过账原语、科目惰性供给与科目表构建。
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/tradingledger/internal/ledger/domain"
	"gorm.io/gorm"
)

// isDuplicateKey 唯一键冲突判定。同时识别已翻译的 gorm 错误
// 与原生 mysql 1062，不依赖连接是否开启 TranslateError。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// LedgerService 账本写路径的唯一入口。
// 所有交易服务最终都通过 Post 落账；Post 本身不开启事务，
// 由调用方通过 contextx 传入事务上下文。
type LedgerService struct {
	accounts        domain.AccountRepository
	journal         domain.JournalRepository
	tradingAccounts domain.TradingAccountRepository
	users           domain.UserRepository
	publisher       domain.EntryPublisher
}

func NewLedgerService(
	accounts domain.AccountRepository,
	journal domain.JournalRepository,
	tradingAccounts domain.TradingAccountRepository,
	users domain.UserRepository,
	publisher domain.EntryPublisher,
) *LedgerService {
	return &LedgerService{
		accounts:        accounts,
		journal:         journal,
		tradingAccounts: tradingAccounts,
		users:           users,
		publisher:       publisher,
	}
}

// Post 过账原语：校验分录平衡后原子持久化一张凭证及其全部分录行。
// 借贷合计必须严格相等，否则拒绝整张凭证。
func (s *LedgerService) Post(ctx context.Context, entryDate time.Time, description string, postedByID *uint, lines []domain.JournalEntryLine) (*domain.JournalEntry, error) {
	if err := domain.ValidateLines(lines); err != nil {
		return nil, err
	}

	entry := &domain.JournalEntry{
		EntryNo:     fmt.Sprintf("JE-%d", idgen.GenID()),
		EntryDate:   entryDate,
		Description: description,
		PostedByID:  postedByID,
		Lines:       lines,
	}

	if err := s.journal.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// PublishPosted 提交后发布凭证过账事件。发布失败只记日志，不影响已提交的账。
func (s *LedgerService) PublishPosted(ctx context.Context, entry *domain.JournalEntry) {
	if s.publisher == nil || entry == nil {
		return
	}
	if err := s.publisher.PublishEntryPosted(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to publish entry posted event", "entry_no", entry.EntryNo, "error", err)
	}
}

// MustGetAccount 按编号定位科目；缺失视为科目表未初始化。
func (s *LedgerService) MustGetAccount(ctx context.Context, tradingAccountID uint, number string) (*domain.Account, error) {
	account, err := s.accounts.GetByNumber(ctx, tradingAccountID, number)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %s for trading account %d", domain.ErrAccountingNotConfigured, number, tradingAccountID)
	}
	return account, nil
}

// EnsureAccount 查找或创建科目（运行期惰性供给，如现货平仓损益科目）。
// 并发安全性由 (trading_account_id, number) 唯一索引保证：
// 撞到唯一键冲突时重新读取即可。
func (s *LedgerService) EnsureAccount(ctx context.Context, ta *domain.TradingAccount, number, name string, kind domain.AccountKind, parentID *uint) (*domain.Account, error) {
	account, err := s.accounts.GetByNumber(ctx, ta.ID, number)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	taID := ta.ID
	account = &domain.Account{
		Number:           number,
		Name:             name,
		Kind:             kind,
		ParentID:         parentID,
		TradingAccountID: &taID,
		Active:           true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if isDuplicateKey(err) {
			return s.accounts.GetByNumber(ctx, ta.ID, number)
		}
		return nil, err
	}
	return account, nil
}

// EnsurePayableAccount 查找或创建 "应付某交易员" 负债子科目，
// 按 (交易账户, 对手方用户) 定位，挂在负债根科目 2000 之下。
// 佣金接收方必须具有交易员角色。
func (s *LedgerService) EnsurePayableAccount(ctx context.Context, ta *domain.TradingAccount, trader *domain.User) (*domain.Account, error) {
	if !trader.IsTrader() {
		return nil, domain.ErrNotTrader
	}

	account, err := s.accounts.GetByCounterparty(ctx, ta.ID, trader.ID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	parent, err := s.MustGetAccount(ctx, ta.ID, domain.NumberLiabilitiesRoot)
	if err != nil {
		return nil, err
	}

	taID := ta.ID
	traderID := trader.ID
	parentID := parent.ID
	account = &domain.Account{
		Number:             fmt.Sprintf("2010-%d", trader.ID),
		Name:               fmt.Sprintf("Payable to: %s", trader.Username),
		Kind:               domain.KindLiability,
		ParentID:           &parentID,
		TradingAccountID:   &taID,
		CounterpartyUserID: &traderID,
		Active:             true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if isDuplicateKey(err) {
			return s.accounts.GetByCounterparty(ctx, ta.ID, trader.ID)
		}
		return nil, err
	}
	return account, nil
}

// CashBalance 现金科目当前余额（借方合计 - 贷方合计）。
// 事务内调用时由仓储带行锁读取，防止并发透支。
func (s *LedgerService) CashBalance(ctx context.Context, cashAccountID uint) (t domain.AccountTotals, err error) {
	return s.journal.TotalsForAccount(ctx, cashAccountID)
}
