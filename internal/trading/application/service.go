// 包 application 实现交易记账服务：资金收付、现货买卖、衍生品开平仓。
// 每个写操作在单个数据库事务内完成批次变动、凭证过账与状态落库。
package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	invapp "github.com/wyfcoding/tradingledger/internal/inventory/application"
	ledgerapp "github.com/wyfcoding/tradingledger/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
	refdomain "github.com/wyfcoding/tradingledger/internal/referencedata/domain"
	"github.com/wyfcoding/tradingledger/internal/trading/domain"
	"gorm.io/gorm"
)

// TradingService 交易上下文的应用服务。
// 组合账本服务与批次管理器，负责把业务动作翻译成平衡的记账凭证。
type TradingService struct {
	db              *gorm.DB
	ledger          *ledgerapp.LedgerService
	lots            *invapp.LotManager
	trades          domain.TradeRepository
	assets          refdomain.AssetRepository
	tradingAccounts ledgerdomain.TradingAccountRepository
	accounts        ledgerdomain.AccountRepository
	journal         ledgerdomain.JournalRepository
	users           ledgerdomain.UserRepository
}

func NewTradingService(
	db *gorm.DB,
	ledger *ledgerapp.LedgerService,
	lots *invapp.LotManager,
	trades domain.TradeRepository,
	assets refdomain.AssetRepository,
	tradingAccounts ledgerdomain.TradingAccountRepository,
	accounts ledgerdomain.AccountRepository,
	journal ledgerdomain.JournalRepository,
	users ledgerdomain.UserRepository,
) *TradingService {
	return &TradingService{
		db:              db,
		ledger:          ledger,
		lots:            lots,
		trades:          trades,
		assets:          assets,
		tradingAccounts: tradingAccounts,
		accounts:        accounts,
		journal:         journal,
		users:           users,
	}
}

// inTx 在单个数据库事务内执行 fn，事务句柄通过 contextx 下传给各仓储。
func (s *TradingService) inTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

// mustGetTradingAccount 交易账户必须存在。
func (s *TradingService) mustGetTradingAccount(ctx context.Context, id uint) (*ledgerdomain.TradingAccount, error) {
	ta, err := s.tradingAccounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ta == nil {
		return nil, fmt.Errorf("%w: trading account %d", ledgerdomain.ErrNotFound, id)
	}
	return ta, nil
}

// mustGetAsset 标的必须存在且类别匹配。
func (s *TradingService) mustGetAsset(ctx context.Context, id uint, kind refdomain.AssetKind) (*refdomain.Asset, error) {
	asset, err := s.assets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: asset %d", refdomain.ErrAssetNotFound, id)
	}
	if asset.Kind != kind {
		return nil, fmt.Errorf("%w: asset %s is %s", domain.ErrAssetKindMismatch, asset.Symbol, asset.Kind)
	}
	return asset, nil
}

// cashBalance 现金科目当前余额（借方合计 - 贷方合计）。
func (s *TradingService) cashBalance(ctx context.Context, cashAccountID uint) (decimal.Decimal, error) {
	totals, err := s.ledger.CashBalance(ctx, cashAccountID)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Debit.Sub(totals.Credit), nil
}

// requireCash 余额必须覆盖本次支出。
func (s *TradingService) requireCash(ctx context.Context, cashAccountID uint, amount decimal.Decimal) error {
	balance, err := s.cashBalance(ctx, cashAccountID)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, requested %s", ledgerdomain.ErrInsufficientFunds, balance.String(), amount.String())
	}
	return nil
}

// money 金额统一保留两位小数入账。
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
