package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/tradingledger/internal/ledger/domain"
	"gorm.io/gorm"
)

// chartNode 科目表模板节点。根节点名称带 %s 占位，替换为交易账户显示名。
type chartNode struct {
	number   string
	name     string
	kind     domain.AccountKind
	children []chartNode
}

// chartTemplate 新建交易账户时实例化的固定科目层级。
var chartTemplate = []chartNode{
	{
		number: domain.NumberAssetsRoot, name: "Assets (%s)", kind: domain.KindAsset,
		children: []chartNode{
			{number: domain.NumberCash, name: "Cash", kind: domain.KindAsset},
			{number: domain.NumberAssetHoldings, name: "Asset Holdings", kind: domain.KindAsset},
			{number: domain.NumberDerivativeContracts, name: "Derivative Contracts", kind: domain.KindAsset},
			{number: domain.NumberMargin, name: "Margin", kind: domain.KindAsset},
		},
	},
	{
		number: domain.NumberLiabilitiesRoot, name: "Liabilities (%s)", kind: domain.KindLiability,
	},
	{
		number: domain.NumberEquityRoot, name: "Equity (%s)", kind: domain.KindEquity,
		children: []chartNode{
			{number: domain.NumberUserCapital, name: "User Capital", kind: domain.KindEquity},
		},
	},
	{
		number: domain.NumberRevenuesRoot, name: "Revenues (%s)", kind: domain.KindRevenue,
		children: []chartNode{
			{number: domain.NumberRealizedPnL, name: "Realized PnL", kind: domain.KindRevenue},
			{number: domain.NumberCommissionIncome, name: "Commission Income", kind: domain.KindRevenue},
			{number: domain.NumberFundingIncome, name: "Funding Income", kind: domain.KindRevenue},
		},
	},
	{
		number: domain.NumberExpensesRoot, name: "Expenses (%s)", kind: domain.KindExpense,
		children: []chartNode{
			{number: domain.NumberCommissionExpense, name: "Commission Expense", kind: domain.KindExpense},
			{number: domain.NumberTradingFees, name: "Trading Fees", kind: domain.KindExpense},
			{number: domain.NumberInterestExpense, name: "Interest Expense", kind: domain.KindExpense},
		},
	},
}

// ChartBuilder 交易账户与科目表构建服务。
type ChartBuilder struct {
	db              *gorm.DB
	tradingAccounts domain.TradingAccountRepository
	accounts        domain.AccountRepository
}

func NewChartBuilder(db *gorm.DB, tradingAccounts domain.TradingAccountRepository, accounts domain.AccountRepository) *ChartBuilder {
	return &ChartBuilder{db: db, tradingAccounts: tradingAccounts, accounts: accounts}
}

// CreateTradingAccount 创建交易账户并实例化其科目表模板，单事务完成。
// 对同一账户重复构建会撞 (trading_account_id, number) 唯一索引而失败，
// 调用方不应重试。
func (b *ChartBuilder) CreateTradingAccount(ctx context.Context, userID uint, name string, market domain.MarketKind, purpose domain.AccountPurpose) (*domain.TradingAccount, error) {
	if name == "" {
		return nil, fmt.Errorf("trading account name is required")
	}

	account := &domain.TradingAccount{
		UserID:     userID,
		Name:       name,
		MarketKind: market,
		Purpose:    purpose,
	}

	err := b.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)

		if err := b.tradingAccounts.Save(txCtx, account); err != nil {
			return err
		}
		return b.BuildChart(txCtx, account)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create trading account", "user_id", userID, "name", name, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "trading account created", "trading_account_id", account.ID, "name", name)
	return account, nil
}

// BuildChart 为已存在的交易账户实例化科目表，父科目先于子科目创建。
func (b *ChartBuilder) BuildChart(ctx context.Context, ta *domain.TradingAccount) error {
	for _, root := range chartTemplate {
		if err := b.createNode(ctx, ta, root, nil); err != nil {
			return err
		}
	}
	return nil
}

func (b *ChartBuilder) createNode(ctx context.Context, ta *domain.TradingAccount, node chartNode, parentID *uint) error {
	name := node.name
	if parentID == nil {
		name = fmt.Sprintf(node.name, ta.Name)
	}

	taID := ta.ID
	account := &domain.Account{
		Number:           node.number,
		Name:             name,
		Kind:             node.kind,
		ParentID:         parentID,
		TradingAccountID: &taID,
		Active:           true,
	}
	if err := b.accounts.Create(ctx, account); err != nil {
		return fmt.Errorf("create account %s: %w", node.number, err)
	}

	for _, child := range node.children {
		if err := b.createNode(ctx, ta, child, &account.ID); err != nil {
			return err
		}
	}
	return nil
}
