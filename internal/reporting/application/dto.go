package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountLine 报表中的单科目行。
type AccountLine struct {
	AccountID uint            `json:"account_id"`
	Number    string          `json:"number"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// IncomeStatement 利润表：期间内收入按贷减借、费用按借减贷汇总。
type IncomeStatement struct {
	TradingAccountID uint            `json:"trading_account_id"`
	Start            *time.Time      `json:"start,omitempty"`
	End              *time.Time      `json:"end,omitempty"`
	Revenues         []AccountLine   `json:"revenues"`
	Expenses         []AccountLine   `json:"expenses"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	NetIncome        decimal.Decimal `json:"net_income"`
}

// BalanceSheet 资产负债表。留存收益取自损益科目轧差，
// 恒等式 资产 = 负债 + 权益 + 留存收益 必须成立。
type BalanceSheet struct {
	TradingAccountID uint            `json:"trading_account_id"`
	Assets           []AccountLine   `json:"assets"`
	Liabilities      []AccountLine   `json:"liabilities"`
	Equity           []AccountLine   `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	RetainedIncome   decimal.Decimal `json:"retained_income"`
	Balanced         bool            `json:"balanced"`
}

// TrialBalanceRow 试算平衡表的一行。余额按正常方向落入借方列或贷方列。
type TrialBalanceRow struct {
	AccountID uint              `json:"account_id"`
	Number    string            `json:"number"`
	Name      string            `json:"name"`
	Kind      string            `json:"kind"`
	Depth     int               `json:"depth"`
	Debit     decimal.Decimal   `json:"debit"`
	Credit    decimal.Decimal   `json:"credit"`
	Children  []TrialBalanceRow `json:"children,omitempty"`
}

// TrialBalance 试算平衡表：借方列合计与贷方列合计必须相等。
type TrialBalance struct {
	TradingAccountID uint              `json:"trading_account_id"`
	Rows             []TrialBalanceRow `json:"rows"`
	TotalDebit       decimal.Decimal   `json:"total_debit"`
	TotalCredit      decimal.Decimal   `json:"total_credit"`
	Balanced         bool              `json:"balanced"`
}

// SpotPositionPnL 某标的现货持仓的浮动盈亏行。
// 缺报价时 Priced=false，该行按零贡献计入合计。
type SpotPositionPnL struct {
	AssetID       uint            `json:"asset_id"`
	AssetSymbol   string          `json:"asset_symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	Priced        bool            `json:"priced"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// UnrealizedPnLReport 现货持仓批次的浮动盈亏合计。
type UnrealizedPnLReport struct {
	TradingAccountID uint              `json:"trading_account_id"`
	Positions        []SpotPositionPnL `json:"positions"`
	Total            decimal.Decimal   `json:"total"`
}

// OpenTradePnL 未平仓衍生品交易的浮动盈亏行。
type OpenTradePnL struct {
	TradeID       uint            `json:"trade_id"`
	AssetSymbol   string          `json:"asset_symbol"`
	Side          string          `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	EntryPrice    decimal.Decimal `json:"entry_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// OpenTradePnLReport 全部未平仓衍生品交易的浮动盈亏。
type OpenTradePnLReport struct {
	TradingAccountID uint            `json:"trading_account_id"`
	Trades           []OpenTradePnL  `json:"trades"`
	Total            decimal.Decimal `json:"total"`
}

// SpotHolding 现货持仓汇总行：数量合计与剩余成本加权的平均成本。
type SpotHolding struct {
	AssetID       uint            `json:"asset_id"`
	AssetSymbol   string          `json:"asset_symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}
