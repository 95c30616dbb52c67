// 包 domain 记账核心的领域模型：交易账户、会计科目与复式记账凭证。
package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MarketKind 交易账户所属市场
type MarketKind string

const (
	MarketCrypto MarketKind = "CRYPTO"
	MarketForex  MarketKind = "FOREX"
)

// AccountPurpose 交易账户用途（现货 / 合约）
type AccountPurpose string

const (
	PurposeSpot    AccountPurpose = "SPOT"
	PurposeFutures AccountPurpose = "FUTURES"
)

// AccountKind 会计科目五大类别
type AccountKind string

const (
	KindAsset     AccountKind = "ASSET"
	KindLiability AccountKind = "LIABILITY"
	KindEquity    AccountKind = "EQUITY"
	KindRevenue   AccountKind = "REVENUE"
	KindExpense   AccountKind = "EXPENSE"
)

// 固定科目编号。交易服务按编号定位科目，编号在单个交易账户内唯一。
const (
	NumberAssetsRoot          = "1000"
	NumberCash                = "1010"
	NumberAssetHoldings       = "1020"
	NumberDerivativeContracts = "1030"
	NumberMargin              = "1040"
	NumberLiabilitiesRoot     = "2000"
	NumberEquityRoot          = "3000"
	NumberUserCapital         = "3010"
	NumberRevenuesRoot        = "4000"
	NumberRealizedPnL         = "4010"
	NumberRealizedSpotGain    = "4015"
	NumberCommissionIncome    = "4020"
	NumberFundingIncome       = "4030"
	NumberExpensesRoot        = "5000"
	NumberCommissionExpense   = "5010"
	NumberRealizedSpotLoss    = "5015"
	NumberTradingFees         = "5020"
	NumberInterestExpense     = "5030"
)

// TradingAccount 交易账户实体
// 每个交易账户是一个独立的记账范围，拥有自己的科目表、持仓批次与交易记录。
type TradingAccount struct {
	gorm.Model
	// 账户所有者
	UserID uint `gorm:"column:user_id;index;not null" json:"user_id"`
	// 展示名称（如 "Binance Account"）
	Name string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	// 市场类别（CRYPTO / FOREX）
	MarketKind MarketKind `gorm:"column:market_kind;type:varchar(20);not null" json:"market_kind"`
	// 账户用途（SPOT / FUTURES）
	Purpose AccountPurpose `gorm:"column:purpose;type:varchar(20);not null" json:"purpose"`
}

func (TradingAccount) TableName() string { return "trading_accounts" }

// Account 会计科目实体（科目表节点）
// 通过可空的 ParentID 构成树形结构，通过可空的 TradingAccountID 区分
// 账户内科目与全局共享科目。
type Account struct {
	gorm.Model
	// 科目编号，同一交易账户范围内唯一
	Number string `gorm:"column:number;type:varchar(50);not null;uniqueIndex:uk_scope_number" json:"number"`
	// 科目名称
	Name string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	// 科目类别，决定正常余额方向
	Kind AccountKind `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	// 父科目（可空，自引用）
	ParentID *uint `gorm:"column:parent_id;index" json:"parent_id"`
	// 所属交易账户（空表示全局科目）
	TradingAccountID *uint `gorm:"column:trading_account_id;uniqueIndex:uk_scope_number" json:"trading_account_id"`
	// 对手方用户（用于 "应付某交易员" 之类的往来子科目）
	CounterpartyUserID *uint `gorm:"column:counterparty_user_id;index" json:"counterparty_user_id"`
	// 是否启用
	Active bool `gorm:"column:active;default:true;not null" json:"active"`
}

func (Account) TableName() string { return "accounts" }

// DebitNormal 判断科目是否为借方余额科目。
// 资产与费用类科目借方为正常余额，其余为贷方。
func (a *Account) DebitNormal() bool {
	return a.Kind == KindAsset || a.Kind == KindExpense
}

// SignedBalance 按正常余额方向计算科目余额。
func (a *Account) SignedBalance(totalDebit, totalCredit decimal.Decimal) decimal.Decimal {
	if a.DebitNormal() {
		return totalDebit.Sub(totalCredit)
	}
	return totalCredit.Sub(totalDebit)
}
