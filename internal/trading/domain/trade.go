// 包 domain 衍生品交易的领域模型：开仓 / 平仓状态机。
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	refdata "github.com/wyfcoding/tradingledger/internal/referencedata/domain"
	"gorm.io/gorm"
)

var (
	ErrAssetKindMismatch = errors.New("asset kind does not match the requested operation")
	ErrAlreadyClosed     = errors.New("trade is already closed")
	ErrTradeNotFound     = errors.New("trade not found")
)

// TradeStatus 交易状态
type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
)

// TradeSide 持仓方向
type TradeSide string

const (
	SideLong  TradeSide = "LONG"
	SideShort TradeSide = "SHORT"
)

// Trade 一笔衍生品持仓。
// 经 open-trade 创建为 OPEN，经 close-trade 恰好一次转为 CLOSED，
// 平仓同时触发过账；对已平仓交易再次平仓是错误。
type Trade struct {
	gorm.Model
	TradingAccountID uint        `gorm:"column:trading_account_id;index;not null" json:"trading_account_id"`
	AssetID          uint        `gorm:"column:asset_id;index;not null" json:"asset_id"`
	Status           TradeStatus `gorm:"column:status;type:varchar(10);index;not null" json:"status"`
	Side             TradeSide   `gorm:"column:side;type:varchar(10);not null" json:"side"`
	// 数量与开仓价
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(20,8);not null" json:"quantity"`
	EntryPrice decimal.Decimal `gorm:"column:entry_price;type:decimal(20,8);not null" json:"entry_price"`
	EntryDate  time.Time       `gorm:"column:entry_date;index;not null" json:"entry_date"`
	// 以下字段仅在平仓时填充
	ExitPrice             decimal.Decimal `gorm:"column:exit_price;type:decimal(20,8);default:0;not null" json:"exit_price"`
	ExitDate              *time.Time      `gorm:"column:exit_date" json:"exit_date"`
	ExitNotes             string          `gorm:"column:exit_notes;type:text" json:"exit_notes"`
	GrossPnL              decimal.Decimal `gorm:"column:gross_pnl;type:decimal(20,2);default:0;not null" json:"gross_pnl"`
	BrokerCommission      decimal.Decimal `gorm:"column:broker_commission;type:decimal(20,2);default:0;not null" json:"broker_commission"`
	TraderCommission      decimal.Decimal `gorm:"column:trader_commission;type:decimal(20,2);default:0;not null" json:"trader_commission"`
	CommissionRecipientID *uint           `gorm:"column:commission_recipient_id" json:"commission_recipient_id"`

	Asset *refdata.Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:RESTRICT" json:"asset,omitempty"`
}

func (Trade) TableName() string { return "trades" }

// Close 把交易转为 CLOSED 并写入平仓字段。状态转换恰好发生一次。
func (t *Trade) Close(exitPrice decimal.Decimal, exitDate time.Time, exitNotes string, grossPnL, brokerCommission, traderCommission decimal.Decimal, recipientID *uint) error {
	if t.Status == StatusClosed {
		return ErrAlreadyClosed
	}
	t.Status = StatusClosed
	t.ExitPrice = exitPrice
	t.ExitDate = &exitDate
	t.ExitNotes = exitNotes
	t.GrossPnL = grossPnL
	t.BrokerCommission = brokerCommission
	t.TraderCommission = traderCommission
	t.CommissionRecipientID = recipientID
	return nil
}

// TradeRepository 交易仓储接口
type TradeRepository interface {
	Save(ctx context.Context, trade *Trade) error
	// Get 按主键获取，不存在时返回 (nil, nil)，事务内带行锁
	Get(ctx context.Context, id uint) (*Trade, error)
	ListByTradingAccount(ctx context.Context, tradingAccountID uint, status *TradeStatus) ([]*Trade, error)
	DeleteByTradingAccount(ctx context.Context, tradingAccountID uint) error
}
