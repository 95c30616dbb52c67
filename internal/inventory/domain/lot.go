// 包 domain 现货持仓批次（FIFO 库存）的领域模型。
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
	ErrInvalidQuantity      = errors.New("quantity must be a positive number")
	ErrInvalidUnitCost      = errors.New("unit cost must be a positive number")
	ErrInsufficientQuantity = errors.New("insufficient asset quantity in lots")
)

// AssetLot 一个现货买入批次。
// Quantity 与 UnitCost 建仓后固定；RemainingQuantity 只减不增，
// 部分消耗时原地扣减，批次永不拆行、永不复活。
type AssetLot struct {
	gorm.Model
	AssetID          uint `gorm:"column:asset_id;index:idx_lot_scope;not null" json:"asset_id"`
	TradingAccountID uint `gorm:"column:trading_account_id;index:idx_lot_scope;not null" json:"trading_account_id"`
	// 买入总量
	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(20,8);not null" json:"quantity"`
	// 单位成本（基础货币）
	UnitCost decimal.Decimal `gorm:"column:unit_cost;type:decimal(20,8);not null" json:"unit_cost"`
	// 买入时间，FIFO 消耗顺序键
	PurchaseDate time.Time `gorm:"column:purchase_date;index;not null" json:"purchase_date"`
	// 剩余数量，0 <= remaining <= quantity
	RemainingQuantity decimal.Decimal `gorm:"column:remaining_quantity;type:decimal(20,8);not null" json:"remaining_quantity"`

	Asset *refdata.Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:RESTRICT" json:"asset,omitempty"`
}

func (AssetLot) TableName() string { return "asset_lots" }

// Take 从批次中扣减数量，返回实际扣减量与对应成本。
func (l *AssetLot) Take(wanted decimal.Decimal) (taken, cost decimal.Decimal) {
	taken = decimal.Min(l.RemainingQuantity, wanted)
	cost = taken.Mul(l.UnitCost)
	l.RemainingQuantity = l.RemainingQuantity.Sub(taken)
	return taken, cost
}

// LotRepository 批次仓储接口
type LotRepository interface {
	Create(ctx context.Context, lot *AssetLot) error
	// Update 持久化 remaining_quantity 的原地扣减
	Update(ctx context.Context, lot *AssetLot) error
	// OpenLots 某 (交易账户, 标的) 下 remaining > 0 的批次，
	// 按 purchase_date 升序、id 升序（FIFO，平手时以 id 保证稳定），事务内带行锁
	OpenLots(ctx context.Context, tradingAccountID, assetID uint) ([]*AssetLot, error)
	// OpenLotsByTradingAccount 交易账户下全部未耗尽批次，预加载标的
	OpenLotsByTradingAccount(ctx context.Context, tradingAccountID uint) ([]*AssetLot, error)
	DeleteByTradingAccount(ctx context.Context, tradingAccountID uint) error
}
