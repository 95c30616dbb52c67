// 包 application 实现 FIFO 批次管理：建仓与最旧优先的消耗。
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/tradingledger/internal/inventory/domain"
)

// LotManager 批次管理器。
// 批次状态只在这里发生变化；本身不触碰账本，
// 由交易服务把建仓 / 消耗与过账组合进同一个事务。
type LotManager struct {
	lots domain.LotRepository
}

func NewLotManager(lots domain.LotRepository) *LotManager {
	return &LotManager{lots: lots}
}

// Acquire 建立一个新批次，remaining = quantity。不产生任何账务。
func (m *LotManager) Acquire(ctx context.Context, tradingAccountID, assetID uint, quantity, unitCost decimal.Decimal, purchaseDate time.Time) (*domain.AssetLot, error) {
	if !quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if !unitCost.IsPositive() {
		return nil, domain.ErrInvalidUnitCost
	}

	lot := &domain.AssetLot{
		AssetID:           assetID,
		TradingAccountID:  tradingAccountID,
		Quantity:          quantity,
		UnitCost:          unitCost,
		PurchaseDate:      purchaseDate,
		RemainingQuantity: quantity,
	}
	if err := m.lots.Create(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// Consume 按 FIFO 消耗指定数量，返回被消耗部分的总成本（销货成本）。
// 可用量不足时整体失败，不做部分扣减。必须在调用方事务内执行。
func (m *LotManager) Consume(ctx context.Context, tradingAccountID, assetID uint, quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, domain.ErrInvalidQuantity
	}

	lots, err := m.lots.OpenLots(ctx, tradingAccountID, assetID)
	if err != nil {
		return decimal.Zero, err
	}

	available := decimal.Zero
	for _, lot := range lots {
		available = available.Add(lot.RemainingQuantity)
	}
	if available.LessThan(quantity) {
		slog.WarnContext(ctx, "lot consumption rejected",
			"trading_account_id", tradingAccountID,
			"asset_id", assetID,
			"available", available.String(),
			"requested", quantity.String())
		return decimal.Zero, domain.ErrInsufficientQuantity
	}

	needed := quantity
	cost := decimal.Zero
	for _, lot := range lots {
		if !needed.IsPositive() {
			break
		}
		taken, lotCost := lot.Take(needed)
		cost = cost.Add(lotCost)
		needed = needed.Sub(taken)
		if err := m.lots.Update(ctx, lot); err != nil {
			return decimal.Zero, err
		}
	}
	return cost, nil
}

// Available 某 (交易账户, 标的) 的可用数量合计。
func (m *LotManager) Available(ctx context.Context, tradingAccountID, assetID uint) (decimal.Decimal, error) {
	lots, err := m.lots.OpenLots(ctx, tradingAccountID, assetID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.RemainingQuantity)
	}
	return total, nil
}

// OpenLots 交易账户下全部未耗尽批次（报表用，预加载标的）。
func (m *LotManager) OpenLots(ctx context.Context, tradingAccountID uint) ([]*domain.AssetLot, error) {
	return m.lots.OpenLotsByTradingAccount(ctx, tradingAccountID)
}

// PurgeTradingAccount 删除交易账户下全部批次（账户级联删除用）。
func (m *LotManager) PurgeTradingAccount(ctx context.Context, tradingAccountID uint) error {
	return m.lots.DeleteByTradingAccount(ctx, tradingAccountID)
}
