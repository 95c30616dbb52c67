// 包 persistence 批次仓储的 GORM 实现。
package persistence

import (
	"context"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/tradingledger/internal/inventory/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type lotRepository struct {
	db *gorm.DB
}

func NewLotRepository(db *gorm.DB) domain.LotRepository {
	return &lotRepository{db: db}
}

func (r *lotRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *lotRepository) Create(ctx context.Context, lot *domain.AssetLot) error {
	if err := r.getDB(ctx).Create(lot).Error; err != nil {
		logging.Error(ctx, "failed to create asset lot", "trading_account_id", lot.TradingAccountID, "asset_id", lot.AssetID, "error", err)
		return err
	}
	return nil
}

func (r *lotRepository) Update(ctx context.Context, lot *domain.AssetLot) error {
	return r.getDB(ctx).Model(lot).
		Update("remaining_quantity", lot.RemainingQuantity).Error
}

// OpenLots FIFO 读路径。两个并发卖出不得同时读到同一份可用量，
// mysql 上对触及的批次行加 FOR UPDATE 锁。
func (r *lotRepository) OpenLots(ctx context.Context, tradingAccountID, assetID uint) ([]*domain.AssetLot, error) {
	db := r.getDB(ctx)
	if db.Dialector.Name() == "mysql" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var lots []*domain.AssetLot
	err := db.
		Where("trading_account_id = ? AND asset_id = ? AND remaining_quantity > 0", tradingAccountID, assetID).
		Order("purchase_date ASC, id ASC").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *lotRepository) OpenLotsByTradingAccount(ctx context.Context, tradingAccountID uint) ([]*domain.AssetLot, error) {
	var lots []*domain.AssetLot
	err := r.getDB(ctx).
		Where("trading_account_id = ? AND remaining_quantity > 0", tradingAccountID).
		Order("purchase_date ASC, id ASC").
		Preload("Asset").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *lotRepository) DeleteByTradingAccount(ctx context.Context, tradingAccountID uint) error {
	return r.getDB(ctx).
		Where("trading_account_id = ?", tradingAccountID).
		Delete(&domain.AssetLot{}).Error
}
