// 包 persistence 交易仓储的 GORM 实现。
package persistence

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/tradingledger/internal/trading/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository(db *gorm.DB) domain.TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *tradeRepository) Save(ctx context.Context, trade *domain.Trade) error {
	if err := r.getDB(ctx).Save(trade).Error; err != nil {
		logging.Error(ctx, "failed to save trade", "trade_id", trade.ID, "error", err)
		return err
	}
	return nil
}

// Get 平仓走 check-then-act（读状态再改状态），mysql 上对交易行加锁，
// 防止并发双重平仓。
func (r *tradeRepository) Get(ctx context.Context, id uint) (*domain.Trade, error) {
	db := r.getDB(ctx)
	if db.Dialector.Name() == "mysql" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var trade domain.Trade
	err := db.First(&trade, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *tradeRepository) ListByTradingAccount(ctx context.Context, tradingAccountID uint, status *domain.TradeStatus) ([]*domain.Trade, error) {
	q := r.getDB(ctx).
		Where("trading_account_id = ?", tradingAccountID).
		Preload("Asset").
		Order("entry_date DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var trades []*domain.Trade
	if err := q.Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *tradeRepository) DeleteByTradingAccount(ctx context.Context, tradingAccountID uint) error {
	return r.getDB(ctx).
		Where("trading_account_id = ?", tradingAccountID).
		Delete(&domain.Trade{}).Error
}
