// 包 persistence 参考数据仓储的 GORM 实现。
package persistence

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/tradingledger/internal/referencedata/domain"
	"gorm.io/gorm"
)

func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}

type assetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Save(ctx context.Context, asset *domain.Asset) error {
	return dbFrom(ctx, r.db).Save(asset).Error
}

func (r *assetRepository) Get(ctx context.Context, id uint) (*domain.Asset, error) {
	var asset domain.Asset
	err := dbFrom(ctx, r.db).First(&asset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	var asset domain.Asset
	err := dbFrom(ctx, r.db).Where("symbol = ?", symbol).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	var assets []*domain.Asset
	if err := dbFrom(ctx, r.db).Order("symbol").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

type currencyRepository struct {
	db *gorm.DB
}

func NewCurrencyRepository(db *gorm.DB) domain.CurrencyRepository {
	return &currencyRepository{db: db}
}

func (r *currencyRepository) Save(ctx context.Context, currency *domain.Currency) error {
	return dbFrom(ctx, r.db).Save(currency).Error
}

func (r *currencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	var currency domain.Currency
	err := dbFrom(ctx, r.db).Where("code = ?", code).First(&currency).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *currencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	var currencies []*domain.Currency
	if err := dbFrom(ctx, r.db).Order("code").Find(&currencies).Error; err != nil {
		return nil, err
	}
	return currencies, nil
}
