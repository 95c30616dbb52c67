// 包 application 参考数据的应用服务：标的与币种的登记查询。
package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/tradingledger/internal/referencedata/domain"
)

// ReferenceDataService 参考数据服务。标的类别登记后不可变更。
type ReferenceDataService struct {
	assets     domain.AssetRepository
	currencies domain.CurrencyRepository
}

func NewReferenceDataService(assets domain.AssetRepository, currencies domain.CurrencyRepository) *ReferenceDataService {
	return &ReferenceDataService{assets: assets, currencies: currencies}
}

// RegisterAsset 登记可交易标的。代码重复时失败。
func (s *ReferenceDataService) RegisterAsset(ctx context.Context, symbol, name string, kind domain.AssetKind) (*domain.Asset, error) {
	if symbol == "" {
		return nil, fmt.Errorf("asset symbol is required")
	}
	if kind != domain.AssetSpot && kind != domain.AssetDerivative {
		return nil, fmt.Errorf("unknown asset kind %q", kind)
	}

	asset := &domain.Asset{Symbol: symbol, Name: name, Kind: kind}
	if err := s.assets.Save(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *ReferenceDataService) GetAsset(ctx context.Context, id uint) (*domain.Asset, error) {
	asset, err := s.assets.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: asset %d", domain.ErrAssetNotFound, id)
	}
	return asset, nil
}

func (s *ReferenceDataService) ListAssets(ctx context.Context) ([]*domain.Asset, error) {
	return s.assets.List(ctx)
}

// RegisterCurrency 登记币种。
func (s *ReferenceDataService) RegisterCurrency(ctx context.Context, code, name string) (*domain.Currency, error) {
	if code == "" {
		return nil, fmt.Errorf("currency code is required")
	}
	currency := &domain.Currency{Code: code, Name: name}
	if err := s.currencies.Save(ctx, currency); err != nil {
		return nil, err
	}
	return currency, nil
}

func (s *ReferenceDataService) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	return s.currencies.List(ctx)
}
