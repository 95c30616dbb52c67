// 包 domain 交易标的与币种的参考数据模型。
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrCurrencyNotFound = errors.New("currency not found")
)

// AssetKind 标的类别，创建后不可变更。
// 现货服务拒绝衍生品标的，反之亦然。
type AssetKind string

const (
	AssetSpot       AssetKind = "SPOT"
	AssetDerivative AssetKind = "DERIVATIVE"
)

// Asset 可交易标的
type Asset struct {
	gorm.Model
	Symbol string    `gorm:"column:symbol;type:varchar(50);uniqueIndex;not null" json:"symbol"`
	Name   string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Kind   AssetKind `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
}

func (Asset) TableName() string { return "assets" }

func (a *Asset) IsSpot() bool       { return a.Kind == AssetSpot }
func (a *Asset) IsDerivative() bool { return a.Kind == AssetDerivative }

// Currency 币种参考数据
type Currency struct {
	gorm.Model
	Code string `gorm:"column:code;type:varchar(10);uniqueIndex;not null" json:"code"`
	Name string `gorm:"column:name;type:varchar(50);not null" json:"name"`
}

func (Currency) TableName() string { return "currencies" }

// AssetRepository 标的仓储接口
type AssetRepository interface {
	Save(ctx context.Context, asset *Asset) error
	// Get 按主键获取，不存在时返回 (nil, nil)
	Get(ctx context.Context, id uint) (*Asset, error)
	GetBySymbol(ctx context.Context, symbol string) (*Asset, error)
	List(ctx context.Context) ([]*Asset, error)
}

// CurrencyRepository 币种仓储接口
type CurrencyRepository interface {
	Save(ctx context.Context, currency *Currency) error
	GetByCode(ctx context.Context, code string) (*Currency, error)
	List(ctx context.Context) ([]*Currency, error)
}
