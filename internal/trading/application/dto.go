package application

import (
	"time"

	"github.com/shopspring/decimal"
	refdomain "github.com/wyfcoding/tradingledger/internal/referencedata/domain"
	"github.com/wyfcoding/tradingledger/internal/trading/domain"
)

const (
	refSpot       = refdomain.AssetSpot
	refDerivative = refdomain.AssetDerivative
)

// SpotTradeCommand 现货买入 / 卖出参数。Amount 为买入总成本或卖出总成交额。
type SpotTradeCommand struct {
	TradingAccountID uint
	AssetID          uint
	Quantity         decimal.Decimal
	Amount           decimal.Decimal
	Description      string
	PostedByID       uint
}

// SpotTransferCommand 现货实物入金 / 出金参数，按申报单价计价。
type SpotTransferCommand struct {
	TradingAccountID uint
	AssetID          uint
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	Description      string
	PostedByID       uint
}

// OpenTradeCommand 衍生品开仓参数。
type OpenTradeCommand struct {
	TradingAccountID uint
	AssetID          uint
	Side             domain.TradeSide
	Quantity         decimal.Decimal
	EntryPrice       decimal.Decimal
	EntryDate        time.Time
	PostedByID       uint
}

// CloseTradeCommand 衍生品平仓参数。
// GrossPnL 为平仓毛损益（可正可负可为零），佣金按经纪商 / 交易员两段拆分。
type CloseTradeCommand struct {
	TradeID               uint
	ExitPrice             decimal.Decimal
	ExitDate              time.Time
	ExitNotes             string
	GrossPnL              decimal.Decimal
	BrokerCommission      decimal.Decimal
	TraderCommission      decimal.Decimal
	CommissionRecipientID *uint
	PostedByID            uint
}

// DirectClosedTradeCommand 补录一笔已完结交易：开仓与平仓一步落库。
type DirectClosedTradeCommand struct {
	Open  OpenTradeCommand
	Close CloseTradeCommand
}
