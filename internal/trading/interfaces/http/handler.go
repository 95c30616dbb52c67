// 包 http 交易与报表的 HTTP 处理器。只做参数绑定与错误映射，不含业务规则。
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	invdomain "github.com/wyfcoding/tradingledger/internal/inventory/domain"
	ledgerapp "github.com/wyfcoding/tradingledger/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
	refapp "github.com/wyfcoding/tradingledger/internal/referencedata/application"
	refdomain "github.com/wyfcoding/tradingledger/internal/referencedata/domain"
	reportapp "github.com/wyfcoding/tradingledger/internal/reporting/application"
	"github.com/wyfcoding/tradingledger/internal/trading/application"
	"github.com/wyfcoding/tradingledger/internal/trading/domain"
)

// LedgerHandler HTTP 处理器
type LedgerHandler struct {
	chart     *ledgerapp.ChartBuilder
	trading   *application.TradingService
	reporting *reportapp.ReportingService
	refdata   *refapp.ReferenceDataService
}

// NewLedgerHandler 创建 HTTP 处理器
func NewLedgerHandler(
	chart *ledgerapp.ChartBuilder,
	trading *application.TradingService,
	reporting *reportapp.ReportingService,
	refdata *refapp.ReferenceDataService,
) *LedgerHandler {
	return &LedgerHandler{chart: chart, trading: trading, reporting: reporting, refdata: refdata}
}

// RegisterRoutes 注册路由
func (h *LedgerHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/trading-accounts", h.CreateTradingAccount)
		api.DELETE("/trading-accounts/:id", h.DeleteTradingAccount)

		api.POST("/trading-accounts/:id/deposit", h.Deposit)
		api.POST("/trading-accounts/:id/withdraw", h.Withdraw)
		api.POST("/trading-accounts/:id/expenses", h.RecordExpense)
		api.POST("/transfers", h.Transfer)

		api.POST("/trading-accounts/:id/spot/buy", h.SpotBuy)
		api.POST("/trading-accounts/:id/spot/sell", h.SpotSell)
		api.POST("/trading-accounts/:id/spot/deposit", h.SpotDeposit)
		api.POST("/trading-accounts/:id/spot/withdraw", h.SpotWithdraw)

		api.POST("/trading-accounts/:id/trades", h.OpenTrade)
		api.GET("/trading-accounts/:id/trades", h.ListTrades)
		api.POST("/trades/:id/close", h.CloseTrade)
		api.POST("/trading-accounts/:id/trades/direct-closed", h.RecordDirectClosedTrade)

		api.GET("/trading-accounts/:id/reports/cash-balance", h.CashBalance)
		api.GET("/trading-accounts/:id/reports/income-statement", h.IncomeStatement)
		api.GET("/trading-accounts/:id/reports/balance-sheet", h.BalanceSheet)
		api.GET("/trading-accounts/:id/reports/trial-balance", h.TrialBalance)
		api.POST("/trading-accounts/:id/reports/unrealized-pnl", h.UnrealizedPnL)
		api.POST("/trading-accounts/:id/reports/open-trade-pnl", h.OpenTradePnL)
		api.POST("/trading-accounts/:id/reports/spot-holdings", h.SpotHoldings)

		api.POST("/assets", h.RegisterAsset)
		api.GET("/assets", h.ListAssets)
		api.POST("/currencies", h.RegisterCurrency)
		api.GET("/currencies", h.ListCurrencies)
	}
}

// respondError 统一错误映射：非法输入 400，缺失 404，业务拒绝 422，其余 500。
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrInvalidLine),
		errors.Is(err, ledgerdomain.ErrUnbalancedEntry),
		errors.Is(err, invdomain.ErrInvalidQuantity),
		errors.Is(err, invdomain.ErrInvalidUnitCost):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledgerdomain.ErrNotFound),
		errors.Is(err, domain.ErrTradeNotFound),
		errors.Is(err, refdomain.ErrAssetNotFound),
		errors.Is(err, refdomain.ErrCurrencyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledgerdomain.ErrInsufficientFunds),
		errors.Is(err, invdomain.ErrInsufficientQuantity),
		errors.Is(err, ledgerdomain.ErrCrossOwnerOperation),
		errors.Is(err, ledgerdomain.ErrSameAccountOperation),
		errors.Is(err, ledgerdomain.ErrNotTrader),
		errors.Is(err, domain.ErrAlreadyClosed),
		errors.Is(err, domain.ErrAssetKindMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logging.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid decimal: " + raw})
		return decimal.Zero, false
	}
	return amount, true
}

func parsePrices(raw map[string]string, c *gin.Context) (map[string]decimal.Decimal, bool) {
	prices := make(map[string]decimal.Decimal, len(raw))
	for symbol, value := range raw {
		price, ok := parseAmount(c, value)
		if !ok {
			return nil, false
		}
		prices[symbol] = price
	}
	return prices, true
}

// CreateTradingAccountRequest 创建交易账户请求
type CreateTradingAccountRequest struct {
	UserID     uint   `json:"user_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	MarketKind string `json:"market_kind" binding:"required"`
	Purpose    string `json:"purpose" binding:"required"`
}

// CreateTradingAccount 创建交易账户并实例化科目表
func (h *LedgerHandler) CreateTradingAccount(c *gin.Context) {
	var req CreateTradingAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.chart.CreateTradingAccount(c.Request.Context(), req.UserID, req.Name,
		ledgerdomain.MarketKind(req.MarketKind), ledgerdomain.AccountPurpose(req.Purpose))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// DeleteTradingAccount 级联删除交易账户
func (h *LedgerHandler) DeleteTradingAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.trading.DeleteTradingAccount(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoneyRequest 资金收付请求
type MoneyRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
	PostedBy    uint   `json:"posted_by" binding:"required"`
}

// Deposit 资金入金
func (h *LedgerHandler) Deposit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req MoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	entry, err := h.trading.MakeDeposit(c.Request.Context(), id, amount, req.Description, req.PostedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Withdraw 资金出金
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req MoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	entry, err := h.trading.MakeWithdrawal(c.Request.Context(), id, amount, req.Description, req.PostedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// TransferRequest 账户间划转请求
type TransferRequest struct {
	FromID      uint   `json:"from_id" binding:"required"`
	ToID        uint   `json:"to_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
	PostedBy    uint   `json:"posted_by" binding:"required"`
}

// Transfer 同所有者账户间划转
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	entry, err := h.trading.TransferFunds(c.Request.Context(), req.FromID, req.ToID, amount, req.Description, req.PostedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ExpenseRequest 费用支付请求
type ExpenseRequest struct {
	ExpenseNumber string `json:"expense_number" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Description   string `json:"description"`
	PostedBy      uint   `json:"posted_by" binding:"required"`
}

// RecordExpense 以现金支付费用
func (h *LedgerHandler) RecordExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	entry, err := h.trading.RecordExpense(c.Request.Context(), id, req.ExpenseNumber, amount, req.Description, req.PostedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// SpotTradeRequest 现货买卖请求。Amount 为买入总成本或卖出总成交额。
type SpotTradeRequest struct {
	AssetID     uint   `json:"asset_id" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
	PostedBy    uint   `json:"posted_by" binding:"required"`
}

func (h *LedgerHandler) bindSpotTrade(c *gin.Context) (application.SpotTradeCommand, bool) {
	id, ok := pathID(c)
	if !ok {
		return application.SpotTradeCommand{}, false
	}
	var req SpotTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return application.SpotTradeCommand{}, false
	}
	quantity, ok := parseAmount(c, req.Quantity)
	if !ok {
		return application.SpotTradeCommand{}, false
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return application.SpotTradeCommand{}, false
	}
	return application.SpotTradeCommand{
		TradingAccountID: id,
		AssetID:          req.AssetID,
		Quantity:         quantity,
		Amount:           amount,
		Description:      req.Description,
		PostedByID:       req.PostedBy,
	}, true
}

// SpotBuy 现货买入
func (h *LedgerHandler) SpotBuy(c *gin.Context) {
	cmd, ok := h.bindSpotTrade(c)
	if !ok {
		return
	}
	entry, err := h.trading.ExecuteSpotBuy(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// SpotSell 现货卖出
func (h *LedgerHandler) SpotSell(c *gin.Context) {
	cmd, ok := h.bindSpotTrade(c)
	if !ok {
		return
	}
	entry, err := h.trading.ExecuteSpotSell(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// SpotTransferRequest 现货实物入金 / 出金请求
type SpotTransferRequest struct {
	AssetID     uint   `json:"asset_id" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	Description string `json:"description"`
	PostedBy    uint   `json:"posted_by" binding:"required"`
}

func (h *LedgerHandler) bindSpotTransfer(c *gin.Context) (application.SpotTransferCommand, bool) {
	id, ok := pathID(c)
	if !ok {
		return application.SpotTransferCommand{}, false
	}
	var req SpotTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return application.SpotTransferCommand{}, false
	}
	quantity, ok := parseAmount(c, req.Quantity)
	if !ok {
		return application.SpotTransferCommand{}, false
	}
	unitPrice, ok := parseAmount(c, req.UnitPrice)
	if !ok {
		return application.SpotTransferCommand{}, false
	}
	return application.SpotTransferCommand{
		TradingAccountID: id,
		AssetID:          req.AssetID,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		Description:      req.Description,
		PostedByID:       req.PostedBy,
	}, true
}

// SpotDeposit 现货实物入金
func (h *LedgerHandler) SpotDeposit(c *gin.Context) {
	cmd, ok := h.bindSpotTransfer(c)
	if !ok {
		return
	}
	entry, err := h.trading.DepositSpotAsset(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// SpotWithdraw 现货实物出金
func (h *LedgerHandler) SpotWithdraw(c *gin.Context) {
	cmd, ok := h.bindSpotTransfer(c)
	if !ok {
		return
	}
	entry, err := h.trading.WithdrawSpotAsset(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// OpenTradeRequest 衍生品开仓请求
type OpenTradeRequest struct {
	AssetID    uint   `json:"asset_id" binding:"required"`
	Side       string `json:"side" binding:"required"`
	Quantity   string `json:"quantity" binding:"required"`
	EntryPrice string `json:"entry_price" binding:"required"`
	EntryDate  string `json:"entry_date"`
	PostedBy   uint   `json:"posted_by" binding:"required"`
}

func (r *OpenTradeRequest) toCommand(c *gin.Context, tradingAccountID uint) (application.OpenTradeCommand, bool) {
	quantity, ok := parseAmount(c, r.Quantity)
	if !ok {
		return application.OpenTradeCommand{}, false
	}
	entryPrice, ok := parseAmount(c, r.EntryPrice)
	if !ok {
		return application.OpenTradeCommand{}, false
	}
	var entryDate time.Time
	if r.EntryDate != "" {
		var err error
		entryDate, err = time.Parse(time.RFC3339, r.EntryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry_date: " + r.EntryDate})
			return application.OpenTradeCommand{}, false
		}
	}
	return application.OpenTradeCommand{
		TradingAccountID: tradingAccountID,
		AssetID:          r.AssetID,
		Side:             domain.TradeSide(r.Side),
		Quantity:         quantity,
		EntryPrice:       entryPrice,
		EntryDate:        entryDate,
		PostedByID:       r.PostedBy,
	}, true
}

// OpenTrade 衍生品开仓
func (h *LedgerHandler) OpenTrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req OpenTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd, ok := req.toCommand(c, id)
	if !ok {
		return
	}

	trade, err := h.trading.OpenTrade(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

// ListTrades 持仓记录列表，?status=OPEN|CLOSED 过滤
func (h *LedgerHandler) ListTrades(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var status *domain.TradeStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.TradeStatus(raw)
		if s != domain.StatusOpen && s != domain.StatusClosed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + raw})
			return
		}
		status = &s
	}

	trades, err := h.trading.ListTrades(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

// CloseTradeRequest 衍生品平仓请求
type CloseTradeRequest struct {
	ExitPrice           string `json:"exit_price" binding:"required"`
	ExitDate            string `json:"exit_date"`
	ExitNotes           string `json:"exit_notes"`
	GrossPnL            string `json:"gross_pnl" binding:"required"`
	BrokerCommission    string `json:"broker_commission"`
	TraderCommission    string `json:"trader_commission"`
	CommissionRecipient *uint  `json:"commission_recipient_id"`
	PostedBy            uint   `json:"posted_by" binding:"required"`
}

func (r *CloseTradeRequest) toCommand(c *gin.Context, tradeID uint) (application.CloseTradeCommand, bool) {
	exitPrice, ok := parseAmount(c, r.ExitPrice)
	if !ok {
		return application.CloseTradeCommand{}, false
	}
	grossPnL, ok := parseAmount(c, r.GrossPnL)
	if !ok {
		return application.CloseTradeCommand{}, false
	}
	broker := decimal.Zero
	if r.BrokerCommission != "" {
		if broker, ok = parseAmount(c, r.BrokerCommission); !ok {
			return application.CloseTradeCommand{}, false
		}
	}
	trader := decimal.Zero
	if r.TraderCommission != "" {
		if trader, ok = parseAmount(c, r.TraderCommission); !ok {
			return application.CloseTradeCommand{}, false
		}
	}
	var exitDate time.Time
	if r.ExitDate != "" {
		var err error
		exitDate, err = time.Parse(time.RFC3339, r.ExitDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exit_date: " + r.ExitDate})
			return application.CloseTradeCommand{}, false
		}
	}
	return application.CloseTradeCommand{
		TradeID:               tradeID,
		ExitPrice:             exitPrice,
		ExitDate:              exitDate,
		ExitNotes:             r.ExitNotes,
		GrossPnL:              grossPnL,
		BrokerCommission:      broker,
		TraderCommission:      trader,
		CommissionRecipientID: r.CommissionRecipient,
		PostedByID:            r.PostedBy,
	}, true
}

// CloseTrade 衍生品平仓
func (h *LedgerHandler) CloseTrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req CloseTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd, ok := req.toCommand(c, id)
	if !ok {
		return
	}

	trade, err := h.trading.CloseTrade(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

// DirectClosedTradeRequest 补录已完结交易请求
type DirectClosedTradeRequest struct {
	Open  OpenTradeRequest  `json:"open" binding:"required"`
	Close CloseTradeRequest `json:"close" binding:"required"`
}

// RecordDirectClosedTrade 补录一笔已完结交易
func (h *LedgerHandler) RecordDirectClosedTrade(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req DirectClosedTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	openCmd, ok := req.Open.toCommand(c, id)
	if !ok {
		return
	}
	closeCmd, ok := req.Close.toCommand(c, 0)
	if !ok {
		return
	}

	trade, err := h.trading.RecordDirectClosedTrade(c.Request.Context(), application.DirectClosedTradeCommand{
		Open:  openCmd,
		Close: closeCmd,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

// CashBalance 现金余额
func (h *LedgerHandler) CashBalance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	balance, err := h.reporting.CashBalance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trading_account_id": id, "cash_balance": balance})
}

// IncomeStatement 期间利润表，?start=&end= ISO 日期可选
func (h *LedgerHandler) IncomeStatement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var start, end *time.Time
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start: " + raw})
			return
		}
		start = &t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end: " + raw})
			return
		}
		end = &t
	}

	report, err := h.reporting.IncomeStatement(c.Request.Context(), id, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// BalanceSheet 资产负债表
func (h *LedgerHandler) BalanceSheet(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	report, err := h.reporting.BalanceSheet(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// TrialBalance 试算平衡表
func (h *LedgerHandler) TrialBalance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	report, err := h.reporting.TrialBalance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// PricesRequest 报价快照，标的代码到十进制价格字符串
type PricesRequest struct {
	Prices map[string]string `json:"prices"`
}

// UnrealizedPnL 现货持仓浮动盈亏
func (h *LedgerHandler) UnrealizedPnL(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req PricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prices, ok := parsePrices(req.Prices, c)
	if !ok {
		return
	}

	report, err := h.reporting.UnrealizedPnL(c.Request.Context(), id, prices)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// OpenTradePnL 未平仓衍生品交易盯市盈亏
func (h *LedgerHandler) OpenTradePnL(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req PricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prices, ok := parsePrices(req.Prices, c)
	if !ok {
		return
	}

	report, err := h.reporting.OpenTradePnL(c.Request.Context(), id, prices)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SpotHoldings 现货持仓汇总
func (h *LedgerHandler) SpotHoldings(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req PricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prices, ok := parsePrices(req.Prices, c)
	if !ok {
		return
	}

	holdings, err := h.reporting.SpotHoldings(c.Request.Context(), id, prices)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, holdings)
}

// RegisterAssetRequest 标的登记请求
type RegisterAssetRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Name   string `json:"name"`
	Kind   string `json:"kind" binding:"required"`
}

// RegisterAsset 登记可交易标的
func (h *LedgerHandler) RegisterAsset(c *gin.Context) {
	var req RegisterAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	asset, err := h.refdata.RegisterAsset(c.Request.Context(), req.Symbol, req.Name, refdomain.AssetKind(req.Kind))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

// ListAssets 标的列表
func (h *LedgerHandler) ListAssets(c *gin.Context) {
	assets, err := h.refdata.ListAssets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

// RegisterCurrencyRequest 币种登记请求
type RegisterCurrencyRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name"`
}

// RegisterCurrency 登记币种
func (h *LedgerHandler) RegisterCurrency(c *gin.Context) {
	var req RegisterCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency, err := h.refdata.RegisterCurrency(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, currency)
}

// ListCurrencies 币种列表
func (h *LedgerHandler) ListCurrencies(c *gin.Context) {
	currencies, err := h.refdata.ListCurrencies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, currencies)
}
