// 包 application 实现报表服务：利润表、资产负债表、试算平衡与浮动盈亏。
// 报表全部是读路径，直接在科目余额与分录行之上聚合，不产生任何账务。
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	invapp "github.com/wyfcoding/tradingledger/internal/inventory/application"
	ledgerdomain "github.com/wyfcoding/tradingledger/internal/ledger/domain"
	tradingdomain "github.com/wyfcoding/tradingledger/internal/trading/domain"
)

// ReportingService 报表上下文的应用服务。
type ReportingService struct {
	accounts        ledgerdomain.AccountRepository
	journal         ledgerdomain.JournalRepository
	tradingAccounts ledgerdomain.TradingAccountRepository
	trades          tradingdomain.TradeRepository
	lots            *invapp.LotManager
}

func NewReportingService(
	accounts ledgerdomain.AccountRepository,
	journal ledgerdomain.JournalRepository,
	tradingAccounts ledgerdomain.TradingAccountRepository,
	trades tradingdomain.TradeRepository,
	lots *invapp.LotManager,
) *ReportingService {
	return &ReportingService{
		accounts:        accounts,
		journal:         journal,
		tradingAccounts: tradingAccounts,
		trades:          trades,
		lots:            lots,
	}
}

func (s *ReportingService) mustGetTradingAccount(ctx context.Context, id uint) (*ledgerdomain.TradingAccount, error) {
	ta, err := s.tradingAccounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ta == nil {
		return nil, fmt.Errorf("%w: trading account %d", ledgerdomain.ErrNotFound, id)
	}
	return ta, nil
}

// CashBalance 现金科目 1010 的当前余额。
func (s *ReportingService) CashBalance(ctx context.Context, tradingAccountID uint) (decimal.Decimal, error) {
	ta, err := s.mustGetTradingAccount(ctx, tradingAccountID)
	if err != nil {
		return decimal.Zero, err
	}
	cash, err := s.accounts.GetByNumber(ctx, ta.ID, ledgerdomain.NumberCash)
	if err != nil {
		return decimal.Zero, err
	}
	if cash == nil {
		// 未建现金科目视同余额为零
		return decimal.Zero, nil
	}
	totals, err := s.journal.TotalsForAccount(ctx, cash.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Debit.Sub(totals.Credit), nil
}

// IncomeStatement 期间利润表。收入按贷方减借方、费用按借方减贷方汇总，
// 仅包含期间内有发生额的科目。
func (s *ReportingService) IncomeStatement(ctx context.Context, tradingAccountID uint, start, end *time.Time) (*IncomeStatement, error) {
	ta, err := s.mustGetTradingAccount(ctx, tradingAccountID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ListByTradingAccount(ctx, ta.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*ledgerdomain.Account, len(accounts))
	var plAccountIDs []uint
	for _, account := range accounts {
		if account.Kind == ledgerdomain.KindRevenue || account.Kind == ledgerdomain.KindExpense {
			byID[account.ID] = account
			plAccountIDs = append(plAccountIDs, account.ID)
		}
	}

	report := &IncomeStatement{
		TradingAccountID: ta.ID,
		Start:            start,
		End:              end,
		TotalRevenue:     decimal.Zero,
		TotalExpense:     decimal.Zero,
	}
	if len(plAccountIDs) == 0 {
		report.NetIncome = decimal.Zero
		return report, nil
	}

	lines, err := s.journal.LinesForAccounts(ctx, plAccountIDs, start, end)
	if err != nil {
		return nil, err
	}

	debits := make(map[uint]decimal.Decimal)
	credits := make(map[uint]decimal.Decimal)
	for _, line := range lines {
		debits[line.AccountID] = debits[line.AccountID].Add(line.DebitAmount)
		credits[line.AccountID] = credits[line.AccountID].Add(line.CreditAmount)
	}

	for _, accountID := range sortedKeys(debits, credits) {
		account := byID[accountID]
		if account == nil {
			continue
		}
		switch account.Kind {
		case ledgerdomain.KindRevenue:
			amount := credits[accountID].Sub(debits[accountID])
			report.Revenues = append(report.Revenues, AccountLine{AccountID: account.ID, Number: account.Number, Name: account.Name, Amount: amount})
			report.TotalRevenue = report.TotalRevenue.Add(amount)
		case ledgerdomain.KindExpense:
			amount := debits[accountID].Sub(credits[accountID])
			report.Expenses = append(report.Expenses, AccountLine{AccountID: account.ID, Number: account.Number, Name: account.Name, Amount: amount})
			report.TotalExpense = report.TotalExpense.Add(amount)
		}
	}
	sortLinesByNumber(report.Revenues)
	sortLinesByNumber(report.Expenses)
	report.NetIncome = report.TotalRevenue.Sub(report.TotalExpense)
	return report, nil
}

// BalanceSheet 资产负债表。损益科目轧差进留存收益，
// 核对恒等式 资产 = 负债 + 权益 + 留存收益。
func (s *ReportingService) BalanceSheet(ctx context.Context, tradingAccountID uint) (*BalanceSheet, error) {
	ta, err := s.mustGetTradingAccount(ctx, tradingAccountID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ListByTradingAccount(ctx, ta.ID)
	if err != nil {
		return nil, err
	}

	accountIDs := make([]uint, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.ID)
	}
	totals, err := s.journal.TotalsForAccounts(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	report := &BalanceSheet{
		TradingAccountID: ta.ID,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
		RetainedIncome:   decimal.Zero,
	}
	for _, account := range accounts {
		t := totals[account.ID]
		balance := account.SignedBalance(t.Debit, t.Credit)
		line := AccountLine{AccountID: account.ID, Number: account.Number, Name: account.Name, Amount: balance}
		switch account.Kind {
		case ledgerdomain.KindAsset:
			report.Assets = append(report.Assets, line)
			report.TotalAssets = report.TotalAssets.Add(balance)
		case ledgerdomain.KindLiability:
			report.Liabilities = append(report.Liabilities, line)
			report.TotalLiabilities = report.TotalLiabilities.Add(balance)
		case ledgerdomain.KindEquity:
			report.Equity = append(report.Equity, line)
			report.TotalEquity = report.TotalEquity.Add(balance)
		case ledgerdomain.KindRevenue:
			report.RetainedIncome = report.RetainedIncome.Add(balance)
		case ledgerdomain.KindExpense:
			report.RetainedIncome = report.RetainedIncome.Sub(balance)
		}
	}
	sortLinesByNumber(report.Assets)
	sortLinesByNumber(report.Liabilities)
	sortLinesByNumber(report.Equity)
	report.Balanced = report.TotalAssets.Equal(
		report.TotalLiabilities.Add(report.TotalEquity).Add(report.RetainedIncome))
	return report, nil
}

// TrialBalance 试算平衡表。按父科目构成层级，每个科目的净发生额
// 落入借方列或贷方列，两列合计必须相等。
func (s *ReportingService) TrialBalance(ctx context.Context, tradingAccountID uint) (*TrialBalance, error) {
	ta, err := s.mustGetTradingAccount(ctx, tradingAccountID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ListByTradingAccount(ctx, ta.ID)
	if err != nil {
		return nil, err
	}

	accountIDs := make([]uint, 0, len(accounts))
	inScope := make(map[uint]bool, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.ID)
		inScope[account.ID] = true
	}
	totals, err := s.journal.TotalsForAccounts(ctx, accountIDs)
	if err != nil {
		return nil, err
	}

	children := make(map[uint][]*ledgerdomain.Account)
	var roots []*ledgerdomain.Account
	for _, account := range accounts {
		if account.ParentID != nil && inScope[*account.ParentID] {
			children[*account.ParentID] = append(children[*account.ParentID], account)
		} else {
			roots = append(roots, account)
		}
	}
	sortAccountsByNumber(roots)
	for _, group := range children {
		sortAccountsByNumber(group)
	}

	report := &TrialBalance{
		TradingAccountID: ta.ID,
		TotalDebit:       decimal.Zero,
		TotalCredit:      decimal.Zero,
	}

	rowByID := make(map[uint]*TrialBalanceRow, len(accounts))
	for _, account := range accounts {
		t := totals[account.ID]
		net := t.Debit.Sub(t.Credit)
		row := &TrialBalanceRow{
			AccountID: account.ID,
			Number:    account.Number,
			Name:      account.Name,
			Kind:      string(account.Kind),
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
		}
		if net.IsPositive() {
			row.Debit = net
		} else if net.IsNegative() {
			row.Credit = net.Abs()
		}
		rowByID[account.ID] = row
	}

	// 显式栈自根下行标注深度。visited 挡住脏数据里的父子环，
	// 环上的科目既不进层级也不计合计。
	type frame struct {
		account *ledgerdomain.Account
		depth   int
	}
	visited := make(map[uint]bool, len(accounts))
	ordered := make([]*ledgerdomain.Account, 0, len(accounts))
	stack := make([]frame, 0, len(accounts))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{account: roots[i], depth: 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.account.ID] {
			continue
		}
		visited[f.account.ID] = true
		rowByID[f.account.ID].Depth = f.depth
		ordered = append(ordered, f.account)
		kids := children[f.account.ID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{account: kids[i], depth: f.depth + 1})
		}
	}

	// 先序的逆序即自底向上，挂接子行时其子树已完整
	for i := len(ordered) - 1; i >= 0; i-- {
		account := ordered[i]
		row := rowByID[account.ID]
		report.TotalDebit = report.TotalDebit.Add(row.Debit)
		report.TotalCredit = report.TotalCredit.Add(row.Credit)
		for _, child := range children[account.ID] {
			if !visited[child.ID] {
				continue
			}
			row.Children = append(row.Children, *rowByID[child.ID])
		}
	}
	for _, root := range roots {
		report.Rows = append(report.Rows, *rowByID[root.ID])
	}
	report.Balanced = report.TotalDebit.Equal(report.TotalCredit)
	return report, nil
}

// UnrealizedPnL 现货持仓的浮动盈亏：对每个未耗尽批次累加
// 剩余数量 × (现价 − 单位成本)。prices 以标的代码为键；
// 缺失报价的标的按零贡献计入并记录告警，不阻断整张报表。
func (s *ReportingService) UnrealizedPnL(ctx context.Context, tradingAccountID uint, prices map[string]decimal.Decimal) (*UnrealizedPnLReport, error) {
	ta, err := s.mustGetTradingAccount(ctx, tradingAccountID)
	if err != nil {
		return nil, err
	}
	lots, err := s.lots.OpenLots(ctx, ta.ID)
	if err != nil {
		return nil, err
	}

	positions := make(map[uint]*SpotPositionPnL)
	var order []uint
	for _, lot := range lots {
		p := positions[lot.AssetID]
		if p == nil {
			symbol := ""
			if lot.Asset != nil {
				symbol = lot.Asset.Symbol
			}
			price, priced := prices[symbol]
			if !priced {
				slog.WarnContext(ctx, "missing price for spot position, contributing zero",
					"asset_symbol", symbol)
			}
			p = &SpotPositionPnL{
				AssetID:       lot.AssetID,
				AssetSymbol:   symbol,
				Quantity:      decimal.Zero,
				TotalCost:     decimal.Zero,
				CurrentPrice:  price,
				Priced:        priced,
				UnrealizedPnL: decimal.Zero,
			}
			positions[lot.AssetID] = p
			order = append(order, lot.AssetID)
		}
		p.Quantity = p.Quantity.Add(lot.RemainingQuantity)
		p.TotalCost = p.TotalCost.Add(lot.RemainingQuantity.Mul(lot.UnitCost))
		if p.Priced {
			p.UnrealizedPnL = p.UnrealizedPnL.Add(
				lot.RemainingQuantity.Mul(p.CurrentPrice.Sub(lot.UnitCost)))
		}
	}

	report := &UnrealizedPnLReport{TradingAccountID: ta.ID, Total: decimal.Zero}
	for _, assetID := range order {
		p := positions[assetID]
		p.TotalCost = p.TotalCost.Round(2)
		p.UnrealizedPnL = p.UnrealizedPnL.Round(2)
		report.Positions = append(report.Positions, *p)
		report.Total = report.Total.Add(p.UnrealizedPnL)
	}
	return report, nil
}

// OpenTradePnL 未平仓衍生品交易的盯市盈亏。prices 以标的代码为键；
// 缺失报价的标的按零价计算并记录告警。
func (s *ReportingService) OpenTradePnL(ctx context.Context, tradingAccountID uint, prices map[string]decimal.Decimal) (*OpenTradePnLReport, error) {
	ta, err := s.mustGetTradingAccount(ctx, tradingAccountID)
	if err != nil {
		return nil, err
	}
	open := tradingdomain.StatusOpen
	trades, err := s.trades.ListByTradingAccount(ctx, ta.ID, &open)
	if err != nil {
		return nil, err
	}

	report := &OpenTradePnLReport{TradingAccountID: ta.ID, Total: decimal.Zero}
	for _, trade := range trades {
		symbol := ""
		if trade.Asset != nil {
			symbol = trade.Asset.Symbol
		}
		price, ok := prices[symbol]
		if !ok {
			slog.WarnContext(ctx, "missing price for open trade, assuming zero",
				"trade_id", trade.ID, "asset_symbol", symbol)
			price = decimal.Zero
		}

		diff := price.Sub(trade.EntryPrice)
		if trade.Side == tradingdomain.SideShort {
			diff = trade.EntryPrice.Sub(price)
		}
		pnl := diff.Mul(trade.Quantity).Round(2)

		report.Trades = append(report.Trades, OpenTradePnL{
			TradeID:       trade.ID,
			AssetSymbol:   symbol,
			Side:          string(trade.Side),
			Quantity:      trade.Quantity,
			EntryPrice:    trade.EntryPrice,
			CurrentPrice:  price,
			UnrealizedPnL: pnl,
		})
		report.Total = report.Total.Add(pnl)
	}
	return report, nil
}

// SpotHoldings 现货持仓汇总：按标的合并未耗尽批次，
// 平均成本按剩余数量加权，市值按报价计算。
func (s *ReportingService) SpotHoldings(ctx context.Context, tradingAccountID uint, prices map[string]decimal.Decimal) ([]SpotHolding, error) {
	ta, err := s.mustGetTradingAccount(ctx, tradingAccountID)
	if err != nil {
		return nil, err
	}
	lots, err := s.lots.OpenLots(ctx, ta.ID)
	if err != nil {
		return nil, err
	}

	type agg struct {
		symbol   string
		quantity decimal.Decimal
		cost     decimal.Decimal
	}
	byAsset := make(map[uint]*agg)
	var order []uint
	for _, lot := range lots {
		a := byAsset[lot.AssetID]
		if a == nil {
			symbol := ""
			if lot.Asset != nil {
				symbol = lot.Asset.Symbol
			}
			a = &agg{symbol: symbol, quantity: decimal.Zero, cost: decimal.Zero}
			byAsset[lot.AssetID] = a
			order = append(order, lot.AssetID)
		}
		a.quantity = a.quantity.Add(lot.RemainingQuantity)
		a.cost = a.cost.Add(lot.RemainingQuantity.Mul(lot.UnitCost))
	}

	holdings := make([]SpotHolding, 0, len(order))
	for _, assetID := range order {
		a := byAsset[assetID]
		price, ok := prices[a.symbol]
		if !ok {
			slog.WarnContext(ctx, "missing price for spot holding, assuming zero", "asset_symbol", a.symbol)
			price = decimal.Zero
		}
		averageCost := decimal.Zero
		if a.quantity.IsPositive() {
			averageCost = a.cost.DivRound(a.quantity, 8)
		}
		marketValue := a.quantity.Mul(price).Round(2)
		totalCost := a.cost.Round(2)
		holdings = append(holdings, SpotHolding{
			AssetID:       assetID,
			AssetSymbol:   a.symbol,
			Quantity:      a.quantity,
			AverageCost:   averageCost,
			TotalCost:     totalCost,
			CurrentPrice:  price,
			MarketValue:   marketValue,
			UnrealizedPnL: marketValue.Sub(totalCost),
		})
	}
	return holdings, nil
}

func sortLinesByNumber(lines []AccountLine) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].Number < lines[j].Number })
}

func sortAccountsByNumber(accounts []*ledgerdomain.Account) {
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Number < accounts[j].Number })
}

func sortedKeys(debits, credits map[uint]decimal.Decimal) []uint {
	seen := make(map[uint]bool)
	var keys []uint
	for id := range debits {
		if !seen[id] {
			seen[id] = true
			keys = append(keys, id)
		}
	}
	for id := range credits {
		if !seen[id] {
			seen[id] = true
			keys = append(keys, id)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
