package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// JournalEntry 记账凭证（一次原子会计事件）
// 凭证一经过账即不可修改，只能整体删除（连同全部分录行）。
type JournalEntry struct {
	gorm.Model
	// 凭证号（业务主键）
	EntryNo string `gorm:"column:entry_no;type:varchar(32);uniqueIndex;not null" json:"entry_no"`
	// 记账日期
	EntryDate time.Time `gorm:"column:entry_date;index;not null" json:"entry_date"`
	// 摘要
	Description string `gorm:"column:description;type:text" json:"description"`
	// 过账人（可空，用户删除后置空）
	PostedByID *uint `gorm:"column:posted_by_id" json:"posted_by_id"`
	// 分录行
	Lines []JournalEntryLine `gorm:"foreignKey:JournalEntryID;constraint:OnDelete:CASCADE" json:"lines"`
}

func (JournalEntry) TableName() string { return "journal_entries" }

// JournalEntryLine 凭证分录行（凭证的借方或贷方之一）
// 科目外键为 RESTRICT：存在分录的科目不允许删除。
type JournalEntryLine struct {
	gorm.Model
	JournalEntryID uint `gorm:"column:journal_entry_id;index;not null" json:"journal_entry_id"`
	AccountID      uint `gorm:"column:account_id;index;not null" json:"account_id"`
	// 借方金额，>= 0
	DebitAmount decimal.Decimal `gorm:"column:debit_amount;type:decimal(20,2);default:0;not null" json:"debit_amount"`
	// 贷方金额，>= 0
	CreditAmount decimal.Decimal `gorm:"column:credit_amount;type:decimal(20,2);default:0;not null" json:"credit_amount"`

	Account *Account `gorm:"foreignKey:AccountID;constraint:OnDelete:RESTRICT" json:"account,omitempty"`
}

func (JournalEntryLine) TableName() string { return "journal_entry_lines" }

// DebitLine 构造借方分录行。
func DebitLine(accountID uint, amount decimal.Decimal) JournalEntryLine {
	return JournalEntryLine{AccountID: accountID, DebitAmount: amount, CreditAmount: decimal.Zero}
}

// CreditLine 构造贷方分录行。
func CreditLine(accountID uint, amount decimal.Decimal) JournalEntryLine {
	return JournalEntryLine{AccountID: accountID, DebitAmount: decimal.Zero, CreditAmount: amount}
}

// ValidateLines 校验一组分录行能否构成合法凭证：
// 至少两行，单行借贷不同时为正、不为负，且借方合计与贷方合计严格相等。
func ValidateLines(lines []JournalEntryLine) error {
	if len(lines) < 2 {
		return ErrInvalidLine
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i := range lines {
		l := &lines[i]
		if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
			return ErrInvalidLine
		}
		if l.DebitAmount.IsPositive() && l.CreditAmount.IsPositive() {
			return ErrInvalidLine
		}
		totalDebit = totalDebit.Add(l.DebitAmount)
		totalCredit = totalCredit.Add(l.CreditAmount)
	}

	if !totalDebit.Equal(totalCredit) {
		return ErrUnbalancedEntry
	}
	return nil
}
