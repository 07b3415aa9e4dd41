// Package ofx converts bank OFX/QFX statements into ledger entries.
package ofx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/big"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/aclindsa/ofxgo"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags that lost their closing bracket in SGML-style files.
	openTagPattern = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Defaults applied when Options leaves a category empty.
const (
	DefaultIncomeMain  = "기타수입"
	DefaultIncomeSub   = "계좌입금"
	DefaultExpenseMain = "기타지출"
	DefaultExpenseSub  = "계좌출금"
)

// Options controls how statement lines become ledger entries.
type Options struct {
	IncomeMain  string
	IncomeSub   string
	ExpenseMain string
	ExpenseSub  string
	// Scale converts the statement amount into the ledger's smallest
	// currency unit: 1 for won, 100 for cents.
	Scale int64
}

func (o Options) withDefaults() Options {
	if o.IncomeMain == "" {
		o.IncomeMain = DefaultIncomeMain
	}
	if o.IncomeSub == "" {
		o.IncomeSub = DefaultIncomeSub
	}
	if o.ExpenseMain == "" {
		o.ExpenseMain = DefaultExpenseMain
	}
	if o.ExpenseSub == "" {
		o.ExpenseSub = DefaultExpenseSub
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	return o
}

// Statement is the result of parsing one OFX file. Credits become income and
// debits become expenses.
type Statement struct {
	Income   []model.Income
	Expense  []model.Expense
	Accounts []string
	Skipped  int
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	opts Options
}

// NewParser creates a new OFX parser.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts.withDefaults()}
}

func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, errors.New("failed to parse OFX file: empty input")
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	accounts := make(map[string]struct{})

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s, ok := msg.(*ofxgo.StatementResponse); ok {
			accounts[string(s.BankAcctFrom.AcctID)] = struct{}{}
			p.collect(stmt, s.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s, ok := msg.(*ofxgo.CCStatementResponse); ok {
			accounts[string(s.CCAcctFrom.AcctID)] = struct{}{}
			p.collect(stmt, s.BankTranList)
		}
	}

	for acct := range accounts {
		if acct != "" {
			stmt.Accounts = append(stmt.Accounts, acct)
		}
	}
	sort.Strings(stmt.Accounts)

	slog.Info("Parsed OFX file",
		"income", len(stmt.Income),
		"expense", len(stmt.Expense),
		"skipped", stmt.Skipped,
		"accounts", len(stmt.Accounts))

	return stmt, nil
}

func (p *Parser) collect(stmt *Statement, list *ofxgo.TransactionList) {
	if list == nil {
		return
	}
	for _, tx := range list.Transactions {
		amount := p.minorUnits(tx.TrnAmt)
		switch {
		case amount > 0:
			stmt.Income = append(stmt.Income, p.toIncome(tx, amount))
		case amount < 0:
			stmt.Expense = append(stmt.Expense, p.toExpense(tx, -amount))
		default:
			stmt.Skipped++
			slog.Debug("Skipping zero-amount transaction", "fitid", string(tx.FiTID))
		}
	}
}

func (p *Parser) minorUnits(amt ofxgo.Amount) int64 {
	scaled := new(big.Rat).Mul(&amt.Rat, new(big.Rat).SetInt64(p.opts.Scale))
	f, _ := scaled.Float64()
	return int64(math.Round(f))
}

func (p *Parser) toIncome(tx ofxgo.Transaction, amount int64) model.Income {
	income := model.Income{
		Date:         model.DateOf(tx.DtPosted.Time),
		MainCategory: p.opts.IncomeMain,
		SubCategory:  p.opts.IncomeSub,
		Name1:        extractName(tx),
		Amount:       amount,
		Memo:         memo(tx),
	}
	if income.Name1 == "" {
		income.MarkAnonymous()
	}
	return income
}

func (p *Parser) toExpense(tx ofxgo.Transaction, amount int64) model.Expense {
	m := memo(tx)
	if name := extractName(tx); name != "" {
		m = strings.TrimSpace(name + " " + m)
	}
	return model.Expense{
		Date:         model.DateOf(tx.DtPosted.Time),
		MainCategory: p.opts.ExpenseMain,
		SubCategory:  p.opts.ExpenseSub,
		Amount:       amount,
		Memo:         m,
	}
}

// memo keeps the bank's transaction id so imported rows can be traced back.
func memo(tx ofxgo.Transaction) string {
	parts := make([]string, 0, 2)
	if tx.Memo != "" && !strings.EqualFold(string(tx.Memo), string(tx.Name)) {
		parts = append(parts, strings.TrimSpace(string(tx.Memo)))
	}
	if tx.FiTID != "" {
		parts = append(parts, "["+string(tx.FiTID)+"]")
	}
	return strings.Join(parts, " ")
}

var transferPrefixes = []string{
	"ACH CREDIT ",
	"ACH DEBIT ",
	"DEPOSIT ",
	"TRANSFER FROM ",
	"TRANSFER TO ",
	"POS PURCHASE ",
	"DEBIT CARD PURCHASE ",
	"입금 ",
	"출금 ",
	"이체 ",
}

// extractName returns the counterparty name: the payee when present, else the
// NAME field with bank prefixes removed, else the memo for generic names.
func extractName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range transferPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	if isGenericDescription(name) {
		return ""
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "DEBIT", "CREDIT", "DEPOSIT", "PAYMENT", "TRANSFER", "입금", "출금", "이체":
		return true
	}
	return false
}
