package core

import (
	"errors"
	"strings"
	"time"
)

const (
	AccountCash       AccountType = "cash"
	AccountCard       AccountType = "card"
	AccountBank       AccountType = "bank"
	AccountEWallet    AccountType = "ewallet"
	AccountInvestment AccountType = "investment"
	AccountCrypto     AccountType = "crypto"
)

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

type (
	AccountType     string
	CategoryType    string
	TransactionType string

	Date struct {
		time.Time
	}

	User struct {
		ID           int64
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
	}

	Session struct {
		Token     string
		UserID    int64
		ExpiresAt time.Time
		CreatedAt time.Time
	}

	Currency struct {
		ID     int64
		Code   string
		Name   string
		Symbol string
	}

	Account struct {
		ID         int64
		UserID     int64
		Name       string
		Type       AccountType
		CurrencyID int64
		Balance    Money
		CreatedAt  time.Time

		// Filled by joins for display.
		CurrencyCode   string
		CurrencySymbol string
	}

	Category struct {
		ID   int64
		Name string
		Type CategoryType
		Icon string
	}

	Transaction struct {
		ID          int64
		AccountID   int64
		CategoryID  int64 // 0 = uncategorized
		Type        TransactionType
		Amount      Money
		Date        Date
		Description string
		CreatedAt   time.Time

		// Filled by joins for display.
		AccountName    string
		CategoryName   string
		CurrencySymbol string
	}

	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Name       string
		Amount     Money
		StartDate  Date
		EndDate    Date // zero = unbounded

		// Filled by joins for display.
		CategoryName string
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyEmail          = errors.New("empty email")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidTxType       = errors.New("invalid transaction type")
	ErrCurrencyInUse       = errors.New("currency referenced by accounts")
)

// AccountTypes lists the valid account types in display order.
func AccountTypes() []AccountType {
	return []AccountType{AccountCash, AccountCard, AccountBank, AccountEWallet, AccountInvestment, AccountCrypto}
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountCard, AccountBank, AccountEWallet, AccountInvestment, AccountCrypto:
		return true
	}
	return false
}

// Label returns a human readable name for the account type.
func (t AccountType) Label() string {
	switch t {
	case AccountCash:
		return "Cash"
	case AccountCard:
		return "Card"
	case AccountBank:
		return "Bank account"
	case AccountEWallet:
		return "E-wallet"
	case AccountInvestment:
		return "Investment"
	case AccountCrypto:
		return "Crypto"
	}
	return string(t)
}

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to midnight UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// IsEmpty reports whether the date is unset (used for open-ended budgets).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (u User) Validate() error {
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return errors.New("malformed email")
	}
	if len(email) > 255 {
		return errors.New("email too long (max 255 characters)")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if a.CurrencyID <= 0 {
		return errors.New("missing currency")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.AccountID <= 0 {
		return errors.New("missing account")
	}
	if !t.Type.Valid() {
		return ErrInvalidTxType
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

// BalanceEffect returns the signed impact of the transaction on its
// account balance: positive for income, negative for expense.
func (t Transaction) BalanceEffect() int64 {
	if t.Type == TransactionExpense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if b.CategoryID <= 0 {
		return errors.New("missing category")
	}
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if b.StartDate.IsZero() {
		return errors.New("missing start date")
	}
	if !b.EndDate.IsEmpty() && b.EndDate.Before(b.StartDate.Time) {
		return errors.New("end date before start date")
	}
	return nil
}

// ActiveOn reports whether the budget covers the given date.
func (b Budget) ActiveOn(d Date) bool {
	if b.StartDate.After(d.Time) {
		return false
	}
	return b.EndDate.IsEmpty() || !b.EndDate.Before(d.Time)
}
