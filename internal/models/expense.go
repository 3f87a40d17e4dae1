package models

import "time"

// Category is the closed set of expense categories. The same values are
// used for validation, storage and the API so the sets cannot drift.
type Category string

const (
	CategoryRental        Category = "Rental"
	CategoryGroceries     Category = "Groceries"
	CategoryEntertainment Category = "Entertainment"
	CategoryTravel        Category = "Travel"
	CategoryOthers        Category = "Others"
)

// Categories lists every valid expense category.
var Categories = []Category{
	CategoryRental,
	CategoryGroceries,
	CategoryEntertainment,
	CategoryTravel,
	CategoryOthers,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// PaymentMode is the closed set of payment modes.
type PaymentMode string

const (
	PaymentUPI        PaymentMode = "UPI"
	PaymentCreditCard PaymentMode = "Credit Card"
	PaymentNetBanking PaymentMode = "Net Banking"
	PaymentCash       PaymentMode = "Cash"
)

// PaymentModes lists every valid payment mode.
var PaymentModes = []PaymentMode{
	PaymentUPI,
	PaymentCreditCard,
	PaymentNetBanking,
	PaymentCash,
}

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	for _, v := range PaymentModes {
		if m == v {
			return true
		}
	}
	return false
}

// MaxNotesLength is the upper bound on the notes field.
const MaxNotesLength = 500

// Expense represents a single expense record owned by a user.
type Expense struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Amount      float64     `json:"amount"`
	Category    Category    `json:"category"`
	Notes       string      `json:"notes,omitempty"`
	Date        time.Time   `json:"date"`
	PaymentMode PaymentMode `json:"paymentMode"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Pagination describes one page of a list result.
type Pagination struct {
	Current      int `json:"current"`
	Total        int `json:"total"`
	Count        int `json:"count"`
	TotalRecords int `json:"totalRecords"`
}

// CategoryTotal is one row of the per-category breakdown.
type CategoryTotal struct {
	Category    Category `json:"category"`
	TotalAmount float64  `json:"totalAmount"`
	Count       int      `json:"count"`
}

// MonthCategoryAmount is one category's share of a month.
type MonthCategoryAmount struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
	Count    int      `json:"count"`
}

// MonthlyData aggregates one calendar month of spending.
type MonthlyData struct {
	Year        int                   `json:"year"`
	Month       int                   `json:"month"`
	Categories  []MonthCategoryAmount `json:"categories"`
	TotalAmount float64               `json:"totalAmount"`
}

// AnalyticsSummary holds totals across all of a user's expenses.
type AnalyticsSummary struct {
	TotalExpenses     float64 `json:"totalExpenses"`
	TotalTransactions int     `json:"totalTransactions"`
	AvgExpense        float64 `json:"avgExpense"`
}

// Analytics is the full analytics payload for one user.
type Analytics struct {
	MonthlyData       []MonthlyData    `json:"monthlyData"`
	Summary           AnalyticsSummary `json:"summary"`
	CategoryBreakdown []CategoryTotal  `json:"categoryBreakdown"`
}
