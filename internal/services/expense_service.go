package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expensio/expensio-be/internal/models"
)

// Date filter names accepted by List.
const (
	DateFilterThisMonth  = "thisMonth"
	DateFilterLast30Days = "last30Days"
	DateFilterLast90Days = "last90Days"
	DateFilterAllTime    = "allTime"
)

// Listing bounds, matching the API contract.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ExpenseInput holds the fields of a new expense.
type ExpenseInput struct {
	Amount      float64
	Category    models.Category
	Notes       string
	Date        time.Time
	PaymentMode models.PaymentMode
}

// ExpenseUpdate is a partial patch over an existing expense. Only non-nil
// fields are applied.
type ExpenseUpdate struct {
	Amount      *float64
	Category    *models.Category
	Notes       *string
	Date        *time.Time
	PaymentMode *models.PaymentMode
}

// ExpenseFilters narrows a listing. Empty sets and an empty date filter
// mean no bound on that dimension.
type ExpenseFilters struct {
	DateFilter   string
	Categories   []models.Category
	PaymentModes []models.PaymentMode
}

// ExpenseServiceProvider defines the interface for expense services.
type ExpenseServiceProvider interface {
	Create(ownerID string, input ExpenseInput) (models.Expense, error)
	List(ownerID string, filters ExpenseFilters, page, limit int) ([]models.Expense, models.Pagination, error)
	GetByID(ownerID, id string) (models.Expense, error)
	Update(ownerID, id string, update ExpenseUpdate) (models.Expense, error)
	Delete(ownerID, id string) error
	Analytics(ownerID string) (models.Analytics, error)
}

// ExpenseService provides business logic for expense management. Every
// query is scoped to the owning user in SQL; there is no unscoped path.
type ExpenseService struct {
	db *sql.DB
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(db *sql.DB) *ExpenseService {
	return &ExpenseService{db: db}
}

const expenseColumns = "id, user_id, amount, category, notes, date, payment_mode, created_at, updated_at"

func scanExpense(row interface{ Scan(...interface{}) error }) (models.Expense, error) {
	var e models.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Notes,
		&e.Date, &e.PaymentMode, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func validateExpense(amount float64, category models.Category, notes string, date time.Time, paymentMode models.PaymentMode) error {
	var details []string
	if amount < 0 {
		details = append(details, "amount must be a positive number")
	}
	if !category.Valid() {
		details = append(details, "invalid category")
	}
	if len(notes) > models.MaxNotesLength {
		details = append(details, fmt.Sprintf("notes must be less than %d characters", models.MaxNotesLength))
	}
	if date.IsZero() {
		details = append(details, "date is required")
	}
	if !paymentMode.Valid() {
		details = append(details, "invalid payment mode")
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}

// Create validates and persists a new expense for the owning user.
func (s *ExpenseService) Create(ownerID string, input ExpenseInput) (models.Expense, error) {
	if err := validateExpense(input.Amount, input.Category, input.Notes, input.Date, input.PaymentMode); err != nil {
		return models.Expense{}, err
	}

	now := time.Now().UTC()
	expense := models.Expense{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Amount:      input.Amount,
		Category:    input.Category,
		Notes:       input.Notes,
		Date:        input.Date.UTC(),
		PaymentMode: input.PaymentMode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stmt, err := s.db.Prepare("INSERT INTO expenses(" + expenseColumns + ") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.Expense{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(expense.ID, expense.UserID, expense.Amount, expense.Category,
		expense.Notes, expense.Date, expense.PaymentMode, expense.CreatedAt, expense.UpdatedAt)
	if err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

// dateCutoff returns the inclusive lower bound for a date filter, or false
// when the filter imposes no bound.
func dateCutoff(filter string, now time.Time) (time.Time, bool) {
	switch filter {
	case DateFilterThisMonth:
		// Stored dates are UTC-normalized, so the month boundary must be too.
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), true
	case DateFilterLast30Days:
		return now.AddDate(0, 0, -30), true
	case DateFilterLast90Days:
		return now.AddDate(0, 0, -90), true
	default:
		return time.Time{}, false
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// List returns one page of the user's expenses matching the filters, newest
// first, along with pagination metadata computed over the full match.
func (s *ExpenseService) List(ownerID string, filters ExpenseFilters, page, limit int) ([]models.Expense, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	where := []string{"user_id = ?"}
	args := []interface{}{ownerID}

	if cutoff, ok := dateCutoff(filters.DateFilter, time.Now()); ok {
		where = append(where, "date >= ?")
		args = append(args, cutoff.UTC())
	}
	if len(filters.Categories) > 0 {
		where = append(where, "category IN ("+placeholders(len(filters.Categories))+")")
		for _, c := range filters.Categories {
			args = append(args, c)
		}
	}
	if len(filters.PaymentModes) > 0 {
		where = append(where, "payment_mode IN ("+placeholders(len(filters.PaymentModes))+")")
		for _, m := range filters.PaymentModes {
			args = append(args, m)
		}
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM expenses WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, err
	}

	query := "SELECT " + expenseColumns + " FROM expenses WHERE " + cond +
		" ORDER BY date DESC, created_at DESC, id LIMIT ? OFFSET ?"
	rows, err := s.db.Query(query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, err
	}

	pagination := models.Pagination{
		Current:      page,
		Total:        (total + limit - 1) / limit,
		Count:        len(expenses),
		TotalRecords: total,
	}
	return expenses, pagination, nil
}

// GetByID retrieves one of the user's expenses. A missing expense and an
// expense owned by someone else are indistinguishable.
func (s *ExpenseService) GetByID(ownerID, id string) (models.Expense, error) {
	row := s.db.QueryRow("SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?", id, ownerID)
	expense, err := scanExpense(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Expense{}, ErrExpenseNotFound
		}
		return models.Expense{}, err
	}
	return expense, nil
}

// Update applies a validated partial patch to one of the user's expenses.
func (s *ExpenseService) Update(ownerID, id string, update ExpenseUpdate) (models.Expense, error) {
	expense, err := s.GetByID(ownerID, id)
	if err != nil {
		return models.Expense{}, err
	}

	if update.Amount != nil {
		expense.Amount = *update.Amount
	}
	if update.Category != nil {
		expense.Category = *update.Category
	}
	if update.Notes != nil {
		expense.Notes = *update.Notes
	}
	if update.Date != nil {
		expense.Date = update.Date.UTC()
	}
	if update.PaymentMode != nil {
		expense.PaymentMode = *update.PaymentMode
	}

	if err := validateExpense(expense.Amount, expense.Category, expense.Notes, expense.Date, expense.PaymentMode); err != nil {
		return models.Expense{}, err
	}

	expense.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(
		"UPDATE expenses SET amount = ?, category = ?, notes = ?, date = ?, payment_mode = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		expense.Amount, expense.Category, expense.Notes, expense.Date, expense.PaymentMode, expense.UpdatedAt, id, ownerID,
	)
	if err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

// Delete permanently removes one of the user's expenses.
func (s *ExpenseService) Delete(ownerID, id string) error {
	res, err := s.db.Exec("DELETE FROM expenses WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// Analytics computes the monthly, summary and per-category aggregates over
// all of the user's expenses.
func (s *ExpenseService) Analytics(ownerID string) (models.Analytics, error) {
	analytics := models.Analytics{
		MonthlyData:       []models.MonthlyData{},
		CategoryBreakdown: []models.CategoryTotal{},
	}

	rows, err := s.db.Query(`
		SELECT CAST(strftime('%Y', date) AS INTEGER) AS year,
		       CAST(strftime('%m', date) AS INTEGER) AS month,
		       category, SUM(amount), COUNT(*)
		FROM expenses
		WHERE user_id = ?
		GROUP BY year, month, category
		ORDER BY year, month, SUM(amount) DESC`, ownerID)
	if err != nil {
		return models.Analytics{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var year, month, count int
		var category models.Category
		var amount float64
		if err := rows.Scan(&year, &month, &category, &amount, &count); err != nil {
			return models.Analytics{}, err
		}

		n := len(analytics.MonthlyData)
		if n == 0 || analytics.MonthlyData[n-1].Year != year || analytics.MonthlyData[n-1].Month != month {
			analytics.MonthlyData = append(analytics.MonthlyData, models.MonthlyData{Year: year, Month: month})
			n++
		}
		md := &analytics.MonthlyData[n-1]
		md.Categories = append(md.Categories, models.MonthCategoryAmount{Category: category, Amount: amount, Count: count})
		md.TotalAmount += amount
	}
	if err := rows.Err(); err != nil {
		return models.Analytics{}, err
	}

	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0), COUNT(*), COALESCE(AVG(amount), 0)
		FROM expenses
		WHERE user_id = ?`, ownerID).
		Scan(&analytics.Summary.TotalExpenses, &analytics.Summary.TotalTransactions, &analytics.Summary.AvgExpense)
	if err != nil {
		return models.Analytics{}, err
	}

	breakdown, err := s.db.Query(`
		SELECT category, SUM(amount), COUNT(*)
		FROM expenses
		WHERE user_id = ?
		GROUP BY category
		ORDER BY SUM(amount) DESC`, ownerID)
	if err != nil {
		return models.Analytics{}, err
	}
	defer breakdown.Close()

	for breakdown.Next() {
		var ct models.CategoryTotal
		if err := breakdown.Scan(&ct.Category, &ct.TotalAmount, &ct.Count); err != nil {
			return models.Analytics{}, err
		}
		analytics.CategoryBreakdown = append(analytics.CategoryBreakdown, ct)
	}
	if err := breakdown.Err(); err != nil {
		return models.Analytics{}, err
	}

	return analytics, nil
}
