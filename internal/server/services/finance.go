package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/finance"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
)

// NewTransaction is the raw form input; Amount accepts pt-BR formatting.
type NewTransaction struct {
	Title       string
	Description string
	Amount      string
	Kind        string
	Category    string
	Date        string
}

// MonthReport is everything the finance page shows for one month.
type MonthReport struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	finance.Summary
	Categories []finance.CategoryTotal `json:"categories"`
	Daily      []finance.DayFlow       `json:"daily"`
}

type FinanceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFinanceService(db *sql.DB, m repomanager.RepositoryManager) *FinanceService {
	return &FinanceService{db: db, repomanager: m}
}

// AddTransaction validates in and stores one ledger row for userID.
func (s *FinanceService) AddTransaction(ctx context.Context, userID string, in NewTransaction) (*models.Transaction, error) {
	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	date := strings.TrimSpace(in.Date)
	kind := models.TransactionKind(strings.TrimSpace(in.Kind))

	if title == "" || category == "" || date == "" || strings.TrimSpace(in.Amount) == "" {
		return nil, common.NewValidationError("title, amount, category and date are required")
	}
	if !kind.Valid() {
		return nil, common.NewValidationError("type must be income or expense")
	}
	if !finance.ValidDate(date) {
		return nil, common.NewValidationError("date must be YYYY-MM-DD")
	}
	amount, err := finance.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	t := &models.Transaction{
		UserID:   userID,
		Title:    title,
		Amount:   amount,
		Kind:     kind,
		Category: category,
		Date:     date,
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		t.Description = &d
	}

	created, err := s.repomanager.Transactions(s.db).Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("error creating transaction: %w", err)
	}
	return created, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.repomanager.Transactions(s.db).Delete(ctx, userID, id)
}

// GetMonthlySummary totals the caller's rows dated within the month.
func (s *FinanceService) GetMonthlySummary(ctx context.Context, userID string, year, month int) (*finance.Summary, error) {
	from, to, _, err := finance.MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	txs, err := s.repomanager.Transactions(s.db).ListByDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	sum := finance.Summarize(txs)
	return &sum, nil
}

// GetMonthReport adds the category breakdown and daily flow to the summary.
func (s *FinanceService) GetMonthReport(ctx context.Context, userID string, year, month int) (*MonthReport, error) {
	from, to, days, err := finance.MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	txs, err := s.repomanager.Transactions(s.db).ListByDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	return &MonthReport{
		Year:       year,
		Month:      month,
		Summary:    finance.Summarize(txs),
		Categories: finance.CategoryBreakdown(txs),
		Daily:      finance.DailyFlow(txs, days),
	}, nil
}
