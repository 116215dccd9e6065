package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/services"
)

// amountText accepts both "1.234,56" and 1234.56.
type amountText string

func (t *amountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = amountText(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = amountText(n.String())
	return nil
}

type transactionRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Amount      amountText `json:"amount"`
	Kind        string     `json:"type"`
	Category    string     `json:"category"`
	Date        string     `json:"date"`
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	year, month, err := a.yearMonth(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	s, err := a.Ledger.GetMonthlySummary(r.Context(), UserID(r.Context()), year, month)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, s)
}

func (a *API) financeReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := a.yearMonth(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	rep, err := a.Ledger.GetMonthReport(r.Context(), UserID(r.Context()), year, month)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rep)
}

func (a *API) addTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	tx, err := a.Ledger.AddTransaction(r.Context(), UserID(r.Context()), services.NewTransaction{
		Title:       in.Title,
		Description: in.Description,
		Amount:      string(in.Amount),
		Kind:        in.Kind,
		Category:    in.Category,
		Date:        in.Date,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, tx)
}

func (a *API) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeOK(w)
		return
	}
	if err := a.Ledger.DeleteTransaction(r.Context(), UserID(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}

// yearMonth reads ?year=&month=, defaulting each to the current one.
func (a *API) yearMonth(r *http.Request) (int, int, error) {
	now := a.now()
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, common.NewValidationError("year must be a number")
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, common.NewValidationError("month must be a number")
		}
		month = n
	}
	return year, month, nil
}
