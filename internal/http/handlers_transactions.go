package http

import (
	"errors"
	"net/http"

	"finbook/internal/core"
)

type transactionListPage struct {
	Transactions []core.Transaction
}

type transactionFormPage struct {
	Transaction core.Transaction
	Accounts    []core.Account
	Categories  []core.Category
	Error       string
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context(), userID(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, "transactions.html", "Transactions", "transactions", transactionListPage{Transactions: txs})
}

func (s *Server) handleTransactionForm(w http.ResponseWriter, r *http.Request) {
	data := transactionFormPage{}

	if r.PathValue("id") != "" {
		id, err := pathID(r)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		tx, err := s.store.GetTransaction(r.Context(), userID(r), id)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		data.Transaction = tx
	}

	if err := s.fillTransactionForm(r, &data); err != nil {
		s.renderError(w, r, err)
		return
	}

	title := "New transaction"
	if data.Transaction.ID != 0 {
		title = "Edit transaction"
	}
	s.render(w, r, "transaction_form.html", title, "transactions", data)
}

func (s *Server) fillTransactionForm(r *http.Request, data *transactionFormPage) error {
	accounts, err := s.store.ListAccounts(r.Context(), userID(r))
	if err != nil {
		return err
	}
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		return err
	}
	data.Accounts = accounts
	data.Categories = categories
	return nil
}

// transactionFromForm builds a transaction from POST data. Amount and
// date errors come back as a user message, not a Go error string.
func transactionFromForm(r *http.Request) (core.Transaction, string) {
	tx := core.Transaction{
		AccountID:   formInt64(r, "account_id"),
		CategoryID:  formInt64(r, "category_id"),
		Type:        core.TransactionType(formValue(r, "type")),
		Description: formValue(r, "description"),
	}

	amount, err := core.ParseMoney(r.FormValue("amount"))
	if err != nil || amount.Cents <= 0 {
		return tx, "Please enter a positive amount."
	}
	tx.Amount = amount

	date, err := core.ParseDate(r.FormValue("date"))
	if err != nil {
		return tx, "Please enter a valid date (YYYY-MM-DD)."
	}
	tx.Date = date

	if err := tx.Validate(); err != nil {
		return tx, err.Error()
	}
	return tx, ""
}

func (s *Server) renderTransactionFormError(w http.ResponseWriter, r *http.Request, tx core.Transaction, msg string) {
	data := transactionFormPage{Transaction: tx, Error: msg}
	if err := s.fillTransactionForm(r, &data); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, "transaction_form.html", "Transaction", "transactions", data)
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	tx, msg := transactionFromForm(r)
	if msg != "" {
		s.renderTransactionFormError(w, r, tx, msg)
		return
	}

	uid := userID(r)
	if _, err := s.txs.CreateTransaction(r.Context(), uid, tx); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.renderTransactionFormError(w, r, tx, "Account not found.")
			return
		}
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(uid)
	setFlash(w, "success", "Transaction recorded.")
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleTransactionUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	tx, msg := transactionFromForm(r)
	if msg != "" {
		s.renderTransactionFormError(w, r, tx, msg)
		return
	}
	tx.ID = id

	uid := userID(r)
	if err := s.txs.UpdateTransaction(r.Context(), uid, tx); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(uid)
	setFlash(w, "success", "Transaction updated.")
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	uid := userID(r)
	if err := s.txs.DeleteTransaction(r.Context(), uid, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			setFlash(w, "error", "Transaction not found.")
			http.Redirect(w, r, "/transactions", http.StatusSeeOther)
			return
		}
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(uid)
	setFlash(w, "success", "Transaction deleted.")
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

const searchLimit = 20

type searchPage struct {
	Query   string
	Results []core.Transaction
}

// handleSearch matches the query against transaction descriptions,
// category names and account names.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := sanitizeInput(r.URL.Query().Get("q"))

	var results []core.Transaction
	if query != "" {
		var err error
		results, err = s.store.SearchTransactions(r.Context(), userID(r), query, searchLimit)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
	}

	s.render(w, r, "search.html", "Search", "search", searchPage{
		Query:   query,
		Results: results,
	})
}
