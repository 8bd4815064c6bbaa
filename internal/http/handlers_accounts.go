package http

import (
	"errors"
	"net/http"

	"finbook/internal/core"
)

type accountListPage struct {
	Accounts []core.Account
}

type accountFormPage struct {
	Account    core.Account
	Currencies []core.Currency
	Error      string
}

func (s *Server) handleAccountList(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context(), userID(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, "accounts.html", "Accounts", "accounts", accountListPage{Accounts: accounts})
}

// handleAccountForm serves both the new and the edit form.
func (s *Server) handleAccountForm(w http.ResponseWriter, r *http.Request) {
	data := accountFormPage{}

	if r.PathValue("id") != "" {
		id, err := pathID(r)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		account, err := s.store.GetAccount(r.Context(), userID(r), id)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		data.Account = account
	}

	currencies, err := s.store.ListCurrencies(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	data.Currencies = currencies

	title := "New account"
	if data.Account.ID != 0 {
		title = "Edit account"
	}
	s.render(w, r, "account_form.html", title, "accounts", data)
}

func (s *Server) accountFromForm(r *http.Request) core.Account {
	return core.Account{
		UserID:     userID(r),
		Name:       formValue(r, "name"),
		Type:       core.AccountType(formValue(r, "type")),
		CurrencyID: formInt64(r, "currency_id"),
	}
}

func (s *Server) renderAccountFormError(w http.ResponseWriter, r *http.Request, a core.Account, msg string) {
	currencies, err := s.store.ListCurrencies(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, "account_form.html", "Account", "accounts", accountFormPage{
		Account:    a,
		Currencies: currencies,
		Error:      msg,
	})
}

func (s *Server) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	account := s.accountFromForm(r)
	if err := account.Validate(); err != nil {
		s.renderAccountFormError(w, r, account, err.Error())
		return
	}

	if _, err := s.store.CreateAccount(r.Context(), account); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(account.UserID)
	setFlash(w, "success", "Account created.")
	http.Redirect(w, r, "/accounts", http.StatusSeeOther)
}

func (s *Server) handleAccountUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	account := s.accountFromForm(r)
	account.ID = id
	if err := account.Validate(); err != nil {
		s.renderAccountFormError(w, r, account, err.Error())
		return
	}

	if err := s.store.UpdateAccount(r.Context(), account); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(account.UserID)
	setFlash(w, "success", "Account updated.")
	http.Redirect(w, r, "/accounts", http.StatusSeeOther)
}

func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	uid := userID(r)
	if err := s.store.DeleteAccount(r.Context(), uid, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			setFlash(w, "error", "Account not found.")
			http.Redirect(w, r, "/accounts", http.StatusSeeOther)
			return
		}
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(uid)
	setFlash(w, "success", "Account deleted.")
	http.Redirect(w, r, "/accounts", http.StatusSeeOther)
}
