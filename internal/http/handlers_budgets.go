package http

import (
	"errors"
	"net/http"

	"finbook/internal/core"
)

type budgetListPage struct {
	Budgets []core.Budget
	Today   core.Date
}

type budgetFormPage struct {
	Budget     core.Budget
	Categories []core.Category
	Error      string
}

func (s *Server) handleBudgetList(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context(), userID(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, "budgets.html", "Budgets", "budgets", budgetListPage{
		Budgets: budgets,
		Today:   core.Today(),
	})
}

func (s *Server) handleBudgetForm(w http.ResponseWriter, r *http.Request) {
	data := budgetFormPage{}

	if r.PathValue("id") != "" {
		id, err := pathID(r)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		budget, err := s.store.GetBudget(r.Context(), userID(r), id)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		data.Budget = budget
	}

	// Budgets track spending, so only expense categories apply.
	categories, err := s.store.ListCategoriesByType(r.Context(), core.CategoryExpense)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	data.Categories = categories

	title := "New budget"
	if data.Budget.ID != 0 {
		title = "Edit budget"
	}
	s.render(w, r, "budget_form.html", title, "budgets", data)
}

func (s *Server) budgetFromForm(r *http.Request) (core.Budget, string) {
	b := core.Budget{
		UserID:     userID(r),
		CategoryID: formInt64(r, "category_id"),
		Name:       formValue(r, "name"),
	}

	amount, err := core.ParseMoney(r.FormValue("amount"))
	if err != nil || amount.Cents <= 0 {
		return b, "Please enter a positive amount."
	}
	b.Amount = amount

	start, err := core.ParseDate(r.FormValue("start_date"))
	if err != nil {
		return b, "Please enter a valid start date (YYYY-MM-DD)."
	}
	b.StartDate = start

	if v := formValue(r, "end_date"); v != "" {
		end, err := core.ParseDate(v)
		if err != nil {
			return b, "Please enter a valid end date (YYYY-MM-DD)."
		}
		b.EndDate = end
	}

	if err := b.Validate(); err != nil {
		return b, err.Error()
	}
	return b, ""
}

func (s *Server) renderBudgetFormError(w http.ResponseWriter, r *http.Request, b core.Budget, msg string) {
	categories, err := s.store.ListCategoriesByType(r.Context(), core.CategoryExpense)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, "budget_form.html", "Budget", "budgets", budgetFormPage{
		Budget:     b,
		Categories: categories,
		Error:      msg,
	})
}

func (s *Server) handleBudgetCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	budget, msg := s.budgetFromForm(r)
	if msg != "" {
		s.renderBudgetFormError(w, r, budget, msg)
		return
	}

	if _, err := s.store.CreateBudget(r.Context(), budget); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(budget.UserID)
	setFlash(w, "success", "Budget created.")
	http.Redirect(w, r, "/budgets", http.StatusSeeOther)
}

func (s *Server) handleBudgetUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	budget, msg := s.budgetFromForm(r)
	if msg != "" {
		s.renderBudgetFormError(w, r, budget, msg)
		return
	}
	budget.ID = id

	if err := s.store.UpdateBudget(r.Context(), budget); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(budget.UserID)
	setFlash(w, "success", "Budget updated.")
	http.Redirect(w, r, "/budgets", http.StatusSeeOther)
}

func (s *Server) handleBudgetDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	uid := userID(r)
	if err := s.store.DeleteBudget(r.Context(), uid, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			setFlash(w, "error", "Budget not found.")
			http.Redirect(w, r, "/budgets", http.StatusSeeOther)
			return
		}
		s.renderError(w, r, err)
		return
	}

	s.invalidateSummary(uid)
	setFlash(w, "success", "Budget deleted.")
	http.Redirect(w, r, "/budgets", http.StatusSeeOther)
}
