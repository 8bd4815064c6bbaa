package http

import (
	"net/http"
	"strings"

	"finbook/internal/core"
)

type categoryListPage struct {
	Expense []core.Category
	Income  []core.Category
	Error   string
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	s.renderCategoryList(w, r, "")
}

func (s *Server) renderCategoryList(w http.ResponseWriter, r *http.Request, errMsg string) {
	expense, err := s.store.ListCategoriesByType(r.Context(), core.CategoryExpense)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	income, err := s.store.ListCategoriesByType(r.Context(), core.CategoryIncome)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.render(w, r, "categories.html", "Categories", "categories", categoryListPage{
		Expense: expense,
		Income:  income,
		Error:   errMsg,
	})
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	category := core.Category{
		Name: formValue(r, "name"),
		Type: core.CategoryType(formValue(r, "type")),
		Icon: formValue(r, "icon"),
	}
	if err := category.Validate(); err != nil {
		s.renderCategoryList(w, r, err.Error())
		return
	}

	if _, err := s.store.CreateCategory(r.Context(), category); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			s.renderCategoryList(w, r, "A category with that name and type already exists.")
			return
		}
		s.renderError(w, r, err)
		return
	}

	setFlash(w, "success", "Category created.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}
