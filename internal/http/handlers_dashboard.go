package http

import (
	"net/http"

	"finbook/internal/core"
	"finbook/internal/log"
)

type dashboardPage struct {
	Summary core.DashboardSummary
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	summary, err := s.getSummary(r.Context(), uid)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard summary failed", log.FieldError, err, log.FieldUserID, uid)
		s.renderError(w, r, err)
		return
	}

	s.render(w, r, "dashboard.html", "Dashboard", "dashboard", dashboardPage{Summary: summary})
}

type analyticsPage struct {
	ExpenseTotals []core.CategoryTotal
	IncomeTotals  []core.CategoryTotal
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	expenses, err := s.store.CategoryTotals(r.Context(), uid, core.CategoryExpense)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	income, err := s.store.CategoryTotals(r.Context(), uid, core.CategoryIncome)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.render(w, r, "analytics.html", "Analytics", "analytics", analyticsPage{
		ExpenseTotals: expenses,
		IncomeTotals:  income,
	})
}
