package http

import (
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

type spentRequest struct {
	Amount float64 `json:"amount"`
}

// handleCreateItem accepts the tagged union {"kind": ..., "data": {...}}.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var p services.ItemPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.Items.CreateItem(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.svc.Debts.ListDebts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Debts.DeleteDebt(r.Context(), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDebtSchedule(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Debts.Schedule(r.Context(), pathVar(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []services.ScheduleEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDebtPayment(w http.ResponseWriter, r *http.Request) {
	var p core.DebtPayment
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Debts.RegisterPayment(r.Context(), pathVar(r, "id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDebtPrepayment(w http.ResponseWriter, r *http.Request) {
	var p core.Prepayment
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Debts.ApplyPrepayment(r.Context(), pathVar(r, "id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	fes, err := s.svc.Expenses.ListFixedExpenses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fes)
}

func (s *Server) handleDeleteFixedExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Expenses.DeleteFixedExpense(r.Context(), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordExecution(w http.ResponseWriter, r *http.Request) {
	var e core.Execution
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	fe, err := s.svc.Expenses.RecordExecution(r.Context(), pathVar(r, "id"), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fe)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Incomes.DeleteIncome(r.Context(), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIncomeReceipt(w http.ResponseWriter, r *http.Request) {
	var rc services.Receipt
	if err := decodeJSON(w, r, &rc); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.svc.Incomes.MarkReceived(r.Context(), pathVar(r, "id"), rc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Budgets.DeleteBudget(r.Context(), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetSpent(w http.ResponseWriter, r *http.Request) {
	var req spentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.AddSpent(r.Context(), pathVar(r, "id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
