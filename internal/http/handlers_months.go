package http

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"finanzas/internal/core"
)

// defaultCalendarMonths is the range of /calendar.ics without ?months.
const defaultCalendarMonths = 3

func (s *Server) handleMonthKpis(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r, "ym")
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.svc.Months.Kpis(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleMonthIncomes(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r, "ym")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ins, err := s.svc.Incomes.IncomesFor(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (s *Server) handleMonthBudgets(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r, "ym")
	if err != nil {
		writeError(w, r, err)
		return
	}
	bs, err := s.svc.Budgets.BudgetsFor(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

// handleCalendar serves the payment calendar starting at ?from=YYYY-MM
// (default: current month) for ?months=N months.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	from := core.YearMonthOf(core.DateOf(time.Now()))
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		parsed, err := core.ParseYearMonth(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		from = parsed
	}
	months, err := queryInt(r, "months", defaultCalendarMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Calendar.Write(r.Context(), &buf, from, months); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="finanzas.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
