package http

import (
	"net/http"
	"strings"

	"finanzas/internal/billing"
	"finanzas/internal/core"
	"finanzas/internal/services"
)

type periodsResponse struct {
	Closing billing.Period `json:"closing"`
	Due     billing.Period `json:"due"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.Cards.ListCards(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.svc.Cards.GetCard(r.Context(), pathVar(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in core.CreditCard
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	card, err := s.svc.Cards.CreateCard(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	card, err := s.svc.Cards.UpdateCard(r.Context(), pathVar(r, "id"), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Cards.DeleteCard(r.Context(), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCardPeriods(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r, "ym")
	if err != nil {
		writeError(w, r, err)
		return
	}
	closing, due, err := s.svc.Cards.Periods(r.Context(), pathVar(r, "id"), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periodsResponse{Closing: closing, Due: due})
}

// handleListConsumptions lists a card's consumptions, optionally only those
// closing in ?month=YYYY-MM.
func (s *Server) handleListConsumptions(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")
	if _, err := s.svc.Cards.GetCard(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	var ym core.YearMonth
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		parsed, err := core.ParseYearMonth(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ym = parsed
	}
	cs, err := s.svc.Cards.Consumptions(r.Context(), id, ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) handleAddConsumption(w http.ResponseWriter, r *http.Request) {
	var in billing.PurchaseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.Cards.AddConsumption(r.Context(), pathVar(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleEditConsumption(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Cards.EditConsumption(r.Context(), pathVar(r, "id"), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteConsumption(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Cards.DeleteConsumption(r.Context(), pathVar(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListStatements(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")
	if _, err := s.svc.Cards.GetCard(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	sts, err := s.svc.Cards.Statements(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sts)
}

func (s *Server) handlePayStatement(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r, "ym")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p services.StatementPayment
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.svc.Cards.MarkStatementPaid(r.Context(), pathVar(r, "id"), ym, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
