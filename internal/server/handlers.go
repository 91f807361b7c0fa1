package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/amit429/billbreak/internal/bill"
	"github.com/amit429/billbreak/internal/demo"
	"github.com/amit429/billbreak/internal/models"
	"github.com/amit429/billbreak/internal/receipt"
	"github.com/amit429/billbreak/internal/session"
)

// decode reads and validates the JSON request body into dst. On failure it
// writes the error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

// apply runs one transition against the request's session and responds with
// the new snapshot. Unknown item or participant ids inside a valid session
// are no-ops by design: the response is simply the unchanged snapshot.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, op bill.Op) {
	s.swap(w, r, func(st models.BillState) models.BillState {
		return bill.Apply(st, op)
	})
}

// swap runs fn atomically against the session and responds with the new
// snapshot. Handlers whose transition depends on the current state go
// through here directly.
func (s *Server) swap(w http.ResponseWriter, r *http.Request, fn func(models.BillState) models.BillState) {
	id := chi.URLParam(r, "sessionID")
	state, err := s.registry.Swap(id, fn)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found", "unknown or expired session")
			return
		}
		slog.Error("Transition failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not apply operation")
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, state))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id := s.registry.Create()
	slog.Info("Session created", "session_id", id)
	writeJSON(w, http.StatusCreated, snapshot(id, models.BillState{}))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	state, err := s.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown or expired session")
		return
	}
	writeJSON(w, http.StatusOK, snapshot(id, state))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s.registry.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, bill.AddParticipant{Name: req.Name})
}

func (s *Server) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, bill.RemoveParticipant{ID: chi.URLParam(r, "participantID")})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, bill.AddItem{Name: req.Name, UnitPrice: req.UnitPrice, Quantity: req.Quantity})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, bill.UpdateItem{
		ID:        chi.URLParam(r, "itemID"),
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, bill.RemoveItem{ID: chi.URLParam(r, "itemID")})
}

func (s *Server) handleSelectItem(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, bill.SelectItem{ID: chi.URLParam(r, "itemID")})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, bill.SelectItem{})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, bill.Assign{
		ItemID:        chi.URLParam(r, "itemID"),
		ParticipantID: chi.URLParam(r, "participantID"),
		Quantity:      req.Quantity,
	})
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, bill.Unassign{
		ItemID:        chi.URLParam(r, "itemID"),
		ParticipantID: chi.URLParam(r, "participantID"),
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, bill.Toggle{
		ItemID:        chi.URLParam(r, "itemID"),
		ParticipantID: req.ParticipantID,
	})
}

func (s *Server) handleAssignAll(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, bill.AssignAll{ItemID: chi.URLParam(r, "itemID")})
}

func (s *Server) handleUnassignAll(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, bill.UnassignAll{ItemID: chi.URLParam(r, "itemID")})
}

func (s *Server) handleSetTax(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, bill.SetTax{Amount: req.Amount})
}

func (s *Server) handleSetTip(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, bill.SetTip{Amount: req.Amount})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, bill.Reset{})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.apply(w, r, loadOp(req))
}

// handleLoadDemo replaces the bill with the canned sample but keeps any
// participants already added, so trying the demo after naming the table
// does not throw the names away.
func (s *Server) handleLoadDemo(w http.ResponseWriter, r *http.Request) {
	items, tax := demo.Bill()
	s.swap(w, r, func(st models.BillState) models.BillState {
		return bill.Apply(st, bill.Load{
			Items:        items,
			Participants: st.Participants,
			TaxAmount:    tax,
		})
	})
}

// handleParseReceipt forwards the image to the parsing collaborator and
// returns the coerced items for client confirmation. It never mutates the
// bill: the client follows up with a load call once the user confirms.
func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		writeError(w, http.StatusServiceUnavailable, "parsing_unavailable", "receipt parsing is not configured")
		return
	}

	id := chi.URLParam(r, "sessionID")
	if _, err := s.registry.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown or expired session")
		return
	}

	var req parseReceiptRequest
	if !s.decode(w, r, &req) {
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_image", "image_base64 is not valid base64")
		return
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parsed, err := s.parser.Parse(r.Context(), image, mimeType)
	if err != nil {
		slog.Error("Receipt parse failed", "session_id", id, "error", err)
		if errors.Is(err, receipt.ErrParseFailed) {
			writeError(w, http.StatusUnprocessableEntity, "parsing_failed", "could not extract items from the receipt")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "receipt parsing failed")
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

// loadOp maps a validated load request into the bulk-replace transition,
// minting ids and palette colors for the incoming names.
func loadOp(req loadRequest) bill.Load {
	items := make([]models.LineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = models.LineItem{
			ID:        uuid.NewString(),
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
	}
	participants := make([]models.Participant, len(req.Participants))
	for i, name := range req.Participants {
		participants[i] = models.Participant{
			ID:    uuid.NewString(),
			Name:  name,
			Color: models.NextColor(i),
		}
	}
	return bill.Load{Items: items, Participants: participants, TaxAmount: req.TaxAmount}
}
