package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/splitbooks-dev/splitbooks/internal/engine"
	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
	"github.com/splitbooks-dev/splitbooks/internal/review"
)

func (s *Server) getBalance(w http.ResponseWriter, _ *http.Request) {
	rep := s.rec.FinalBalance()
	observeBalance(rep.Posted, rep.Deferred)
	toJSON(w, http.StatusOK, toBalanceResponse(rep, s.roster))
}

func (s *Server) getAudit(w http.ResponseWriter, _ *http.Request) {
	entries := s.rec.AuditTrail()
	items := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toAuditEntryResponse(e, s.roster))
	}
	toJSON(w, http.StatusOK, auditResponse{Items: items})
}

func (s *Server) getReviews(w http.ResponseWriter, _ *http.Request) {
	pending := s.rec.PendingReview()
	items := make([]reviewItemResponse, 0, len(pending))
	for _, it := range pending {
		items = append(items, toReviewItemResponse(it, s.roster))
	}
	pendingReviews.Set(float64(len(items)))
	toJSON(w, http.StatusOK, reviewsResponse{Items: items})
}

func (s *Server) resolveReview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid review item id")
		return
	}

	var req resolveRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}

	decision, err := req.toDecision()
	if err != nil {
		unprocessable(w, err.Error())
		return
	}

	entry, err := s.rec.ResolveReview(id, decision)
	switch {
	case err == nil:
	case errors.Is(err, review.ErrNotFound):
		notFound(w)
		return
	case errors.Is(err, review.ErrAlreadyResolved):
		conflict(w, err.Error())
		return
	case errors.Is(err, engine.ErrHalted):
		writeErr(w, http.StatusServiceUnavailable, err.Error(), "halted")
		return
	default:
		unprocessable(w, err.Error())
		return
	}

	rep := s.rec.FinalBalance()
	observeBalance(rep.Posted, rep.Deferred)
	s.log.Info("review resolved",
		"id", id.String(),
		"category", string(decision.Category),
		"resolved_by", decision.ResolvedBy,
	)
	toJSON(w, http.StatusOK, resolveResponse{
		Entry:   toAuditEntryResponse(entry, s.roster),
		Balance: toBalanceResponse(rep, s.roster),
	})
}

// resolveRequest is the reviewer's decision. Shares are decimal
// strings; floats have no business on a money path.
type resolveRequest struct {
	Category   string `json:"category"`
	ShareA     string `json:"share_a"`
	ShareB     string `json:"share_b"`
	Note       string `json:"note,omitempty"`
	ResolvedBy string `json:"resolved_by"`
}

func (r resolveRequest) toDecision() (model.ReviewDecision, error) {
	var d model.ReviewDecision
	var err error

	if d.Category, err = model.ParseCategory(r.Category); err != nil {
		return model.ReviewDecision{}, err
	}
	if d.Shares.PartyA, err = money.Parse(r.ShareA); err != nil {
		return model.ReviewDecision{}, errors.New("share_a: " + err.Error())
	}
	if d.Shares.PartyB, err = money.Parse(r.ShareB); err != nil {
		return model.ReviewDecision{}, errors.New("share_b: " + err.Error())
	}
	if r.ResolvedBy == "" {
		return model.ReviewDecision{}, errors.New("resolved_by is required")
	}
	d.Note = r.Note
	d.ResolvedBy = r.ResolvedBy
	d.ResolvedAt = time.Now().UTC()
	return d, nil
}
