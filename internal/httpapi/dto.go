package httpapi

import (
	"github.com/google/uuid"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
)

const dateFormat = "2006-01-02"

type balanceResponse struct {
	Settled       bool   `json:"settled"`
	OwingParty    string `json:"owing_party,omitempty"`
	OwedParty     string `json:"owed_party,omitempty"`
	Amount        string `json:"amount"`
	Posted        int    `json:"posted"`
	Deferred      int    `json:"deferred"`
	DeferredTotal string `json:"deferred_total"`
	Skipped       int    `json:"skipped"`
}

func toBalanceResponse(rep model.BalanceReport, roster model.Roster) balanceResponse {
	resp := balanceResponse{
		Settled:       rep.Owing == model.PartyNone,
		Amount:        rep.Amount.StringFixed(money.Places),
		Posted:        rep.Posted,
		Deferred:      rep.Deferred,
		DeferredTotal: rep.DeferredTotal.StringFixed(money.Places),
		Skipped:       rep.Skipped,
	}
	if !resp.Settled {
		resp.OwingParty = roster.Name(rep.Owing)
		resp.OwedParty = roster.Name(rep.Owing.Other())
	}
	return resp
}

type balancesBody struct {
	ReceivableA string `json:"receivable_a"`
	PayableA    string `json:"payable_a"`
	ReceivableB string `json:"receivable_b"`
	PayableB    string `json:"payable_b"`
}

type auditEntryResponse struct {
	Seq         int          `json:"seq"`
	ID          uuid.UUID    `json:"id"`
	Source      string       `json:"source"`
	Date        string       `json:"date"`
	Payer       string       `json:"payer"`
	Description string       `json:"description"`
	Amount      string       `json:"amount"`
	Category    string       `json:"category"`
	Confidence  float64      `json:"confidence"`
	ShareA      string       `json:"share_a"`
	ShareB      string       `json:"share_b"`
	Notes       []string     `json:"notes,omitempty"`
	Balances    balancesBody `json:"balances"`
}

func toAuditEntryResponse(e model.AuditEntry, roster model.Roster) auditEntryResponse {
	t := e.Transaction
	return auditEntryResponse{
		Seq:         e.Seq,
		ID:          t.ID,
		Source:      t.Source.String(),
		Date:        t.Date.Format(dateFormat),
		Payer:       roster.Name(t.Payer),
		Description: t.Description,
		Amount:      t.Amount.StringFixed(money.Places),
		Category:    string(t.Category),
		Confidence:  t.Confidence,
		ShareA:      t.Shares.PartyA.StringFixed(money.Places),
		ShareB:      t.Shares.PartyB.StringFixed(money.Places),
		Notes:       t.Notes,
		Balances: balancesBody{
			ReceivableA: e.Balances.ReceivableA.StringFixed(money.Places),
			PayableA:    e.Balances.PayableA.StringFixed(money.Places),
			ReceivableB: e.Balances.ReceivableB.StringFixed(money.Places),
			PayableB:    e.Balances.PayableB.StringFixed(money.Places),
		},
	}
}

type auditResponse struct {
	Items []auditEntryResponse `json:"items"`
}

type reviewItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Source      string    `json:"source"`
	Date        string    `json:"date"`
	Payer       string    `json:"payer"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category,omitempty"`
	Reasons     []string  `json:"reasons"`
	Status      string    `json:"status"`
}

func toReviewItemResponse(it model.ReviewItem, roster model.Roster) reviewItemResponse {
	t := it.Transaction
	return reviewItemResponse{
		ID:          t.ID,
		Source:      t.Source.String(),
		Date:        t.Date.Format(dateFormat),
		Payer:       roster.Name(t.Payer),
		Description: t.Description,
		Amount:      t.Amount.StringFixed(money.Places),
		Category:    string(t.Category),
		Reasons:     it.Reasons,
		Status:      string(it.Status),
	}
}

type reviewsResponse struct {
	Items []reviewItemResponse `json:"items"`
}

type resolveResponse struct {
	Entry   auditEntryResponse `json:"entry"`
	Balance balanceResponse    `json:"balance"`
}
