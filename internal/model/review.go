package model

import "time"

// ReviewStatus is the lifecycle state of a manual review item.
type ReviewStatus string

const (
	ReviewOpen     ReviewStatus = "open"
	ReviewResolved ReviewStatus = "resolved"
)

// ReviewDecision is what a reviewer supplies to resolve an item. The
// decision bypasses the classifier but still passes share validation
// and ledger posting.
type ReviewDecision struct {
	Category   Category
	Shares     Shares
	Note       string
	ResolvedBy string
	ResolvedAt time.Time
}

// ReviewItem is a transaction the engine refused to post. It keeps the
// item ID equal to the transaction ID.
type ReviewItem struct {
	Transaction Transaction
	Reasons     []string
	Status      ReviewStatus
	Decision    *ReviewDecision
}
