// Package classify maps free-text transaction descriptions to
// allocation categories using ordered keyword rules. Matching is
// deterministic and explainable; anything the rules cannot resolve
// confidently is routed to manual review, never guessed.
package classify

import (
	"fmt"
	"strings"

	"github.com/splitbooks-dev/splitbooks/internal/model"
)

// Rule matches a set of case-insensitive substrings against a
// description. Base is the confidence granted when every keyword in
// the set matches; partial matches scale it down proportionally.
type Rule struct {
	Category model.Category
	Keywords []string
	Base     float64
}

// Result is one classification outcome. ForceReview set means a
// needs-human-judgment keyword fired and the category must not be
// trusted regardless of confidence.
type Result struct {
	Category    model.Category
	Confidence  float64
	Matched     []string
	Reason      string
	ForceReview bool
}

// Classifier evaluates rules in a fixed order: narrow, high-stakes
// categories are listed before the shared default, and the first rule
// with any keyword match wins.
type Classifier struct {
	rules     []Rule
	review    []string
	threshold float64
	fallback  float64
}

// New validates the policy and builds a classifier. reviewKeywords is
// the needs-human-judgment list; fallback is the confidence assigned
// when no rule matches and the description defaults to shared.
func New(rules []Rule, reviewKeywords []string, threshold, fallback float64) (*Classifier, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("confidence threshold %v out of range (0,1]", threshold)
	}
	if fallback < 0 || fallback > 1 {
		return nil, fmt.Errorf("fallback confidence %v out of range [0,1]", fallback)
	}
	prepared := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if !r.Category.Valid() {
			return nil, fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
		if r.Base <= 0 || r.Base > 1 {
			return nil, fmt.Errorf("rule %d (%s): base confidence %v out of range (0,1]", i, r.Category, r.Base)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, r.Category)
		}
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				return nil, fmt.Errorf("rule %d (%s): blank keyword", i, r.Category)
			}
			kw = append(kw, k)
		}
		prepared = append(prepared, Rule{Category: r.Category, Keywords: kw, Base: r.Base})
	}
	review := make([]string, 0, len(reviewKeywords))
	for _, k := range reviewKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			review = append(review, k)
		}
	}
	return &Classifier{rules: prepared, review: review, threshold: threshold, fallback: fallback}, nil
}

// Threshold returns the auto-post confidence boundary.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify scores a description for the given payer. The review-keyword
// pass runs first and overrides any rule match. Current policy keys only
// off the description; the payer is part of the contract so rules can
// grow payer-sensitive without changing callers.
func (c *Classifier) Classify(description string, payer model.Party) Result {
	lower := strings.ToLower(description)

	for _, k := range c.review {
		if strings.Contains(lower, k) {
			return Result{
				ForceReview: true,
				Matched:     []string{k},
				Reason:      fmt.Sprintf("needs human judgment: description contains %q", k),
			}
		}
	}

	for _, r := range c.rules {
		matched := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				matched = append(matched, k)
			}
		}
		if len(matched) == 0 {
			continue
		}
		conf := r.Base * float64(len(matched)) / float64(len(r.Keywords))
		return Result{
			Category:   r.Category,
			Confidence: conf,
			Matched:    matched,
			Reason:     fmt.Sprintf("matched %s keywords: %s", r.Category, strings.Join(matched, ", ")),
		}
	}

	return Result{
		Category:   model.CategoryShared,
		Confidence: c.fallback,
		Reason:     "no keyword match; shared by default",
	}
}
