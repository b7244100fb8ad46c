package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kanva/portal/internal/domain/sales"
)

// Method names the tier that produced a match
type Method string

const (
	MethodAccountNumber  Method = "accountNumber"
	MethodAccountOrderID Method = "accountOrderId"
	MethodName           Method = "name"
	MethodNone           Method = "none"
)

// NoMatchReason explains why a candidate became a new entity
type NoMatchReason string

const (
	ReasonNone           NoMatchReason = ""
	ReasonEmptyName      NoMatchReason = "EMPTY_NAME"
	ReasonNoCandidates   NoMatchReason = "NO_CANDIDATES"
	ReasonBelowThreshold NoMatchReason = "BELOW_THRESHOLD"
)

// Candidate is an incoming record to be linked to a canonical customer
type Candidate struct {
	SourceKey     string
	Name          string
	AccountNumber string
	AlternateID   string
}

// MatchResult is the outcome of Resolve. A zero CustomerID means new entity.
type MatchResult struct {
	CustomerID   string        `json:"customerId,omitempty"`
	Method       Method        `json:"method"`
	Label        string        `json:"label"`
	Confidence   float64       `json:"confidence"`
	Ambiguous    bool          `json:"ambiguous,omitempty"`
	Alternatives []string      `json:"alternatives,omitempty"`
	Reason       NoMatchReason `json:"reason,omitempty"`
	BestScore    float64       `json:"bestScore,omitempty"`
}

// Matched reports whether an existing customer was found
func (r MatchResult) Matched() bool {
	return r.CustomerID != ""
}

// IsNewEntity reports whether the candidate should become a new customer
func (r MatchResult) IsNewEntity() bool {
	return !r.Matched()
}

type fuzzyEntry struct {
	id     string
	name   string
	length int
}

// Index is a request-scoped view over existing customers. It is built once
// per run and passed explicitly; nothing is cached across runs.
type Index struct {
	byAccountNumber map[string]string
	byStoredID      map[string]string
	fuzzy           []fuzzyEntry
	matched         map[string]bool
}

// NewIndex indexes customers for all three tiers. When two customers share a
// key the lowest id keeps it. Customers already linked to the CRM are left
// out of the fuzzy pool.
func NewIndex(customers []sales.Customer) *Index {
	sorted := make([]sales.Customer, len(customers))
	copy(sorted, customers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sales.CompareIDs(sorted[i].ID, sorted[j].ID) < 0
	})

	idx := &Index{
		byAccountNumber: make(map[string]string, len(sorted)),
		byStoredID:      make(map[string]string, len(sorted)*2),
		fuzzy:           make([]fuzzyEntry, 0, len(sorted)),
		matched:         make(map[string]bool),
	}
	for i := range sorted {
		c := &sorted[i]
		idx.claimKeys(c)
		if c.IsLinkedToCRM() {
			continue
		}
		if name := Normalize(c.Name); name != "" {
			idx.fuzzy = append(idx.fuzzy, fuzzyEntry{id: c.ID, name: name, length: utf8.RuneCountInString(name)})
		}
	}
	return idx
}

// AddExact makes a customer created during the run reachable by account
// number and stored id. Keys already held by another customer are kept.
func (idx *Index) AddExact(c *sales.Customer) {
	idx.claimKeys(c)
}

func (idx *Index) claimKeys(c *sales.Customer) {
	claim(idx.byAccountNumber, c.AccountNumber, c.ID)
	claim(idx.byStoredID, c.ID, c.ID)
	claim(idx.byStoredID, c.AccountID, c.ID)
}

func claim(m map[string]string, key, id string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if _, exists := m[key]; !exists {
		m[key] = id
	}
}

// MarkMatched removes a customer from the fuzzy pool for the rest of the run
func (idx *Index) MarkMatched(customerID string) {
	idx.matched[customerID] = true
}

// FuzzyPoolSize returns how many customers are still eligible for name matching
func (idx *Index) FuzzyPoolSize() int {
	n := 0
	for _, e := range idx.fuzzy {
		if !idx.matched[e.id] {
			n++
		}
	}
	return n
}

// Resolver runs the tiered matching strategy
type Resolver struct {
	threshold float64
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithThreshold overrides the fuzzy threshold (exclusive)
func WithThreshold(threshold float64) ResolverOption {
	return func(r *Resolver) {
		if threshold > 0 && threshold <= 1 {
			r.threshold = threshold
		}
	}
}

// NewResolver creates a Resolver with the default 0.85 threshold
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{threshold: Threshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve links a candidate to an existing customer. Exact account number
// beats exact stored id, which beats the best fuzzy name above the threshold.
// Ties at the best fuzzy score go to the lowest customer id and the result is
// flagged Ambiguous with the other tied ids.
func (r *Resolver) Resolve(c Candidate, idx *Index) MatchResult {
	if idx == nil {
		return MatchResult{Method: MethodNone, Label: string(MethodNone), Reason: ReasonNoCandidates}
	}

	if acct := strings.TrimSpace(c.AccountNumber); acct != "" {
		if id, ok := idx.byAccountNumber[acct]; ok {
			return exactMatch(id, MethodAccountNumber)
		}
	}

	if alt := strings.TrimSpace(c.AlternateID); alt != "" {
		if id, ok := idx.byStoredID[alt]; ok {
			return exactMatch(id, MethodAccountOrderID)
		}
	}

	name := Normalize(c.Name)
	if name == "" {
		return MatchResult{Method: MethodNone, Label: string(MethodNone), Reason: ReasonEmptyName}
	}
	return r.resolveByName(name, idx)
}

func (r *Resolver) resolveByName(name string, idx *Index) MatchResult {
	length := utf8.RuneCountInString(name)
	best := 0.0
	var tied []string
	considered := 0

	for _, e := range idx.fuzzy {
		if idx.matched[e.id] {
			continue
		}
		considered++
		if upperBound(length, e.length) <= r.threshold {
			continue
		}
		score := normalizedSimilarity(name, e.name)
		if score <= r.threshold {
			continue
		}
		switch {
		case score > best:
			best = score
			tied = append(tied[:0], e.id)
		case score == best:
			tied = append(tied, e.id)
		}
	}

	if len(tied) == 0 {
		reason := ReasonBelowThreshold
		if considered == 0 {
			reason = ReasonNoCandidates
		}
		return MatchResult{Method: MethodNone, Label: string(MethodNone), Reason: reason}
	}

	result := MatchResult{
		CustomerID: tied[0],
		Method:     MethodName,
		Label:      fmt.Sprintf("name (%d%% match)", int(math.Round(best*100))),
		Confidence: best,
		BestScore:  best,
	}
	if len(tied) > 1 {
		result.Ambiguous = true
		result.Alternatives = append([]string(nil), tied[1:]...)
	}
	return result
}

func exactMatch(id string, method Method) MatchResult {
	return MatchResult{
		CustomerID: id,
		Method:     method,
		Label:      string(method),
		Confidence: 1,
		BestScore:  1,
	}
}
