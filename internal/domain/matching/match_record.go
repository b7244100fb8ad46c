package matching

import (
	"context"
	"strings"
	"time"
)

// SourceSystem identifies where a matched identity came from
type SourceSystem string

const (
	SourceCopper   SourceSystem = "copper"
	SourceFishbowl SourceSystem = "fishbowl"
	SourceShopify  SourceSystem = "shopify"
	SourceRepRally SourceSystem = "reprally"
)

// MatchRecord remembers how a source identity was linked to a customer so
// later runs can skip re-matching it.
type MatchRecord struct {
	SourceSystem SourceSystem
	SourceKey    string
	CustomerID   string
	Method       Method
	Confidence   float64
	Ambiguous    bool
	MatchedAt    time.Time
}

// NewMatchRecord builds a record from a successful resolution
func NewMatchRecord(system SourceSystem, sourceKey string, result MatchResult, at time.Time) *MatchRecord {
	return &MatchRecord{
		SourceSystem: system,
		SourceKey:    strings.TrimSpace(sourceKey),
		CustomerID:   result.CustomerID,
		Method:       result.Method,
		Confidence:   result.Confidence,
		Ambiguous:    result.Ambiguous,
		MatchedAt:    at,
	}
}

// Key is the deterministic identifier of the record
func (r *MatchRecord) Key() string {
	return RecordKey(r.SourceSystem, r.SourceKey)
}

// RecordKey joins source system and key, e.g. "copper:71234"
func RecordKey(system SourceSystem, sourceKey string) string {
	return string(system) + ":" + strings.TrimSpace(sourceKey)
}

// MatchRecordRepository persists match records
type MatchRecordRepository interface {
	UpsertBatch(ctx context.Context, records []*MatchRecord) error
	FindBySource(ctx context.Context, system SourceSystem, sourceKeys []string) ([]MatchRecord, error)
}

// MatchCache is a fast lookup of previously matched identities. A miss
// returns (nil, nil).
type MatchCache interface {
	Get(ctx context.Context, system SourceSystem, sourceKey string) (*MatchRecord, error)
	Set(ctx context.Context, record *MatchRecord) error
}
