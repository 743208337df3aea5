package aigateway

import (
	"sync"
	"time"

	"chore-workers/internal/models"
)

type usageTracker struct {
	mu      sync.Mutex
	records map[string]*UsageRecord
}

func newUsageTracker() *usageTracker {
	return &usageTracker{records: make(map[string]*UsageRecord)}
}

// record adds one request to the family's record for the day of now. A
// record from an earlier day is replaced, which is how counters reset.
func (u *usageTracker) record(familyID string, now time.Time, reqType RequestType, cached bool, usage Usage) {
	date := now.Format(models.DateLayout)

	u.mu.Lock()
	defer u.mu.Unlock()

	rec, ok := u.records[familyID]
	if !ok || rec.Date != date {
		rec = &UsageRecord{
			FamilyID:       familyID,
			Date:           date,
			RequestsByType: make(map[RequestType]int),
		}
		u.records[familyID] = rec
	}

	rec.TotalRequests++
	rec.RequestsByType[reqType]++
	if cached {
		rec.CacheHits++
		return
	}
	rec.PromptTokens += usage.PromptTokens
	rec.CandidateTokens += usage.CandidateTokens
	rec.TotalTokens += usage.TotalTokens
}

// get returns a copy of today's record, or nil.
func (u *usageTracker) get(familyID string, now time.Time) *UsageRecord {
	u.mu.Lock()
	defer u.mu.Unlock()

	rec, ok := u.records[familyID]
	if !ok || rec.Date != now.Format(models.DateLayout) {
		return nil
	}
	out := *rec
	out.RequestsByType = make(map[RequestType]int, len(rec.RequestsByType))
	for k, v := range rec.RequestsByType {
		out.RequestsByType[k] = v
	}
	return &out
}
