package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionPresenceKey returns the cache key tracking live connection counts
// for a quiz session (used by ops dashboards, best-effort only).
func (r *CacheKeyStruct) SessionPresenceKey(sessionID string) string {
	return fmt.Sprintf("session:%s:presence", sessionID)
}

// AssessmentProgressKey returns the cache key holding coarse progress for a
// grading job (entities done / total) so polling clients avoid DB reads.
func (r *CacheKeyStruct) AssessmentProgressKey(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:progress", assessmentID)
}

var CacheKey = NewCacheKeyStruct()
