package model

import "time"

// CacheEntry is a content-addressed response cache row.
//
// RequestHash is the unique primary lookup key; HitCount is monotonically
// non-decreasing and only ever moves via IncrementHitCount.
type CacheEntry struct {
	RequestHash string    `json:"request_hash"`
	Question    string    `json:"question"`
	Context     Metadata  `json:"context,omitempty"`
	Response    string    `json:"response"`
	HitCount    int64     `json:"hit_count"`
	LastHitAt   *time.Time `json:"last_hit_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
