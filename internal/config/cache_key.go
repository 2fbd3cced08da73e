package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateKey returns the cache key holding a candidate session record
func (r *CacheKeyStruct) CandidateKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s", candidateID)
}

// CandidateIndexKey returns the sorted set of candidate ids scored by creation time
func (r *CacheKeyStruct) CandidateIndexKey() string {
	return "candidates:index"
}

var CacheKey = NewCacheKeyStruct()
