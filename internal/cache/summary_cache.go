package cache

import (
	"fmt"
	"time"

	"github.com/Dylan-Floyd/effe81/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// SummaryListTTL is deliberately short: summaries embed presence flags, and
// the cache is only a read accelerator — the derived view is always
// recomputable from storage.
const SummaryListTTL = 30 * time.Second

// SummaryCache stores each user's assembled conversation-summary list.
// Every method tolerates a nil receiver or nil redis so callers never have
// to branch on whether caching is configured.
type SummaryCache struct {
	redis *RedisCache
}

func NewSummaryCache(redis *RedisCache) *SummaryCache {
	return &SummaryCache{redis: redis}
}

func summaryListKey(userID uint) string {
	return fmt.Sprintf("summaries:%d", userID)
}

func (sc *SummaryCache) GetSummaryList(userID uint) ([]models.ConversationSummary, bool) {
	if sc == nil || sc.redis == nil {
		return nil, false
	}
	data, err := sc.redis.Get(summaryListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var summaries []models.ConversationSummary
	if err := msgpack.Unmarshal(data, &summaries); err != nil {
		return nil, false
	}
	return summaries, true
}

func (sc *SummaryCache) SetSummaryList(userID uint, summaries []models.ConversationSummary) error {
	if sc == nil || sc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(summaries)
	if err != nil {
		return err
	}
	return sc.redis.Set(summaryListKey(userID), data, SummaryListTTL)
}

// Invalidate drops the cached lists of every user touched by a mutation
// (both participants of a conversation, typically).
func (sc *SummaryCache) Invalidate(userIDs ...uint) error {
	if sc == nil || sc.redis == nil {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, summaryListKey(id))
	}
	return sc.redis.Delete(keys...)
}
