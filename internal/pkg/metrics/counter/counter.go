package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/cache"
)

const (
	messagesSentKey     = "messages:counters:sent"
	messagesReceivedKey = "messages:counters:received"
)

// AddSentMessages increments the pending sent counter for a connection in Redis
func AddSentMessages(connectionID uint, n int64) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(connectionID), 10)
	return cache.GetClient().HIncrBy(ctx, messagesSentKey, field, n).Err()
}

// AddReceivedMessages increments the pending received counter for a connection in Redis
func AddReceivedMessages(connectionID uint, n int64) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(connectionID), 10)
	return cache.GetClient().HIncrBy(ctx, messagesReceivedKey, field, n).Err()
}

// FlushAll drains both counter hashes into today's message_stats rows
func FlushAll(stats repository.StatsRepository) error {
	day := time.Now()
	if err := flushHash(messagesSentKey, func(connID uint, inc int64) error {
		return stats.IncrementCounts(connID, day, inc, 0)
	}); err != nil {
		return err
	}
	return flushHash(messagesReceivedKey, func(connID uint, inc int64) error {
		return stats.IncrementCounts(connID, day, 0, inc)
	})
}

// flushHash drains a Redis hash atomically and applies the increments.
// Uses RENAME to a temporary key so in-flight increments are never lost.
func flushHash(redisKey string, apply func(connID uint, inc int64) error) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	for _, p := range pairs {
		if err := apply(uint(p.id), p.inc); err != nil {
			return err
		}
	}
	return nil
}
