package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/fintrace/fintrace/internal/chunkcache"
	"github.com/fintrace/fintrace/internal/store"
	"github.com/fintrace/fintrace/models"
)

// Scheduler periodically prewarms the chunk cache for watchlists whose
// digest schedule is due. Redis locks keep multiple replicas from
// digesting the same watchlist at once.
type Scheduler struct {
	Store   *store.Store
	Cache   *chunkcache.Cache
	Rdb     *redis.Client
	Stop    chan struct{}
	Tick    time.Duration
	LockTTL time.Duration
	Logger  *log.Logger
}

func (s *Scheduler) Start() {
	if s.Tick <= 0 {
		s.Tick = time.Minute
	}
	if s.LockTTL <= 0 {
		s.LockTTL = 5 * time.Minute
	}
	if s.Logger == nil {
		s.Logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	ticker := time.NewTicker(s.Tick)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	lists, err := s.Store.DueWatchlists(ctx)
	if err != nil {
		s.Logger.Printf("list watchlists: %v", err)
		return
	}
	for _, w := range lists {
		last, _ := s.Store.LastDigestTime(ctx, w.ID)
		if !isDue(w.DigestCron, last) {
			continue
		}
		if s.Rdb != nil {
			lockKey := "digest:lock:" + w.ID
			ok, _ := s.Rdb.SetNX(ctx, lockKey, "1", s.LockTTL).Result()
			if !ok {
				continue
			}
		}
		go s.digest(ctx, w)
	}
}

// digest warms the cache for every pinned chunk and stamps the run.
func (s *Scheduler) digest(ctx context.Context, w models.Watchlist) {
	warmed := 0
	for _, id := range w.ChunkIDs {
		if s.Cache != nil {
			if rec, err := s.Cache.Get(ctx, id); err == nil && rec != nil {
				continue
			}
		}
		rec, err := s.Store.GetChunk(ctx, id)
		if err != nil {
			s.Logger.Printf("watchlist %s: chunk %s: %v", w.ID, id, err)
			continue
		}
		if s.Cache != nil {
			_ = s.Cache.Set(ctx, rec)
		}
		warmed++
	}
	if err := s.Store.TouchDigest(ctx, w.ID); err != nil {
		s.Logger.Printf("watchlist %s: touch digest: %v", w.ID, err)
		return
	}
	s.Logger.Printf("watchlist %s digest done, %d chunks warmed", w.ID, warmed)
}

// isDue determines if a watchlist with cronSpec should run now based on
// the last digest time. Supports "@daily", "@hourly", and standard
// 5-field cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// Fallback: treat as @daily if invalid
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			// If never run, due now
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
