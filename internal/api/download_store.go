package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"profitstat/internal/model"
)

type runDownload struct {
	runID     string
	fileName  string
	data      []byte
	pivot     model.PivotMatrix
	expiresAt time.Time
}

// downloadStore 导出结果的一次性下载令牌
type downloadStore struct {
	mu    sync.Mutex
	items map[string]runDownload
	now   func() time.Time
}

func newDownloadStore() *downloadStore {
	return &downloadStore{
		items: make(map[string]runDownload),
		now:   time.Now,
	}
}

func (s *downloadStore) put(item runDownload, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token = uuid.NewString()
	item.expiresAt = now.Add(ttl)
	s.items[token] = item
	return token
}

func (s *downloadStore) get(token string) (runDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	v, ok := s.items[token]
	return v, ok
}

// take 取出并删除，同一令牌只有一个调用方能拿到
func (s *downloadStore) take(token string) (runDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())

	v, ok := s.items[token]
	if ok {
		delete(s.items, token)
	}
	return v, ok
}

func (s *downloadStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(s.now())
	return len(s.items)
}

func (s *downloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if !now.Before(v.expiresAt) {
			delete(s.items, k)
		}
	}
}
