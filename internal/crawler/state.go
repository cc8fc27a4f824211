package crawler

import "sync"

// CrawlState is the only mutable state shared between concurrent crawl
// steps: the dedup sets, the saved-record counter and the terminal flag.
// Every mutation is a check-then-act under one mutex so two workers can
// never admit the same URL or both claim the last quota slot.
type CrawlState struct {
	mutex         sync.Mutex
	seenURLs      map[string]struct{}
	enqueuedPages map[string]struct{}
	savedCount    int
	quota         int // <= 0 means unbounded
	finished      bool
}

func NewCrawlState(quota int) *CrawlState {
	return &CrawlState{
		seenURLs:      make(map[string]struct{}),
		enqueuedPages: make(map[string]struct{}),
		quota:         quota,
	}
}

// isDone reports whether the crawl is terminal. Callers must hold mutex.
func (s *CrawlState) isDone() bool {
	return s.finished || (s.quota > 0 && s.savedCount >= s.quota)
}

// AdmitCard records a listing URL as seen. It returns false when the URL
// was already seen or the crawl is finished, in which case the caller must
// drop the card.
func (s *CrawlState) AdmitCard(url string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isDone() || url == "" {
		return false
	}
	if _, seen := s.seenURLs[url]; seen {
		return false
	}
	s.seenURLs[url] = struct{}{}
	return true
}

// MarkPageEnqueued records a listing-page URL. It returns false when that
// page URL was enqueued before, guarding against criteria that produce a
// stable URL across page numbers.
func (s *CrawlState) MarkPageEnqueued(url string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isDone() {
		return false
	}
	if _, enqueued := s.enqueuedPages[url]; enqueued {
		return false
	}
	s.enqueuedPages[url] = struct{}{}
	return true
}

// ReserveSlot claims one emission slot against the quota. When the claim
// fills the quota the crawl flips to done, so no run ever emits more than
// quota records no matter how many steps are in flight.
func (s *CrawlState) ReserveSlot() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isDone() {
		return false
	}
	s.savedCount++
	return true
}

// ReleaseSlot returns a reserved slot after a failed emission, so the
// counter and the quota reflect only records actually written.
func (s *CrawlState) ReleaseSlot() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.savedCount > 0 {
		s.savedCount--
	}
}

// Finish marks the crawl terminal; no further steps are admitted.
func (s *CrawlState) Finish() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.finished = true
}

func (s *CrawlState) Done() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.isDone()
}

func (s *CrawlState) SavedCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.savedCount
}
