package bitflip

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Result wraps a trial's report with its storage metadata.
type Result struct {
	TrialID   string
	Report    Report
	Error     error
	CreatedAt time.Time
	TTL       time.Duration
}

/*
Space holds finished trial results until they expire, hands them to
anyone awaiting a trial ID, and owns the broadcast groups results are
published on.
*/
type Space struct {
	mu      sync.RWMutex
	values  map[string]Result
	waiting map[string][]chan Result
	groups  map[string]*BroadcastGroup

	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
	wg              sync.WaitGroup
}

func NewSpace(cleanupInterval time.Duration) *Space {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &Space{
		values:          make(map[string]Result),
		waiting:         make(map[string][]chan Result),
		groups:          make(map[string]*BroadcastGroup),
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.cleanup()
	}()

	return s
}

// Store records a trial result and wakes every waiter for that ID.
func (s *Space) Store(id string, report Report, err error, ttl time.Duration) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{
		TrialID:   id,
		Report:    report,
		Error:     err,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	s.values[id] = res
	log.Debug("stored trial result", "trial", id, "err", err)

	for _, ch := range s.waiting[id] {
		ch <- res
		close(ch)
	}
	delete(s.waiting, id)

	return res
}

// Await returns a channel that receives the result once it is stored.
func (s *Space) Await(id string) chan Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Result, 1)

	if res, ok := s.values[id]; ok {
		ch <- res
		close(ch)
		return ch
	}

	s.waiting[id] = append(s.waiting[id], ch)
	return ch
}

// Lookup returns a stored result without waiting.
func (s *Space) Lookup(id string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.values[id]
	return res, ok
}

func (s *Space) CreateBroadcastGroup(id string, ttl time.Duration, maxQueue int) *BroadcastGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group, ok := s.groups[id]; ok {
		return group
	}

	group := NewBroadcastGroup(id, ttl, maxQueue)
	s.groups[id] = group
	return group
}

// Subscribe attaches a subscriber to an existing group; unknown groups yield nil.
func (s *Space) Subscribe(groupID, subscriberID string, rules ...RoutingRule) chan Result {
	s.mu.RLock()
	group, ok := s.groups[groupID]
	s.mu.RUnlock()

	if !ok {
		log.Warn("subscribe to unknown broadcast group", "group", groupID)
		return nil
	}
	return group.Subscribe(subscriberID, rules...)
}

// Publish sends a result to every subscriber of the group.
func (s *Space) Publish(groupID string, res Result) {
	s.mu.RLock()
	group, ok := s.groups[groupID]
	s.mu.RUnlock()

	if ok {
		group.Send(res)
	}
}

func (s *Space) cleanup() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.cleanupExpiredValues()
			s.cleanupExpiredGroups()
			s.mu.Unlock()
		}
	}
}

func (s *Space) cleanupExpiredValues() {
	now := time.Now()
	for id, res := range s.values {
		if res.TTL > 0 && now.Sub(res.CreatedAt) > res.TTL {
			delete(s.values, id)
		}
	}
}

func (s *Space) cleanupExpiredGroups() {
	for id, group := range s.groups {
		if group.expired() {
			group.Close()
			delete(s.groups, id)
		}
	}
}

// Close stops the cleanup loop and closes every broadcast group.
func (s *Space) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		s.mu.Lock()
		defer s.mu.Unlock()
		for id, group := range s.groups {
			group.Close()
			delete(s.groups, id)
		}
	})
}
