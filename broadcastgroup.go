package bitflip

import (
	"sync"
	"time"
)

/*
FilterFunc decides whether a result should reach a subscriber.
*/
type FilterFunc func(Result) bool

/*
RoutingRule attaches a filter to a subscriber. A subscriber with rules
receives a result when any of its rules accept it.
*/
type RoutingRule struct {
	SubscriberID string
	Filter       FilterFunc
	Priority     int
}

// Misdiagnoses routes only results whose correction made things worse.
func Misdiagnoses() RoutingRule {
	return RoutingRule{Filter: func(r Result) bool {
		return r.Error == nil && r.Report.Assessment.Verdict == Misdiagnosed
	}}
}

// Inaccurate routes every completed result whose diagnosis was wrong.
func Inaccurate() RoutingRule {
	return RoutingRule{Filter: func(r Result) bool {
		return r.Error == nil && !r.Report.Assessment.Accurate()
	}}
}

/*
BroadcastGroup fans finished trial results out to subscribers.

Sends never block: a subscriber whose buffer is full misses the result and
the drop is counted in the group's metrics.
*/
type BroadcastGroup struct {
	mu sync.RWMutex

	ID           string
	subscribers  map[string]chan Result
	routingRules map[string][]RoutingRule
	filters      []FilterFunc
	metrics      BroadcastMetrics

	TTL          time.Duration
	LastUsed     time.Time
	maxQueueSize int
	closed       bool
}

// BroadcastMetrics tracks delivery for one group.
type BroadcastMetrics struct {
	MessagesSent      int64
	MessagesDropped   int64
	ActiveSubscribers int
	LastBroadcastTime time.Time
}

func NewBroadcastGroup(id string, ttl time.Duration, maxQueue int) *BroadcastGroup {
	if maxQueue <= 0 {
		maxQueue = 16
	}

	return &BroadcastGroup{
		ID:           id,
		subscribers:  make(map[string]chan Result),
		routingRules: make(map[string][]RoutingRule),
		TTL:          ttl,
		LastUsed:     time.Now(),
		maxQueueSize: maxQueue,
	}
}

/*
Subscribe registers a subscriber and returns its channel. Subscribing an
existing ID replaces its rules and returns the same channel.
*/
func (bg *BroadcastGroup) Subscribe(subscriberID string, rules ...RoutingRule) chan Result {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	ch := make(chan Result, bg.maxQueueSize)
	if bg.closed {
		close(ch)
		return ch
	}

	if len(rules) > 0 {
		bg.routingRules[subscriberID] = rules
	}

	if existing, ok := bg.subscribers[subscriberID]; ok {
		return existing
	}

	bg.subscribers[subscriberID] = ch
	bg.metrics.ActiveSubscribers++
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (bg *BroadcastGroup) Unsubscribe(subscriberID string) {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if ch, ok := bg.subscribers[subscriberID]; ok {
		close(ch)
		delete(bg.subscribers, subscriberID)
		delete(bg.routingRules, subscriberID)
		bg.metrics.ActiveSubscribers--
	}
}

// AddFilter registers a filter applied before any routing.
func (bg *BroadcastGroup) AddFilter(filter FilterFunc) {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	bg.filters = append(bg.filters, filter)
}

func (bg *BroadcastGroup) Send(res Result) {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if bg.closed {
		return
	}

	now := time.Now()
	bg.LastUsed = now
	bg.metrics.LastBroadcastTime = now

	for _, filter := range bg.filters {
		if !filter(res) {
			bg.metrics.MessagesDropped++
			return
		}
	}

	for id, ch := range bg.subscribers {
		if rules, ok := bg.routingRules[id]; ok && !anyRule(rules, res) {
			continue
		}

		select {
		case ch <- res:
			bg.metrics.MessagesSent++
		default:
			bg.metrics.MessagesDropped++
		}
	}
}

func anyRule(rules []RoutingRule, res Result) bool {
	for _, rule := range rules {
		if rule.Filter == nil || rule.Filter(res) {
			return true
		}
	}
	return false
}

func (bg *BroadcastGroup) Metrics() BroadcastMetrics {
	bg.mu.RLock()
	defer bg.mu.RUnlock()
	return bg.metrics
}

func (bg *BroadcastGroup) expired() bool {
	bg.mu.RLock()
	defer bg.mu.RUnlock()
	return bg.TTL > 0 && time.Since(bg.LastUsed) > bg.TTL
}

// Close closes every subscriber channel; later sends are ignored.
func (bg *BroadcastGroup) Close() {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if bg.closed {
		return
	}
	bg.closed = true

	for id, ch := range bg.subscribers {
		close(ch)
		delete(bg.subscribers, id)
	}
	bg.routingRules = nil
	bg.filters = nil
	bg.metrics.ActiveSubscribers = 0
}
