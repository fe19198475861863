package metrics

import (
	"sort"
	"sync"
)

type TopicCount struct {
	Topic string
	Count int
}

// TopicCounter counts messages per topic. It is safe for concurrent use.
type TopicCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewTopicCounter() *TopicCounter {
	return &TopicCounter{counts: make(map[string]int)}
}

func (c *TopicCounter) Add(topic string) {
	c.mu.Lock()
	c.counts[topic]++
	c.mu.Unlock()
}

func (c *TopicCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

// Top returns the n busiest topics, ties broken by name.
func (c *TopicCounter) Top(n int) []TopicCount {
	c.mu.Lock()
	out := make([]TopicCount, 0, len(c.counts))
	for topic, count := range c.counts {
		out = append(out, TopicCount{Topic: topic, Count: count})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func (c *TopicCounter) Reset() {
	c.mu.Lock()
	c.counts = make(map[string]int)
	c.mu.Unlock()
}
