package kpi

import (
	"sort"
	"sync"
)

type key struct {
	agent string
	run   string
}

// MemoryStore stores records in memory for testing or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	data map[key]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[key]*Record{}}
}

// Add merges the record into the aggregate keyed by agent and run.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{agent: r.AgentID, run: r.RunID}
	rec := s.data[k]
	if rec == nil {
		rec = &Record{AgentID: r.AgentID, RunID: r.RunID}
		s.data[k] = rec
	}
	rec.Distance += r.Distance
	rec.Energy += r.Energy
	rec.Deliveries += r.Deliveries
	rec.Wins += r.Wins
	return nil
}

// Query returns aggregates matching agentID, or all of them when empty.
func (s *MemoryStore) Query(agentID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Record
	for k, r := range s.data {
		if agentID != "" && k.agent != agentID {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].AgentID != res[j].AgentID {
			return res[i].AgentID < res[j].AgentID
		}
		return res[i].RunID < res[j].RunID
	})
	return res, nil
}
