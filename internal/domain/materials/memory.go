package materials

import (
	"context"
	"sort"
	"sync"
	"time"
)

type pair struct{ materialID, sectionID int64 }

// MemoryStore — хранилище в памяти для тестов и локального запуска.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	materials map[int64]Material
	sections  map[int64]Section
	allocs    map[pair]Allocation
	montage   map[pair]MontageRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		materials: map[int64]Material{},
		sections:  map[int64]Section{},
		allocs:    map[pair]Allocation{},
		montage:   map[pair]MontageRecord{},
	}
}

func (s *MemoryStore) AddMaterial(objectID int64, name, unit string, quantity float64) Material {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m := Material{ID: s.nextID, ObjectID: objectID, Name: name, Unit: unit, Quantity: quantity, CreatedAt: time.Now()}
	s.materials[m.ID] = m
	return m
}

func (s *MemoryStore) AddSection(objectID int64, name string) Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sec := Section{ID: s.nextID, ObjectID: objectID, Name: name, Position: len(s.sections) + 1}
	s.sections[sec.ID] = sec
	return sec
}

func (s *MemoryStore) UpdateMaterialQuantity(_ context.Context, materialID int64, quantity float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.materials[materialID]; ok {
		m.Quantity = quantity
		s.materials[materialID] = m
	}
	return nil
}

func (s *MemoryStore) Material(_ context.Context, id int64) (*Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.materials[id]; ok {
		cp := m
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) MaterialsByObject(_ context.Context, objectID int64) ([]Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Material
	for _, m := range s.materials {
		if m.ObjectID == objectID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Section(_ context.Context, id int64) (*Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sec, ok := s.sections[id]; ok {
		cp := sec
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) SectionsByObject(_ context.Context, objectID int64) ([]Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Section
	for _, sec := range s.sections {
		if sec.ObjectID == objectID {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *MemoryStore) Allocation(_ context.Context, materialID, sectionID int64) (*Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.allocs[pair{materialID, sectionID}]; ok {
		cp := a
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) AllocationsByMaterial(_ context.Context, materialID int64) ([]Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Allocation
	for _, a := range s.allocs {
		if a.MaterialID == materialID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionID < out[j].SectionID })
	return out, nil
}

func (s *MemoryStore) UpsertAllocation(_ context.Context, a Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocs[pair{a.MaterialID, a.SectionID}] = a
	return nil
}

func (s *MemoryStore) Montage(_ context.Context, materialID, sectionID int64) (*MontageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.montage[pair{materialID, sectionID}]; ok {
		cp := m
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) MontageByMaterial(_ context.Context, materialID int64) ([]MontageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MontageRecord
	for _, m := range s.montage {
		if m.MaterialID == materialID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionID < out[j].SectionID })
	return out, nil
}

func (s *MemoryStore) UpsertMontage(_ context.Context, m MontageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.montage[pair{m.MaterialID, m.SectionID}] = m
	return nil
}
