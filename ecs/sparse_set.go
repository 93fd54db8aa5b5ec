package ecs

// SparseSet stores one value per entity id with dense iteration order.
type SparseSet[T any] struct {
	denseEntities []Entity
	denseValues   []T
	sparse        []int
}

// Has returns true if the entity handle is stored with a matching generation.
func (s *SparseSet[T]) Has(e Entity) bool {
	if s == nil || e.ID <= 0 || e.ID-1 >= len(s.sparse) {
		return false
	}
	idx := s.sparse[e.ID-1]
	return idx >= 0 && idx < len(s.denseEntities) && s.denseEntities[idx] == e
}

// Get returns the value for e.
func (s *SparseSet[T]) Get(e Entity) (T, bool) {
	var zero T
	if !s.Has(e) {
		return zero, false
	}
	return s.denseValues[s.sparse[e.ID-1]], true
}

// Set inserts or updates the value for e.
func (s *SparseSet[T]) Set(e Entity, v T) {
	if s == nil || e.ID <= 0 {
		return
	}
	for e.ID-1 >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if idx := s.sparse[e.ID-1]; idx >= 0 && idx < len(s.denseEntities) && s.denseEntities[idx].ID == e.ID {
		s.denseEntities[idx] = e
		s.denseValues[idx] = v
		return
	}
	s.denseEntities = append(s.denseEntities, e)
	s.denseValues = append(s.denseValues, v)
	s.sparse[e.ID-1] = len(s.denseEntities) - 1
}

// Remove deletes the value for e if present.
func (s *SparseSet[T]) Remove(e Entity) bool {
	if !s.Has(e) {
		return false
	}
	idx := s.sparse[e.ID-1]
	last := len(s.denseEntities) - 1
	moved := s.denseEntities[last]

	s.denseEntities[idx] = moved
	s.denseValues[idx] = s.denseValues[last]
	s.sparse[moved.ID-1] = idx

	var zero T
	s.denseValues[last] = zero
	s.denseEntities = s.denseEntities[:last]
	s.denseValues = s.denseValues[:last]
	s.sparse[e.ID-1] = -1
	return true
}

func (s *SparseSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.denseEntities)
}

// Each visits entries in dense order. Mutating the set inside fn is not
// supported.
func (s *SparseSet[T]) Each(fn func(e Entity, v T)) {
	if s == nil || fn == nil {
		return
	}
	for i, e := range s.denseEntities {
		fn(e, s.denseValues[i])
	}
}

// Entities returns the dense entity list.
func (s *SparseSet[T]) Entities() []Entity {
	if s == nil {
		return nil
	}
	return s.denseEntities
}
