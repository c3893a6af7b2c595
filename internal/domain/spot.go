package domain

import "sort"

// Spot is a parking location on the campus map.
type Spot struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// DefaultSpots are seeded when the local store holds no spots.
func DefaultSpots() []Spot {
	return []Spot{
		{ID: 1, Title: "Vaga Quadra Unimar", Description: "Vaga disponível", Latitude: -22.2328, Longitude: -49.9762},
		{ID: 2, Title: "Vaga Refeitório", Description: "Vaga disponível", Latitude: -22.2336, Longitude: -49.9770},
		{ID: 3, Title: "Vaga Campo Futebol", Description: "Vaga disponível", Latitude: -22.2340, Longitude: -49.9768},
	}
}

// HiddenSpotSet holds the ids of spots not shown on the map.
type HiddenSpotSet map[int64]struct{}

// NewHiddenSpotSet builds a set from ids.
func NewHiddenSpotSet(ids ...int64) HiddenSpotSet {
	s := make(HiddenSpotSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is hidden.
func (s HiddenSpotSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add hides id.
func (s HiddenSpotSet) Add(id int64) {
	s[id] = struct{}{}
}

// Remove un-hides id.
func (s HiddenSpotSet) Remove(id int64) {
	delete(s, id)
}

// IDs returns the hidden ids in ascending order.
func (s HiddenSpotSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns an independent copy.
func (s HiddenSpotSet) Clone() HiddenSpotSet {
	c := make(HiddenSpotSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}
