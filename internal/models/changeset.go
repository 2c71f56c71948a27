package models

// PriceChange holds the before/after prices for a repriced property.
type PriceChange struct {
	OldPrice int `json:"old_price"`
	NewPrice int `json:"new_price"`
}

// ChangeSet is the outcome of reconciling one fetch batch against the
// previously active properties. Every property id involved in the run
// lands in exactly one of the four groups.
type ChangeSet struct {
	New          []string               `json:"new"`
	PriceChanged map[string]PriceChange `json:"price_changed"`
	Removed      []string               `json:"removed"`
	Unchanged    []string               `json:"unchanged"`
}

// ContainsNew reports whether the id was classified as new.
func (cs ChangeSet) ContainsNew(id string) bool {
	for _, n := range cs.New {
		if n == id {
			return true
		}
	}
	return false
}

// Total returns the number of classified property ids.
func (cs ChangeSet) Total() int {
	return len(cs.New) + len(cs.PriceChanged) + len(cs.Removed) + len(cs.Unchanged)
}
