package engine

import "land-scout/internal/models"

// Dedupe collapses duplicate property ids within one batch. The batch
// is walked in the order supplied and the last observation wins; the
// surviving record keeps the position of the id's first appearance so
// the result is deterministic.
func Dedupe(batch []models.Listing) []models.Listing {
	index := make(map[string]int, len(batch))
	out := make([]models.Listing, 0, len(batch))

	for _, l := range batch {
		if at, seen := index[l.PropertyID]; seen {
			out[at] = l
			continue
		}
		index[l.PropertyID] = len(out)
		out = append(out, l)
	}
	return out
}

// Detect reconciles a scored batch against the previously active
// properties. Each property id involved lands in exactly one group:
// present only in the batch → new; present in both with a different
// price → price-changed; present in both at the same price →
// unchanged; previously active but absent from the batch → removed.
//
// A property deactivated in an earlier run does not appear in
// priorActive, so its reappearance classifies as new again.
func Detect(batch []models.Property, priorActive []models.Property) models.ChangeSet {
	prior := make(map[string]*models.Property, len(priorActive))
	for i := range priorActive {
		prior[priorActive[i].PropertyID] = &priorActive[i]
	}

	cs := models.ChangeSet{
		PriceChanged: make(map[string]models.PriceChange),
	}

	seen := make(map[string]bool, len(batch))
	for i := range batch {
		p := &batch[i]
		seen[p.PropertyID] = true

		old, known := prior[p.PropertyID]
		switch {
		case !known:
			cs.New = append(cs.New, p.PropertyID)
		case old.PriceNumeric != p.PriceNumeric:
			cs.PriceChanged[p.PropertyID] = models.PriceChange{
				OldPrice: old.PriceNumeric,
				NewPrice: p.PriceNumeric,
			}
		default:
			cs.Unchanged = append(cs.Unchanged, p.PropertyID)
		}
	}

	for i := range priorActive {
		if !seen[priorActive[i].PropertyID] {
			cs.Removed = append(cs.Removed, priorActive[i].PropertyID)
		}
	}

	return cs
}
