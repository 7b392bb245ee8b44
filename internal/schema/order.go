package schema

import "fmt"

// LoadOrder returns entity names ordered so every parent precedes its
// children. Ties keep declaration order, so the result is stable.
func (s Schema) LoadOrder() ([]string, error) {
	parents := make(map[string]map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		parents[e.Name] = make(map[string]bool)
	}
	for _, fk := range s.ForeignKeys() {
		if _, ok := parents[fk.Parent]; !ok {
			return nil, fmt.Errorf("%s: unknown parent table", fk)
		}
		// Self references do not constrain ordering.
		if fk.Parent != fk.Table {
			parents[fk.Table][fk.Parent] = true
		}
	}

	order := make([]string, 0, len(s.Entities))
	placed := make(map[string]bool, len(s.Entities))
	for len(order) < len(s.Entities) {
		progressed := false
		for _, e := range s.Entities {
			if placed[e.Name] || !ready(parents[e.Name], placed) {
				continue
			}
			order = append(order, e.Name)
			placed[e.Name] = true
			progressed = true
			// Restart from the top so earlier-declared entities win ties.
			break
		}
		if !progressed {
			var stuck []string
			for _, e := range s.Entities {
				if !placed[e.Name] {
					stuck = append(stuck, e.Name)
				}
			}
			return nil, fmt.Errorf("foreign-key cycle among %v", stuck)
		}
	}
	return order, nil
}

func ready(deps, placed map[string]bool) bool {
	for p := range deps {
		if !placed[p] {
			return false
		}
	}
	return true
}
