package sales

import "strings"

// Rep is a sales representative eligible for commission
type Rep struct {
	ID           string
	SalesPerson  string
	Name         string
	Email        string
	Title        string
	Active       bool
	Commissioned bool
}

// Eligible reports whether the rep earns commission at all
func (r *Rep) Eligible() bool {
	return r != nil && r.Active && r.Commissioned
}

// FirstName returns the first word of the rep's name, lowercased
func (r *Rep) FirstName() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// RepDirectory resolves the free-text sales person on an order to a rep.
// Lookups try the sales person code, the full name and the first name.
type RepDirectory struct {
	byKey map[string]*Rep
}

// NewRepDirectory indexes reps. Earlier reps win on key collisions.
func NewRepDirectory(reps []Rep) *RepDirectory {
	d := &RepDirectory{byKey: make(map[string]*Rep, len(reps)*3)}
	for i := range reps {
		r := &reps[i]
		for _, k := range []string{r.SalesPerson, r.Name, r.FirstName()} {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				continue
			}
			if _, exists := d.byKey[k]; !exists {
				d.byKey[k] = r
			}
		}
	}
	return d
}

// Lookup returns the rep for a sales person label, or nil
func (d *RepDirectory) Lookup(salesPerson string) *Rep {
	if d == nil {
		return nil
	}
	return d.byKey[strings.ToLower(strings.TrimSpace(salesPerson))]
}
