package sales

import "strings"

// CustomerDirectory is a request-scoped lookup over customers keyed by every
// identifier an order row may carry.
type CustomerDirectory struct {
	byKey map[string]*Customer
}

// NewCustomerDirectory indexes customers by id, customer number, account
// number and lowercase name. The first customer claiming a key keeps it.
func NewCustomerDirectory(customers []Customer) *CustomerDirectory {
	d := &CustomerDirectory{byKey: make(map[string]*Customer, len(customers)*2)}
	for i := range customers {
		c := &customers[i]
		for _, k := range []string{c.ID, c.CustomerNum, c.AccountNumber, strings.ToLower(c.Name)} {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if _, exists := d.byKey[k]; !exists {
				d.byKey[k] = c
			}
		}
	}
	return d
}

// Lookup tries each key in order and returns the first hit
func (d *CustomerDirectory) Lookup(keys ...string) *Customer {
	if d == nil {
		return nil
	}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if c, ok := d.byKey[k]; ok {
			return c
		}
		if c, ok := d.byKey[strings.ToLower(k)]; ok {
			return c
		}
	}
	return nil
}

// Len returns the number of indexed keys
func (d *CustomerDirectory) Len() int {
	return len(d.byKey)
}
