package model

// Whitelist holds course titles that are already owned.
// Values are opaque; only key presence matters.
type Whitelist map[string]any

// Has reports whether title is in the whitelist.
func (w Whitelist) Has(title string) bool {
	_, ok := w[title]
	return ok
}

// Add marks title as owned. Existing values are kept.
func (w Whitelist) Add(title string) {
	if _, ok := w[title]; !ok {
		w[title] = true
	}
}

// Merge adds every title of c to the whitelist and returns how many were new.
func (w Whitelist) Merge(c Coupons) int {
	added := 0
	for title := range c {
		if !w.Has(title) {
			w.Add(title)
			added++
		}
	}
	return added
}
