package model

import "sort"

// Coupons maps a course title to its coupon link.
type Coupons map[string]string

// Titles returns the course titles in lexical order.
func (c Coupons) Titles() []string {
	titles := make([]string, 0, len(c))
	for title := range c {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Len returns the number of coupons.
func (c Coupons) Len() int {
	return len(c)
}
