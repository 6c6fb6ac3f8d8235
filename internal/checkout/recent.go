package checkout

// DefaultRecentOrdersLimit bounds the "my orders" list when no limit is configured.
const DefaultRecentOrdersLimit = 10

// RecentOrders keeps persisted order identifiers most-recent-first, without duplicates.
type RecentOrders struct {
	limit int
	ids   []string
}

// NewRecentOrders builds a list holding at most limit identifiers.
func NewRecentOrders(limit int, ids ...string) *RecentOrders {
	if limit <= 0 {
		limit = DefaultRecentOrdersLimit
	}
	r := &RecentOrders{limit: limit}
	for i := len(ids) - 1; i >= 0; i-- {
		r.Add(ids[i])
	}
	return r
}

// Add records id at the front. It reports false when id is empty or already present.
func (r *RecentOrders) Add(id string) bool {
	if id == "" {
		return false
	}
	for _, existing := range r.ids {
		if existing == id {
			return false
		}
	}
	r.ids = append([]string{id}, r.ids...)
	if len(r.ids) > r.limit {
		r.ids = r.ids[:r.limit]
	}
	return true
}

// IDs returns a copy of the list.
func (r *RecentOrders) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Limit returns the configured capacity.
func (r *RecentOrders) Limit() int {
	return r.limit
}
