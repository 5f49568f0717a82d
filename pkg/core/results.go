package core

// ResultSet maps every entity type to its (possibly empty) record list.
// A ResultSet built with NewResultSet always carries all seven slots.
type ResultSet map[EntityType][]Record

// NewResultSet returns a result set with an empty, non-nil slot per type.
func NewResultSet() ResultSet {
	rs := make(ResultSet, len(allEntityTypes))
	for _, t := range allEntityTypes {
		rs[t] = []Record{}
	}
	return rs
}

// Get returns the records for t, never nil.
func (rs ResultSet) Get(t EntityType) []Record {
	if records, ok := rs[t]; ok && records != nil {
		return records
	}
	return []Record{}
}

// Total is the number of records across all slots.
func (rs ResultSet) Total() int {
	n := 0
	for _, records := range rs {
		n += len(records)
	}
	return n
}

// Empty reports whether no slot holds a record.
func (rs ResultSet) Empty() bool {
	return rs.Total() == 0
}
