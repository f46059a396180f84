package shared

const (
	// Sort directions
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Direction normalises a sort direction, falling back to def.
func Direction(raw, def string) string {
	switch raw {
	case SortAsc, SortDesc:
		return raw
	}
	return def
}
