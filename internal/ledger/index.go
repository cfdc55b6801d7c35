package ledger

// Index maps a normalised key to the position of the last row appended
// under it. It is updated on every append, so lookups never rescan.
type Index struct {
	schema Schema
	last   map[string]int
}

func NewIndex(schema Schema) *Index {
	return &Index{schema: schema, last: make(map[string]int)}
}

// Observe records that row was stored at position pos.
func (ix *Index) Observe(pos int, row Row) {
	key, ok := ix.schema.Key(row)
	if !ok {
		return
	}
	if prev, seen := ix.last[key]; seen && prev > pos {
		return
	}
	ix.last[key] = pos
}

func (ix *Index) Lookup(key string) (int, bool) {
	pos, ok := ix.last[NormalizeKey(key)]
	return pos, ok
}

func (ix *Index) Len() int {
	return len(ix.last)
}

// Arena is the in-process row storage for one ledger: rows in append order
// plus the keyed index over them. It is not safe for concurrent use.
type Arena struct {
	schema Schema
	rows   []Row
	index  *Index
}

func NewArena(schema Schema) *Arena {
	return &Arena{schema: schema, index: NewIndex(schema)}
}

// Append stores a copy of row and returns its position.
func (a *Arena) Append(row Row) int {
	pos := len(a.rows)
	stored := row.Clone()
	a.rows = append(a.rows, stored)
	a.index.Observe(pos, stored)
	return pos
}

// Rows returns a copy of every row in append order.
func (a *Arena) Rows() []Row {
	out := make([]Row, len(a.rows))
	for i, row := range a.rows {
		out[i] = row.Clone()
	}
	return out
}

// Latest returns the last row appended under key.
func (a *Arena) Latest(key string) (Row, bool) {
	pos, ok := a.index.Lookup(key)
	if !ok {
		return nil, false
	}
	return a.rows[pos].Clone(), true
}

func (a *Arena) Len() int {
	return len(a.rows)
}

func (a *Arena) Schema() Schema {
	return a.schema
}
