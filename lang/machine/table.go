package machine

// tableMaxLoad is the load factor threshold that forces a rehash.
const tableMaxLoad = 0.75

// entry is one slot of a Table. Three states, distinguished by (key,
// value): empty (key == nil, value == Nil{}), occupied (key != nil, any
// value), tombstone (key == nil, value == Bool(true)).
type entry struct {
	key   *ObjString
	value Value
}

// Table is the open-addressed, linear-probing, string-keyed hash table used
// for the interned-string set, the globals table, class method tables and
// instance field tables. count includes tombstones as well as live entries:
// Delete leaves count unchanged and reusing a tombstone does not raise it,
// which is how tombstones weigh against capacity when deciding to rehash.
// A rehash drops tombstones and recounts live entries only.
type Table struct {
	count   int
	entries []entry
}

// NewTable returns an empty table. Its backing array is allocated lazily, on
// the first Set, matching the reference implementation's initTable.
func NewTable() *Table { return &Table{} }

// findEntry locates the slot key belongs in, returning either the matching
// occupied entry or the first tombstone seen on the probe before an empty
// slot, so tombstone slots can be reused. Keys are compared by identity
// (pointer equality), which is sound because every caller but the intern
// set's FindString hands it an already-interned key.
func findEntry(entries []entry, key *ObjString) *entry {
	capacity := len(entries)
	index := int(key.Hash) % capacity
	var tombstone *entry
	for {
		e := &entries[index]
		switch {
		case e.key == nil:
			if _, isNil := e.value.(Nil); isNil {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		index = (index + 1) % capacity
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]entry, capacity)
	for i := range entries {
		entries[i] = entry{key: nil, value: Nil{}}
	}

	t.count = 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dest := findEntry(entries, e.key)
		dest.key = e.key
		dest.value = e.value
		t.count++
	}
	t.entries = entries
}

// Get returns the value stored for key and whether it was present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.count == 0 {
		return nil, false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return nil, false
	}
	return e.value, true
}

// Set stores value for key, growing and rehashing first if the load factor
// would be exceeded. It reports whether key was newly added.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		capacity := growCapacity(len(t.entries))
		t.adjustCapacity(capacity)
	}

	e := findEntry(t.entries, key)
	isNewKey := e.key == nil
	if isNewKey {
		if _, isNil := e.value.(Nil); isNil {
			t.count++
		}
	}
	e.key = key
	e.value = value
	return isNewKey
}

// Delete removes key, leaving a tombstone so later probes still find keys
// that hashed past it.
func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true)
	return true
}

// AddAll copies every entry of from into t, used by OP_INHERIT to copy a
// superclass's method table into its subclass.
func (t *Table) AddAll(from *Table) {
	for _, e := range from.entries {
		if e.key != nil {
			t.Set(e.key, e.value)
		}
	}
}

// FindString is the intern set's lookup: unlike every other Table consumer,
// it has no ObjString key yet to compare by identity, so it compares by
// (hash, length, bytes) instead. It is the only place keys are inspected
// rather than compared by reference.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.count == 0 {
		return nil
	}
	capacity := len(t.entries)
	index := int(hash) % capacity
	for {
		e := &t.entries[index]
		if e.key == nil {
			if _, isNil := e.value.(Nil); isNil {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) % capacity
	}
}

// removeWhite deletes every entry whose key is unmarked, implementing the
// intern set's weak membership: once a string becomes unreachable from
// every other root, its intern-table entry no longer keeps it alive.
func (t *Table) removeWhite() {
	for _, e := range t.entries {
		if e.key != nil && !e.key.marked {
			t.Delete(e.key)
		}
	}
}

// mark marks every key and value in t reachable, used for tables (globals,
// methods, fields) that hold strong references, as opposed to the intern
// set which is swept by removeWhite instead.
func (t *Table) mark(gc *collector) {
	for _, e := range t.entries {
		if e.key != nil {
			gc.markObject(e.key)
			gc.markValue(e.value)
		}
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
