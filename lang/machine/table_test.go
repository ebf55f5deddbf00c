package machine

import "testing"

func internTestString(h *Heap, s string) *ObjString { return h.internString(s) }

func TestTableSetGetDelete(t *testing.T) {
	h := NewHeap(2, false)
	tbl := NewTable()

	k1 := internTestString(h, "alpha")
	k2 := internTestString(h, "beta")

	if !tbl.Set(k1, Number(1)) {
		t.Fatal("expected Set of a new key to report true")
	}
	if tbl.Set(k1, Number(2)) {
		t.Fatal("expected Set of an existing key to report false")
	}

	v, ok := tbl.Get(k1)
	if !ok || v != Number(2) {
		t.Fatalf("got %v, %v, want 2, true", v, ok)
	}

	if _, ok := tbl.Get(k2); ok {
		t.Fatal("expected beta to be absent")
	}

	if !tbl.Delete(k1) {
		t.Fatal("expected Delete of a present key to report true")
	}
	if _, ok := tbl.Get(k1); ok {
		t.Fatal("expected alpha to be absent after Delete")
	}
	if tbl.Delete(k1) {
		t.Fatal("expected a second Delete to report false")
	}
}

func TestTableTombstoneReuse(t *testing.T) {
	h := NewHeap(2, false)
	tbl := NewTable()

	keys := make([]*ObjString, 0, 16)
	for i := 0; i < 16; i++ {
		k := internTestString(h, string(rune('a'+i)))
		keys = append(keys, k)
		tbl.Set(k, Number(i))
	}
	// delete every other key, leaving tombstones, then reinsert: count must
	// land back where it was instead of drifting from tombstones counting as
	// live entries.
	before := tbl.count
	for i := 0; i < len(keys); i += 2 {
		tbl.Delete(keys[i])
	}
	for i := 0; i < len(keys); i += 2 {
		tbl.Set(keys[i], Number(100+i))
	}
	if tbl.count != before {
		t.Fatalf("count after tombstone reuse = %d, want %d", tbl.count, before)
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		if !ok {
			t.Fatalf("key %d missing after tombstone reuse", i)
		}
		want := Number(i)
		if i%2 == 0 {
			want = Number(100 + i)
		}
		if v != want {
			t.Fatalf("key %d: got %v want %v", i, v, want)
		}
	}
}

func TestTableFindStringByContent(t *testing.T) {
	h := NewHeap(2, false)
	tbl := NewTable()
	k := internTestString(h, "shared")
	tbl.Set(k, Bool(true))

	found := tbl.FindString("shared", k.Hash)
	if found != k {
		t.Fatal("FindString should return the same *ObjString by identity")
	}
	if tbl.FindString("missing", hashString("missing")) != nil {
		t.Fatal("FindString should return nil for an absent string")
	}
}

func TestGrowCapacity(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 8}, {4, 8}, {8, 16}, {16, 32},
	}
	for _, c := range cases {
		if got := growCapacity(c.in); got != c.want {
			t.Errorf("growCapacity(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
