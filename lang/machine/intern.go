package machine

// hashString computes clox's FNV-1a hash over s.
func hashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// internString returns the canonical *ObjString for s, allocating and
// registering a new one in the intern set on first sight. Every subsequent
// string literal or runtime-built string with the same bytes returns the
// identical pointer, which is what makes identity comparison sound for
// ObjString.
func (h *Heap) internString(s string) *ObjString {
	hash := hashString(s)
	if interned := h.strings.FindString(s, hash); interned != nil {
		return interned
	}

	str := &ObjString{Chars: s, Hash: hash}
	h.registerObject(str, objString, len(s))
	h.strings.Set(str, Nil{})
	return str
}
