package value

// arrayKey is the comparable form of an entry's user key.
type arrayKey struct {
	isInt bool
	i     int64
	s     string
}

func keyOf(v Value) (arrayKey, error) {
	switch v.Kind() {
	case KindInt:
		return arrayKey{isInt: true, i: v.Int()}, nil
	case KindBool:
		n, _ := v.ToInt()
		return arrayKey{isInt: true, i: n}, nil
	case KindString:
		return arrayKey{s: v.Str()}, nil
	default:
		return arrayKey{}, &TypeError{Op: "array subscript", Kind: v.Kind()}
	}
}

// Entry is one array element: its auto-assigned index, its user key, and
// its key/value variables. Both are owned by the Array the way a scope
// owns its symbols.
type Entry struct {
	Index    int64
	Key      Value
	KeyVar   *Variable
	ValueVar *Variable
}

// Array is a dual-indexed associative array: one ordered view
// keyed by a monotonically increasing integer index, one keyed by the
// entry's user key. Deleting an entry does not reclaim or reuse its
// index, so the auto-index counter only ever advances.
type Array struct {
	order     []*Entry
	byKey     map[arrayKey]*Entry
	nextIndex int64
}

// NewEmptyArray allocates an empty Array container. Wrap it with
// value.NewArray to produce the Value the evaluator hands around.
func NewEmptyArray() *Array {
	return &Array{byKey: make(map[arrayKey]*Entry)}
}

// Len reports the number of live entries.
func (a *Array) Len() int { return len(a.order) }

// Entries returns the integer-indexed view, in index order. Callers must
// not mutate the returned slice.
func (a *Array) Entries() []*Entry { return a.order }

func (a *Array) appendEntry(key Value, k arrayKey) *Entry {
	idx := a.nextIndex
	a.nextIndex++
	e := &Entry{
		Index:    idx,
		Key:      key,
		KeyVar:   NewVar("key", VarNormal, key, nil),
		ValueVar: NewVar("value", VarNormal, Nil, nil),
	}
	a.order = append(a.order, e)
	a.byKey[k] = e
	return e
}

// GetOrNew resolves a subscript: if key is an integer
// equal to the array's next auto-index (or key is nil, meaning "append"),
// a new entry is appended; if key already names an entry, that entry's
// value variable is returned; otherwise a new nil-valued entry is
// inserted under key and the auto-index advances regardless.
func (a *Array) GetOrNew(key Value) (*Variable, error) {
	if key.IsNil() {
		e := a.appendEntry(NewInt(a.nextIndex), arrayKey{isInt: true, i: a.nextIndex})
		return e.ValueVar, nil
	}
	k, err := keyOf(key)
	if err != nil {
		return nil, err
	}
	if e, ok := a.byKey[k]; ok {
		return e.ValueVar, nil
	}
	e := a.appendEntry(key, k)
	return e.ValueVar, nil
}

// Get performs a read-only subscript: reading an absent subscript
// returns nil without creating an entry.
func (a *Array) Get(key Value) (Value, error) {
	k, err := keyOf(key)
	if err != nil {
		return Nil, err
	}
	if e, ok := a.byKey[k]; ok {
		return e.ValueVar.Value, nil
	}
	return Nil, nil
}

// Delete removes an entry. The auto-index counter is not rolled back:
// indices are never compacted or reused.
func (a *Array) Delete(key Value) bool {
	k, err := keyOf(key)
	if err != nil {
		return false
	}
	e, ok := a.byKey[k]
	if !ok {
		return false
	}
	delete(a.byKey, k)
	for i, cur := range a.order {
		if cur == e {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	e.KeyVar.Free()
	e.ValueVar.Free()
	return true
}
