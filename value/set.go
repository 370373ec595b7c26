package value

// SetDef is a user-defined aggregate type template: a name and an
// ordered mapping from member name to a template variable, plus a
// reference count because every instance retains a back-pointer to it.
type SetDef struct {
	Name      string
	Order     []string
	Templates map[string]*Variable
	Funcs     map[string]*Function
	refs      int64
}

func NewSetDef(name string) *SetDef {
	return &SetDef{Name: name, Templates: make(map[string]*Variable), Funcs: make(map[string]*Function)}
}

// AddMember appends a template variable, in declaration order.
func (s *SetDef) AddMember(name string, tmpl *Variable) {
	if _, exists := s.Templates[name]; !exists {
		s.Order = append(s.Order, name)
	}
	s.Templates[name] = tmpl
}

// AddFunc registers a member function, keyed by its own name. The
// constructor is the member function whose name matches the set's own
// name, e.g. `Set Point { func Point(...) { ... } }`.
func (s *SetDef) AddFunc(fn *Function) {
	s.Funcs[fn.Name] = fn
}

// Ctor returns the set's constructor function, if it declared one.
func (s *SetDef) Ctor() *Function {
	return s.Funcs[s.Name]
}

func (s *SetDef) Retain() *SetDef { s.refs++; return s }
func (s *SetDef) Release()        { if s.refs > 0 { s.refs-- } }
func (s *SetDef) RefCount() int64 { return s.refs }

// Object is an instance of a Set: a pointer to its set template plus an
// ordered mapping from member name to the instance's own variables,
// deep-copied from the template on construction.
type Object struct {
	Set     *SetDef
	Order   []string
	Members map[string]*Variable
}

// NewObjectFromSet allocates an object from a template, duplicating
// every template member into a fresh variable owned by the new
// instance. The set's refcount is bumped since the
// object retains a back-pointer to it.
func NewObjectFromSet(set *SetDef) *Object {
	o := &Object{Set: set.Retain(), Members: make(map[string]*Variable, len(set.Order))}
	for _, name := range set.Order {
		tmpl := set.Templates[name]
		o.Order = append(o.Order, name)
		o.Members[name] = tmpl.Dup(name, o)
	}
	return o
}

// Member looks up a member variable by name.
func (o *Object) Member(name string) (*Variable, bool) {
	v, ok := o.Members[name]
	return v, ok
}

// Release tears down the object's back-pointer to its set template. It
// does not free member variables' values explicitly: those are reclaimed
// the normal way, by the Go garbage collector, once the Object itself is
// unreachable, cycles included (see SPEC_FULL.md's note on cycle handling).
func (o *Object) Release() {
	o.Set.Release()
}
