package gl

// Handle is a 1-based position in a HandleTable. NullHandle never resolves.
type Handle uint32

// NullHandle selects no object.
const NullHandle Handle = 0

// HandleTable maps handles to host objects for one resource kind.
//
// Tables only grow: there is no delete, so a handle stays valid for the
// life of the table and is never reused.
type HandleTable struct {
	kind    string
	objects []Object
}

// NewHandleTable creates an empty table.
func NewHandleTable(kind string) *HandleTable {
	return &HandleTable{kind: kind}
}

// Kind names the resource kind, for logs.
func (t *HandleTable) Kind() string {
	return t.kind
}

// Add appends obj and returns its handle, which is the new table length.
// A nil obj still takes a slot.
func (t *HandleTable) Add(obj Object) Handle {
	t.objects = append(t.objects, obj)
	return Handle(len(t.objects))
}

// Resolve returns the object for h. NullHandle and handles past the end
// resolve to nil with ok == false.
func (t *HandleTable) Resolve(h Handle) (Object, bool) {
	if h == NullHandle || int(h) > len(t.objects) {
		return nil, false
	}
	return t.objects[h-1], true
}

// Len returns the number of handles issued.
func (t *HandleTable) Len() int {
	return len(t.objects)
}
