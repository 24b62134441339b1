package security

import "fmt"

// Handle is an opaque key for a sensor owned by an Arena.
// Handles are never reused, so a stale handle stays invalid after removal.
type Handle uint32

// String formats the handle for logs.
func (h Handle) String() string {
	return fmt.Sprintf("sensor-%d", uint32(h))
}

// Arena owns sensors and hands out handles for them.
// It also allocates per-kind sensor ids. An Arena is not safe for concurrent use.
type Arena struct {
	// slots holds sensors by handle-1; removed sensors leave a nil slot.
	slots []Sensor
	// refs maps live sensor references to their handles.
	refs map[SensorRef]Handle
	// lastID is the highest id seen per kind.
	lastID map[SensorKind]int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		refs:   make(map[SensorRef]Handle),
		lastID: make(map[SensorKind]int),
	}
}

// NextID reserves the next id for kind.
func (a *Arena) NextID(kind SensorKind) int {
	a.lastID[kind]++

	return a.lastID[kind]
}

// Insert registers s and returns its handle.
func (a *Arena) Insert(s Sensor) (Handle, error) {
	ref := RefOf(s)
	if _, ok := a.refs[ref]; ok {
		return 0, fmt.Errorf("%w: %s", ErrSensorAlreadyExists, ref)
	}

	a.slots = append(a.slots, s)
	h := Handle(len(a.slots))
	a.refs[ref] = h

	if ref.ID > a.lastID[ref.Kind] {
		a.lastID[ref.Kind] = ref.ID
	}

	return h, nil
}

// Remove drops the sensor behind h.
func (a *Arena) Remove(h Handle) (Sensor, error) {
	s, ok := a.Get(h)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSensorNotFound, h)
	}

	a.slots[h-1] = nil
	delete(a.refs, RefOf(s))

	return s, nil
}

// Get returns the sensor behind h.
func (a *Arena) Get(h Handle) (Sensor, bool) {
	if h == 0 || int(h) > len(a.slots) {
		return nil, false
	}

	s := a.slots[h-1]

	return s, s != nil
}

// Lookup returns the handle of the sensor with ref.
func (a *Arena) Lookup(ref SensorRef) (Handle, bool) {
	h, ok := a.refs[ref]

	return h, ok
}

// Handles returns the live handles in insertion order.
func (a *Arena) Handles() []Handle {
	handles := make([]Handle, 0, len(a.refs))

	for i, s := range a.slots {
		if s != nil {
			handles = append(handles, Handle(i+1))
		}
	}

	return handles
}

// ByKind returns the live handles of one sensor kind in insertion order.
func (a *Arena) ByKind(kind SensorKind) []Handle {
	var handles []Handle

	for i, s := range a.slots {
		if s != nil && s.Kind() == kind {
			handles = append(handles, Handle(i+1))
		}
	}

	return handles
}

// Len returns the number of live sensors.
func (a *Arena) Len() int {
	return len(a.refs)
}
