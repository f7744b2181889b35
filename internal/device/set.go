package device

// Set is an identity-keyed collection of devices that keeps listing order.
// A Set is never mutated once built, so it can be shared between goroutines.
type Set struct {
	order []string
	byID  map[string]Device
}

// NewSet builds a Set from devices. A later device with an identity already
// present replaces the earlier value but keeps its position.
func NewSet(devices ...Device) *Set {
	s := &Set{
		order: make([]string, 0, len(devices)),
		byID:  make(map[string]Device, len(devices)),
	}
	for _, d := range devices {
		if _, exists := s.byID[d.ID]; !exists {
			s.order = append(s.order, d.ID)
		}
		s.byID[d.ID] = d
	}
	return s
}

// Len returns the number of devices
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Has reports whether a device with the given identity is present
func (s *Set) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byID[id]
	return ok
}

// Get returns the device with the given identity
func (s *Set) Get(id string) (Device, bool) {
	if s == nil {
		return Device{}, false
	}
	d, ok := s.byID[id]
	return d.clone(), ok
}

// Devices returns copies of the devices in listing order
func (s *Set) Devices() []Device {
	if s == nil {
		return []Device{}
	}
	out := make([]Device, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id].clone()
	}
	return out
}

// Diff compares s (the previous population) with next.
// added holds devices of next whose identity is not in s, removed holds
// devices of s whose identity is not in next. Membership is by identity only.
func (s *Set) Diff(next *Set) (added, removed []Device) {
	for _, d := range next.Devices() {
		if !s.Has(d.ID) {
			added = append(added, d)
		}
	}
	for _, d := range s.Devices() {
		if !next.Has(d.ID) {
			removed = append(removed, d)
		}
	}
	return added, removed
}
