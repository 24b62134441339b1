package security

// IDPool allocates the smallest unused positive integer.
// Released ids are handed out again before larger ones.
type IDPool struct {
	used map[int]struct{}
}

// NewIDPool returns an empty pool.
func NewIDPool() *IDPool {
	return &IDPool{used: make(map[int]struct{})}
}

// Allocate returns the smallest free id and marks it used.
func (p *IDPool) Allocate() int {
	id := 1
	for p.InUse(id) {
		id++
	}

	p.used[id] = struct{}{}

	return id
}

// Reserve marks id as used, e.g. for a zone loaded from storage.
func (p *IDPool) Reserve(id int) {
	p.used[id] = struct{}{}
}

// Release returns id to the pool.
func (p *IDPool) Release(id int) {
	delete(p.used, id)
}

// InUse reports whether id is allocated.
func (p *IDPool) InUse(id int) bool {
	_, ok := p.used[id]

	return ok
}
