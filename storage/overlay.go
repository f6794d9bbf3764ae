package storage

// Overlay buffers writes on top of a base database so a failed ledger
// transaction can be discarded without touching persistent state. Commit
// flushes the buffered writes to the base in insertion order.
type Overlay struct {
	base   Database
	order  []string
	writes map[string][]byte
}

// NewOverlay creates an overlay over the provided base database.
func NewOverlay(base Database) *Overlay {
	return &Overlay{
		base:   base,
		writes: make(map[string][]byte),
	}
}

func (o *Overlay) Put(key []byte, value []byte) error {
	k := string(key)
	if _, ok := o.writes[k]; !ok {
		o.order = append(o.order, k)
	}
	o.writes[k] = append([]byte(nil), value...)
	return nil
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	if value, ok := o.writes[string(key)]; ok {
		return append([]byte(nil), value...), nil
	}
	return o.base.Get(key)
}

// Close satisfies the Database interface; the base stays open.
func (o *Overlay) Close() {}

// Commit flushes buffered writes to the base database.
func (o *Overlay) Commit() error {
	for _, k := range o.order {
		if err := o.base.Put([]byte(k), o.writes[k]); err != nil {
			return err
		}
	}
	o.order = nil
	o.writes = make(map[string][]byte)
	return nil
}
