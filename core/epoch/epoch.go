package epoch

import "time"

// Identifier is a day-aligned unix timestamp naming one contribution epoch.
// Epochs are created lazily by the ledger: an Identifier only ever enters
// state when at least one contribution landed inside its window.
type Identifier = uint64

// Quantize maps a wall-clock instant onto the epoch boundary it falls into.
// Instants before the genesis boundary clamp to genesis rather than producing
// an identifier the ledger could never have minted for.
func (c Config) Quantize(now time.Time) Identifier {
	ts := uint64(now.Unix())
	if ts <= c.Genesis {
		return c.Genesis
	}
	elapsed := ts - c.Genesis
	return c.Genesis + (elapsed/c.Length)*c.Length
}

// Next returns the boundary immediately following the supplied identifier.
func (c Config) Next(id Identifier) Identifier {
	return id + c.Length
}

// Elapsed reports whether the epoch identified by id has fully closed as of
// the supplied instant, i.e. at least one boundary has passed since it began.
func (c Config) Elapsed(id Identifier, now time.Time) bool {
	return c.Quantize(now) > id
}
