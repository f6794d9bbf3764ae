package epoch

import "fmt"

// DefaultLength is the length of a single epoch in seconds (one calendar day).
const DefaultLength uint64 = 86400

// Config describes how contribution epochs are quantized from wall-clock time.
type Config struct {
	// Genesis is the unix timestamp of the first possible epoch boundary.
	// Every epoch identifier is Genesis plus a whole number of Lengths.
	Genesis uint64

	// Length is the number of seconds that make up a single epoch. The value
	// must be greater than zero.
	Length uint64
}

// DefaultConfig returns a day-aligned configuration anchored at the supplied
// genesis timestamp.
func DefaultConfig(genesis uint64) Config {
	return Config{
		Genesis: genesis,
		Length:  DefaultLength,
	}
}

// Validate ensures the configuration is self-consistent.
func (c Config) Validate() error {
	if c.Length == 0 {
		return fmt.Errorf("epoch length must be greater than zero")
	}
	if c.Genesis == 0 {
		return fmt.Errorf("epoch genesis must be set")
	}
	return nil
}
