package registry

import "log/slog"

// idAlphabet is the 60-symbol run identifier alphabet: lower and upper
// case letters excluding the visually ambiguous o/O pair, plus digits.
var idAlphabet = []byte("abcdefghijklmnpqrstuvwxyzABCDEFGHIJKLMNPQRSTUVWXYZ0123456789")

// IDLength is the fixed length of a run identifier.
const IDLength = 8

// idGenerator is a base-60 odometer over the identifier alphabet. Each of
// the 8 positions cycles through the alphabet; incrementing a position that
// overflows resets it and carries into the next. Overflow past the last
// position wraps the whole counter back to the first identifier, which is
// logged and never treated as an error.
//
// Not safe for concurrent use; the registry serializes access.
type idGenerator struct {
	log  *slog.Logger
	next [IDLength]int
}

// nextID returns the current identifier and advances the counter.
func (g *idGenerator) nextID() string {
	buf := make([]byte, IDLength)
	for i, idx := range g.next {
		buf[i] = idAlphabet[idx]
	}

	for i := 0; ; i++ {
		if i == IDLength {
			g.log.Warn("run id counter overflow, next id starts from the beginning")
			g.next = [IDLength]int{}
			break
		}
		g.next[i]++
		if g.next[i] < len(idAlphabet) {
			break
		}
		g.next[i] = 0
	}
	return string(buf)
}
