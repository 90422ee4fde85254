package bitflip

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidCountsKey   = errors.New("invalid counts key")
	ErrEmptyHistogram     = errors.New("empty histogram")
	ErrAmbiguousHistogram = errors.New("histogram does not agree on one syndrome")
)

/*
Counts is a measurement histogram keyed by classical register bit strings.
Keys use the conventional ordering with the highest classical bit leftmost,
so c[0] is the last character. Register separators (spaces) are ignored.
*/
type Counts map[string]uint64

// FormatKey renders a classical register, given in clbit order, as a counts key.
func FormatKey(clbits []bool) string {
	key := make([]byte, len(clbits))
	for i, bit := range clbits {
		key[len(clbits)-1-i] = bitChar(bit)
	}
	return string(key)
}

// Shots is the total number of recorded outcomes.
func (c Counts) Shots() uint64 {
	var total uint64
	for _, n := range c {
		total += n
	}
	return total
}

// Keys orders outcomes by frequency, then lexically.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if c[keys[i]] != c[keys[j]] {
			return c[keys[i]] > c[keys[j]]
		}
		return keys[i] < keys[j]
	})

	return keys
}

// ReverseKeys reverses the bit order of every key independently.
func (c Counts) ReverseKeys() Counts {
	out := make(Counts, len(c))
	for k, n := range c {
		b := []byte(k)
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		out[string(b)] += n
	}
	return out
}

/*
SyndromeFromKey extracts the ancilla bits from a counts key. Two-bit keys
hold only the ancillas (c[1]c[0]); five-bit keys come from measuring every
qubit, with the ancillas in c[4]c[3].
*/
func SyndromeFromKey(key string) (Syndrome, error) {
	key = strings.ReplaceAll(key, " ", "")

	for i := 0; i < len(key); i++ {
		if _, ok := parseBit(key[i]); !ok {
			return Syndrome{}, fmt.Errorf("%w: %q", ErrInvalidCountsKey, key)
		}
	}

	switch len(key) {
	case SyndromeBits, TotalQubits:
		// Both layouts put a[1] first and a[0] second.
		s1, _ := parseBit(key[0])
		s0, _ := parseBit(key[1])
		return Syndrome{s0: s0, s1: s1}, nil
	default:
		return Syndrome{}, fmt.Errorf("%w: %q has %d bits", ErrInvalidCountsKey, key, len(key))
	}
}

// ReadCounts decodes a YAML or JSON object of key: count pairs.
func ReadCounts(r io.Reader) (Counts, error) {
	raw := map[string]uint64{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyHistogram
		}
		return nil, fmt.Errorf("decode counts: %w", err)
	}

	counts := make(Counts, len(raw))
	for k, n := range raw {
		if _, err := SyndromeFromKey(k); err != nil {
			return nil, err
		}
		counts[k] = n
	}

	return counts, nil
}

/*
Tally aggregates a histogram by syndrome. Every outcome is decoded, so a
histogram whose shots disagree is visible instead of being read off its
first entry.
*/
type Tally struct {
	shots      uint64
	bySyndrome [4]uint64
}

// Interpret decodes every outcome in the histogram.
func Interpret(counts Counts) (Tally, error) {
	var t Tally

	for key, n := range counts {
		s, err := SyndromeFromKey(key)
		if err != nil {
			return Tally{}, err
		}
		t.bySyndrome[s.index()] += n
		t.shots += n
	}

	if t.shots == 0 {
		return Tally{}, ErrEmptyHistogram
	}

	return t, nil
}

func (t Tally) Shots() uint64 {
	return t.shots
}

func (t Tally) Count(s Syndrome) uint64 {
	return t.bySyndrome[s.index()]
}

// Fraction is the share of shots that produced s.
func (t Tally) Fraction(s Syndrome) float64 {
	if t.shots == 0 {
		return 0
	}
	return float64(t.Count(s)) / float64(t.shots)
}

// Dominant is the most frequent syndrome; ties resolve in decoder table order.
func (t Tally) Dominant() Syndrome {
	best := Syndromes[0]
	for _, s := range Syndromes[1:] {
		if t.Count(s) > t.Count(best) {
			best = s
		}
	}
	return best
}

// Unanimous reports whether every shot produced the same syndrome.
func (t Tally) Unanimous() bool {
	return t.shots > 0 && t.Count(t.Dominant()) == t.shots
}

// Strict returns ErrAmbiguousHistogram unless the tally is unanimous.
func (t Tally) Strict() error {
	if t.Unanimous() {
		return nil
	}

	d := t.Dominant()
	return fmt.Errorf(
		"%w: %s in %d of %d shots",
		ErrAmbiguousHistogram, d, t.Count(d), t.shots,
	)
}

// Diagnoses groups shot counts by the decoder's output.
func (t Tally) Diagnoses() map[Diagnosis]uint64 {
	out := make(map[Diagnosis]uint64)
	for _, s := range Syndromes {
		if n := t.Count(s); n > 0 {
			out[Decode(s)] += n
		}
	}
	return out
}
