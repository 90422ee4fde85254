package bitflip

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	ErrUnsupportedGate = errors.New("unsupported gate")
	ErrInvalidShots    = errors.New("shot count must be positive")
)

/*
Sampler is the collaborator that executes a circuit and returns the
measurement histogram. Anything that can run OpenQASM, or replay a saved
histogram, can stand in for it.
*/
type Sampler interface {
	Sample(ctx context.Context, circuit Circuit, shots int) (Counts, error)
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func(ctx context.Context, circuit Circuit, shots int) (Counts, error)

func (f SamplerFunc) Sample(ctx context.Context, circuit Circuit, shots int) (Counts, error) {
	return f(ctx, circuit, shots)
}

/*
FrameSampler executes the circuit on computational-basis inputs. Every gate
in the syndrome circuit permutes basis states (CX, X, Y) or only changes
their phase (Z, id), so a basis input stays a basis state and the outcome
of each shot follows from bit propagation alone. Superposed inputs are
sampled as a mixture of |0⟩ and |1⟩ weighted by the Born probabilities,
which gives the same computational-basis statistics.
*/
type FrameSampler struct {
	mu           sync.Mutex
	rng          *rand.Rand
	logicalOne   float64
	readoutError float64
}

type FrameOption func(*FrameSampler)

// WithAmplitudes sets the logical input α|0⟩ + β|1⟩.
func WithAmplitudes(alpha, beta complex128) FrameOption {
	return func(fs *FrameSampler) {
		p0 := real(alpha)*real(alpha) + imag(alpha)*imag(alpha)
		p1 := real(beta)*real(beta) + imag(beta)*imag(beta)
		if p0+p1 > 0 {
			fs.logicalOne = p1 / (p0 + p1)
		}
	}
}

// WithLogicalInput sets the probability of preparing the logical |1⟩.
func WithLogicalInput(p1 float64) FrameOption {
	return func(fs *FrameSampler) {
		fs.logicalOne = clamp01(p1)
	}
}

// WithReadoutError flips each measured bit independently with probability p.
func WithReadoutError(p float64) FrameOption {
	return func(fs *FrameSampler) {
		fs.readoutError = clamp01(p)
	}
}

// WithSeed makes sampling reproducible.
func WithSeed(seed uint64) FrameOption {
	return func(fs *FrameSampler) {
		fs.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func NewFrameSampler(opts ...FrameOption) *FrameSampler {
	seed := uint64(time.Now().UnixNano())
	fs := &FrameSampler{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}

	for _, opt := range opts {
		opt(fs)
	}

	return fs
}

func (fs *FrameSampler) Sample(ctx context.Context, circuit Circuit, shots int) (Counts, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShots, shots)
	}

	zero, err := Propagate(circuit, false)
	if err != nil {
		return nil, err
	}
	one, err := Propagate(circuit, true)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	counts := make(Counts)
	outcome := make([]bool, len(zero))

	for shot := 0; shot < shots; shot++ {
		if shot%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		base := zero
		if fs.logicalOne > 0 && fs.rng.Float64() < fs.logicalOne {
			base = one
		}

		for i, bit := range base {
			if fs.readoutError > 0 && fs.rng.Float64() < fs.readoutError {
				bit = !bit
			}
			outcome[i] = bit
		}

		counts[FormatKey(outcome)]++
	}

	log.Debug("sampled circuit", "scenario", circuit.Scenario, "shots", shots, "outcomes", len(counts))
	return counts, nil
}

/*
Propagate runs the circuit on the basis state with the data qubit set to
logical and every other qubit at zero, and returns the classical register
in clbit order (c[0] first).
*/
func Propagate(circuit Circuit, logical bool) ([]bool, error) {
	var qubits [TotalQubits]bool
	qubits[DataQubit] = logical

	for _, g := range circuit.Gates {
		switch g.Name {
		case "cx":
			control, target := g.Qubits[0], g.Qubits[1]
			qubits[target] = qubits[target] != qubits[control]
		case "x", "y":
			qubits[g.Qubits[0]] = !qubits[g.Qubits[0]]
		case "id", "z", "barrier":
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedGate, g.Name)
		}
	}

	clbits := make([]bool, len(circuit.Measured))
	for i, q := range circuit.Measured {
		clbits[i] = qubits[q]
	}
	return clbits, nil
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
