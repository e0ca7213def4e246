package neural

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// GenomeJSON is the serialised form of a genome. The kind tag selects the
// architecture; tensors are listed in the architecture's fixed order.
type GenomeJSON struct {
	Kind         string       `json:"kind"`
	MutationRate float64      `json:"mutation_rate"`
	Spec         Spec         `json:"spec"`
	Tensors      []TensorJSON `json:"tensors"`
}

// TensorJSON is one row-major parameter matrix.
type TensorJSON struct {
	Name string    `json:"name"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (g *Genome) MarshalJSON() ([]byte, error) {
	ts := g.tensors()
	out := GenomeJSON{
		Kind:         g.Kind.String(),
		MutationRate: g.MutationRate,
		Spec:         g.spec,
		Tensors:      make([]TensorJSON, len(ts)),
	}
	for i, t := range ts {
		r, c := t.M.Dims()
		out.Tensors[i] = TensorJSON{
			Name: t.Name,
			Rows: r,
			Cols: c,
			Data: append([]float64(nil), t.M.RawMatrix().Data...),
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown kinds fail with
// ErrUnknownKind; tensors that do not match the declared architecture fail
// with ErrShapeMismatch.
func (g *Genome) UnmarshalJSON(data []byte) error {
	var in GenomeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return err
	}
	spec := in.Spec
	spec.Kind = kind
	if err := checkSpec(spec); err != nil {
		return err
	}

	decoded := newZeroGenome(spec)
	decoded.MutationRate = in.MutationRate
	ts := decoded.tensors()
	if len(in.Tensors) != len(ts) {
		return fmt.Errorf("%w: %d tensors, want %d", ErrShapeMismatch, len(in.Tensors), len(ts))
	}
	for i, t := range ts {
		src := in.Tensors[i]
		r, c := t.M.Dims()
		if src.Name != t.Name || src.Rows != r || src.Cols != c || len(src.Data) != r*c {
			return fmt.Errorf("%w: tensor %q (%dx%d, %d values), want %q (%dx%d)",
				ErrShapeMismatch, src.Name, src.Rows, src.Cols, len(src.Data), t.Name, r, c)
		}
		copy(t.M.RawMatrix().Data, src.Data)
	}

	*g = *decoded
	return nil
}

// checkSpec rejects architectures that cannot be allocated.
func checkSpec(s Spec) error {
	var errs []error
	if s.Inputs < 1 || s.Outputs < 1 {
		errs = append(errs, fmt.Errorf("inputs and outputs must be >= 1, got %d and %d", s.Inputs, s.Outputs))
	}
	switch s.Kind {
	case KindMLP:
		for i, h := range s.Hidden {
			if h < 1 {
				errs = append(errs, fmt.Errorf("hidden[%d] must be >= 1, got %d", i, h))
			}
		}
	case KindTransformer:
		if s.ModelDim < 1 || s.Blocks < 0 || s.Heads < 1 || s.HeadDim < 1 || s.FFDim < 1 {
			errs = append(errs, errors.New("transformer dimensions must be >= 1"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrShapeMismatch, err)
	}
	return nil
}

// MarshalGenome encodes a genome as JSON.
func MarshalGenome(g *Genome) ([]byte, error) {
	return json.Marshal(g)
}

// UnmarshalGenome decodes a genome written by MarshalGenome.
func UnmarshalGenome(data []byte) (*Genome, error) {
	g := &Genome{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SaveGenomes writes a genome list to path as indented JSON.
func SaveGenomes(path string, genomes []*Genome) error {
	data, err := json.MarshalIndent(genomes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode genomes: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write genomes: %w", err)
	}
	return nil
}

// LoadGenomes reads a genome list written by SaveGenomes.
func LoadGenomes(path string) ([]*Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genomes: %w", err)
	}
	var genomes []*Genome
	if err := json.Unmarshal(data, &genomes); err != nil {
		return nil, fmt.Errorf("decode genomes %s: %w", path, err)
	}
	return genomes, nil
}
