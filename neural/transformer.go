package neural

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const layerNormEps = 1e-5

// attentionHead projects the normalised token into query, key and value.
// With a single token the score is squashed with tanh instead of softmax.
type attentionHead struct {
	Q, K, V *mat.Dense // headDim × modelDim
}

type block struct {
	heads            []attentionHead
	wo               *mat.Dense // modelDim × heads*headDim
	ff1, ff2         dense
	ln1Gain, ln1Bias *mat.Dense
	ln2Gain, ln2Bias *mat.Dense
}

// Transformer is a single-token pre-norm transformer: a tanh embedding,
// a stack of attention + feed-forward blocks with residuals, and a tanh
// output projection.
type Transformer struct {
	embed  dense
	blocks []block
	out    dense

	modelDim, headDim, ffDim int
}

func newTransformer(spec Spec) *Transformer {
	d, hd := spec.ModelDim, spec.HeadDim
	t := &Transformer{
		embed:    newDense(spec.Inputs, d),
		blocks:   make([]block, spec.Blocks),
		out:      newDense(d, spec.Outputs),
		modelDim: d,
		headDim:  hd,
		ffDim:    spec.FFDim,
	}
	for i := range t.blocks {
		b := block{
			heads:   make([]attentionHead, spec.Heads),
			wo:      mat.NewDense(d, spec.Heads*hd, nil),
			ff1:     newDense(d, spec.FFDim),
			ff2:     newDense(spec.FFDim, d),
			ln1Gain: mat.NewDense(d, 1, nil),
			ln1Bias: mat.NewDense(d, 1, nil),
			ln2Gain: mat.NewDense(d, 1, nil),
			ln2Bias: mat.NewDense(d, 1, nil),
		}
		for h := range b.heads {
			b.heads[h] = attentionHead{
				Q: mat.NewDense(hd, d, nil),
				K: mat.NewDense(hd, d, nil),
				V: mat.NewDense(hd, d, nil),
			}
		}
		fill(b.ln1Gain, 1)
		fill(b.ln2Gain, 1)
		t.blocks[i] = b
	}
	return t
}

func (t *Transformer) init(rng *rand.Rand, scale float64) {
	randomize(rng, t.embed.W, scale)
	for _, b := range t.blocks {
		for _, h := range b.heads {
			randomize(rng, h.Q, scale)
			randomize(rng, h.K, scale)
			randomize(rng, h.V, scale)
		}
		randomize(rng, b.wo, scale)
		randomize(rng, b.ff1.W, scale)
		randomize(rng, b.ff2.W, scale)
	}
	randomize(rng, t.out.W, scale)
}

func (t *Transformer) tensors() []namedTensor {
	ts := []namedTensor{
		{"embed.w", t.embed.W},
		{"embed.b", t.embed.B},
	}
	for i, b := range t.blocks {
		p := fmt.Sprintf("blocks.%d.", i)
		for h, head := range b.heads {
			hp := fmt.Sprintf("%sheads.%d.", p, h)
			ts = append(ts,
				namedTensor{hp + "q", head.Q},
				namedTensor{hp + "k", head.K},
				namedTensor{hp + "v", head.V},
			)
		}
		ts = append(ts,
			namedTensor{p + "wo", b.wo},
			namedTensor{p + "ln1.gain", b.ln1Gain},
			namedTensor{p + "ln1.bias", b.ln1Bias},
			namedTensor{p + "ff1.w", b.ff1.W},
			namedTensor{p + "ff1.b", b.ff1.B},
			namedTensor{p + "ff2.w", b.ff2.W},
			namedTensor{p + "ff2.b", b.ff2.B},
			namedTensor{p + "ln2.gain", b.ln2Gain},
			namedTensor{p + "ln2.bias", b.ln2Bias},
		)
	}
	return append(ts,
		namedTensor{"out.w", t.out.W},
		namedTensor{"out.b", t.out.B},
	)
}

func (t *Transformer) forward(x []float64, s *Scratch) []float64 {
	k := 0
	next := func(n int) []float64 {
		b := s.buf(k, n)
		k++
		return b
	}

	h := t.embed.forward(mat.NewVecDense(len(x), x), next(t.modelDim))
	for i := range t.blocks {
		h = t.blocks[i].forward(h, t.headDim, t.ffDim, next)
	}
	n, _ := t.out.W.Dims()
	return t.out.forward(h, next(n)).RawVector().Data
}

func (b *block) forward(x *mat.VecDense, hd, ff int, next func(int) []float64) *mat.VecDense {
	d := x.Len()

	normed := mat.NewVecDense(d, next(d))
	layerNorm(normed.RawVector().Data, x.RawVector().Data, b.ln1Gain, b.ln1Bias)

	concat := next(len(b.heads) * hd)
	q := mat.NewVecDense(hd, next(hd))
	k := mat.NewVecDense(hd, next(hd))
	scale := math.Sqrt(float64(hd))
	for i, head := range b.heads {
		q.MulVec(head.Q, normed)
		k.MulVec(head.K, normed)
		score := math.Tanh(mat.Dot(q, k) / scale)

		v := mat.NewVecDense(hd, concat[i*hd:(i+1)*hd])
		v.MulVec(head.V, normed)
		v.ScaleVec(score, v)
	}

	residual := mat.NewVecDense(d, next(d))
	residual.MulVec(b.wo, mat.NewVecDense(len(concat), concat))
	residual.AddVec(residual, x)

	normed2 := mat.NewVecDense(d, next(d))
	layerNorm(normed2.RawVector().Data, residual.RawVector().Data, b.ln2Gain, b.ln2Bias)

	hidden := b.ff1.forward(normed2, next(ff))
	out := b.ff2.forward(hidden, next(d))
	out.AddVec(out, residual)
	return out
}

// layerNorm writes (x - mean) / sqrt(var + eps) * gain + bias into dst.
func layerNorm(dst, x []float64, gain, bias *mat.Dense) {
	mean, variance := stat.PopMeanVariance(x, nil)
	std := math.Sqrt(variance + layerNormEps)
	g, b := gain.RawMatrix().Data, bias.RawMatrix().Data
	for i, v := range x {
		dst[i] = (v-mean)/std*g[i] + b[i]
	}
}
