package energy

const (
	noisySlope    = 0.8
	noisyJitterLo = 1.0
	noisyJitterHi = 5.0
)

// NoisyLinear models a link whose cost grows linearly with distance plus a
// uniform jitter in [1,5) drawn on every call. Packet size is ignored.
//
// NoisyLinear is only as safe for concurrent use as its RandSource; the
// topology calls it while holding its write lock.
type NoisyLinear struct {
	src RandSource
}

// NewNoisyLinear binds the model to src.
func NewNoisyLinear(src RandSource) (*NoisyLinear, error) {
	if src == nil {
		return nil, ErrNilRandSource
	}
	return &NoisyLinear{src: src}, nil
}

func (*NoisyLinear) Name() string        { return string(KindStochastic) }
func (*NoisyLinear) Deterministic() bool { return false }

// Cost implements Model.
func (m *NoisyLinear) Cost(distance, _ float64) (float64, error) {
	if err := validateDistance(distance); err != nil {
		return 0, err
	}
	jitter := noisyJitterLo + (noisyJitterHi-noisyJitterLo)*m.src.Float64()
	return distance*noisySlope + jitter, nil
}
