package energy

const (
	// DefaultElecPerUnit is the electronics energy spent per packet unit.
	DefaultElecPerUnit = 0.5
	// DefaultAmpPerUnit is the amplifier coefficient applied to size * d².
	DefaultAmpPerUnit = 0.02
)

// FirstOrderRadio is the classic first-order radio model:
//
//	cost = Elec*size + Amp*size*d²
//
// It is pure and safe for concurrent use.
type FirstOrderRadio struct {
	ElecPerUnit float64
	AmpPerUnit  float64
}

// NewFirstOrderRadio returns the model with the default coefficients.
func NewFirstOrderRadio() FirstOrderRadio {
	return FirstOrderRadio{
		ElecPerUnit: DefaultElecPerUnit,
		AmpPerUnit:  DefaultAmpPerUnit,
	}
}

func (FirstOrderRadio) Name() string        { return string(KindDeterministic) }
func (FirstOrderRadio) Deterministic() bool { return true }

// Cost implements Model.
func (m FirstOrderRadio) Cost(distance, packetSize float64) (float64, error) {
	if err := validateDistance(distance); err != nil {
		return 0, err
	}
	if err := ValidatePacketSize(packetSize); err != nil {
		return 0, err
	}
	return m.ElecPerUnit*packetSize + m.AmpPerUnit*packetSize*distance*distance, nil
}
