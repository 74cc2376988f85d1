package gmf

import "fmt"

// Variant selects one of the eight structural variations of the
// coherent field model (Tab. 2 of Unger & Farrar, arXiv:2311.12120).
type Variant int

const (
	Base Variant = iota
	NeCL
	ExpX
	Spur
	CRE10
	SynCG
	TwistX
	NebCor

	numVariants
)

var variantNames = map[Variant]string{
	Base:   "base",
	NeCL:   "neCL",
	ExpX:   "expX",
	Spur:   "spur",
	CRE10:  "cre10",
	SynCG:  "synCG",
	TwistX: "twistX",
	NebCor: "nebCor",
}

var variantTags = func() map[string]Variant {
	m := make(map[string]Variant, len(variantNames))
	for v, name := range variantNames {
		m[name] = v
	}
	return m
}()

// ErrUnknownVariant is returned for variant tags outside the eight
// defined model variations.
var ErrUnknownVariant = fmt.Errorf("unknown field model variant")

// ParseVariant maps a model name to its variant tag.
func ParseVariant(name string) (Variant, error) {
	v, ok := variantTags[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

// Valid reports whether v is one of the eight defined variants.
func (v Variant) Valid() bool {
	return v >= 0 && v < numVariants
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// VariantNames returns the model names in declaration order.
func VariantNames() []string {
	names := make([]string, 0, numVariants)
	for v := Variant(0); v < numVariants; v++ {
		names = append(names, variantNames[v])
	}
	return names
}

// Variants returns all defined variant tags in declaration order.
func Variants() []Variant {
	vs := make([]Variant, 0, numVariants)
	for v := Variant(0); v < numVariants; v++ {
		vs = append(vs, v)
	}
	return vs
}
