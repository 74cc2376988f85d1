package gmf

import "math"

// Internal unit system: kpc, microgauss and megayear are all 1 so that
// lengths, field strengths and times pass through unchanged. Only
// angles need a real conversion at the external boundary.
const (
	kpc        = 1.0
	microgauss = 1.0
	megayear   = 1.0
	degree     = math.Pi / 180
	gigaparsec = 1e6 * kpc
	parsec     = 1e-3 * kpc
	second     = megayear / (1e6 * 60 * 60 * 24 * 365.25)
	kilometer  = kpc / 3.0856775807e+16
)

// ParamID identifies one of the named model parameters. The order
// defines the layout of the external parameter vector.
type ParamID int

const (
	DiskB1 ParamID = iota
	DiskB2
	DiskB3
	DiskH
	DiskPhase1
	DiskPhase2
	DiskPhase3
	DiskPitch
	DiskW
	PoloidalA
	PoloidalB
	PoloidalP
	PoloidalR
	PoloidalW
	PoloidalZ
	PoloidalXi
	SpurCenter
	SpurLength
	SpurWidth
	Striation
	ToroidalBN
	ToroidalBS
	ToroidalR
	ToroidalW
	ToroidalZ
	TwistingTime

	// NumParams is the length of the full parameter vector.
	NumParams
)

var paramNames = [NumParams]string{
	"diskB1", "diskB2", "diskB3", "diskH",
	"diskPhase1", "diskPhase2", "diskPhase3", "diskPitch", "diskW",
	"poloidalA", "poloidalB", "poloidalP", "poloidalR", "poloidalW",
	"poloidalZ", "poloidalXi",
	"spurCenter", "spurLength", "spurWidth",
	"striation",
	"toroidalBN", "toroidalBS", "toroidalR", "toroidalW", "toroidalZ",
	"twistingTime",
}

func (p ParamID) String() string {
	if p >= 0 && p < NumParams {
		return paramNames[p]
	}
	return "paramID(?)"
}

// unitConv maps each parameter to the multiplicative factor converting
// its external unit (microgauss, kpc, degree, Myr or dimensionless) to
// internal units.
var unitConv = [NumParams]float64{
	DiskB1:       microgauss,
	DiskB2:       microgauss,
	DiskB3:       microgauss,
	DiskH:        kpc,
	DiskPhase1:   degree,
	DiskPhase2:   degree,
	DiskPhase3:   degree,
	DiskPitch:    degree,
	DiskW:        kpc,
	PoloidalA:    kpc,
	PoloidalB:    microgauss,
	PoloidalP:    1,
	PoloidalR:    kpc,
	PoloidalW:    kpc,
	PoloidalZ:    kpc,
	PoloidalXi:   degree,
	SpurCenter:   degree,
	SpurLength:   degree,
	SpurWidth:    degree,
	Striation:    1,
	ToroidalBN:   microgauss,
	ToroidalBS:   microgauss,
	ToroidalR:    kpc,
	ToroidalW:    kpc,
	ToroidalZ:    kpc,
	TwistingTime: megayear,
}

// Unit returns the external-to-internal conversion factor for p.
func (p ParamID) Unit() float64 {
	return unitConv[p]
}

type paramSet [NumParams]float64

// nominalParams returns the fitted parameter values for a variant in
// internal units (Tab. 3 of the UF23 paper).
func nominalParams(v Variant) paramSet {
	var p paramSet
	// all but the expX variant have a -> infinity, Eq. (38)
	p[PoloidalA] = 1 * gigaparsec

	switch v {
	case Base:
		p[DiskB1] = 1.0878565e+00 * microgauss
		p[DiskB2] = 2.6605034e+00 * microgauss
		p[DiskB3] = 3.1166311e+00 * microgauss
		p[DiskH] = 7.9408965e-01 * kpc
		p[DiskPhase1] = 2.6316589e+02 * degree
		p[DiskPhase2] = 9.7782269e+01 * degree
		p[DiskPhase3] = 3.5112281e+01 * degree
		p[DiskPitch] = 1.0106900e+01 * degree
		p[DiskW] = 1.0720909e-01 * kpc
		p[PoloidalB] = 9.7775487e-01 * microgauss
		p[PoloidalP] = 1.4266186e+00
		p[PoloidalR] = 7.2925417e+00 * kpc
		p[PoloidalW] = 1.1188158e-01 * kpc
		p[PoloidalZ] = 4.4597373e+00 * kpc
		p[Striation] = 3.4557571e-01
		p[ToroidalBN] = 3.2556760e+00 * microgauss
		p[ToroidalBS] = -3.0914569e+00 * microgauss
		p[ToroidalR] = 1.0193815e+01 * kpc
		p[ToroidalW] = 1.6936993e+00 * kpc
		p[ToroidalZ] = 4.0242749e+00 * kpc
	case CRE10:
		p[DiskB1] = 1.2035697e+00 * microgauss
		p[DiskB2] = 2.7478490e+00 * microgauss
		p[DiskB3] = 3.2104342e+00 * microgauss
		p[DiskH] = 8.0844932e-01 * kpc
		p[DiskPhase1] = 2.6515882e+02 * degree
		p[DiskPhase2] = 9.8211313e+01 * degree
		p[DiskPhase3] = 3.5944588e+01 * degree
		p[DiskPitch] = 1.0162759e+01 * degree
		p[DiskW] = 1.0824003e-01 * kpc
		p[PoloidalB] = 9.6938453e-01 * microgauss
		p[PoloidalP] = 1.4150957e+00
		p[PoloidalR] = 7.2987296e+00 * kpc
		p[PoloidalW] = 1.0923051e-01 * kpc
		p[PoloidalZ] = 4.5748332e+00 * kpc
		p[Striation] = 2.4950386e-01
		p[ToroidalBN] = 3.7308133e+00 * microgauss
		p[ToroidalBS] = -3.5039958e+00 * microgauss
		p[ToroidalR] = 1.0407507e+01 * kpc
		p[ToroidalW] = 1.7398375e+00 * kpc
		p[ToroidalZ] = 2.9272800e+00 * kpc
	case NebCor:
		p[DiskB1] = 1.4081935e+00 * microgauss
		p[DiskB2] = 3.5292400e+00 * microgauss
		p[DiskB3] = 4.1290147e+00 * microgauss
		p[DiskH] = 8.1151971e-01 * kpc
		p[DiskPhase1] = 2.6447529e+02 * degree
		p[DiskPhase2] = 9.7572660e+01 * degree
		p[DiskPhase3] = 3.6403798e+01 * degree
		p[DiskPitch] = 1.0151183e+01 * degree
		p[DiskW] = 1.1863734e-01 * kpc
		p[PoloidalB] = 1.3485916e+00 * microgauss
		p[PoloidalP] = 1.3414395e+00
		p[PoloidalR] = 7.2473841e+00 * kpc
		p[PoloidalW] = 1.4318227e-01 * kpc
		p[PoloidalZ] = 4.8242603e+00 * kpc
		p[Striation] = 3.8610837e-10
		p[ToroidalBN] = 4.6491142e+00 * microgauss
		p[ToroidalBS] = -4.5006610e+00 * microgauss
		p[ToroidalR] = 1.0205288e+01 * kpc
		p[ToroidalW] = 1.7004868e+00 * kpc
		p[ToroidalZ] = 3.5557767e+00 * kpc
	case NeCL:
		p[DiskB1] = 1.4259645e+00 * microgauss
		p[DiskB2] = 1.3543223e+00 * microgauss
		p[DiskB3] = 3.4390669e+00 * microgauss
		p[DiskH] = 6.7405199e-01 * kpc
		p[DiskPhase1] = 1.9961898e+02 * degree
		p[DiskPhase2] = 1.3541461e+02 * degree
		p[DiskPhase3] = 6.4909767e+01 * degree
		p[DiskPitch] = 1.1867859e+01 * degree
		p[DiskW] = 6.1162799e-02 * kpc
		p[PoloidalB] = 9.8387831e-01 * microgauss
		p[PoloidalP] = 1.6773615e+00
		p[PoloidalR] = 7.4084361e+00 * kpc
		p[PoloidalW] = 1.4168192e-01 * kpc
		p[PoloidalZ] = 3.6521188e+00 * kpc
		p[Striation] = 3.3600213e-01
		p[ToroidalBN] = 2.6256593e+00 * microgauss
		p[ToroidalBS] = -2.5699466e+00 * microgauss
		p[ToroidalR] = 1.0134257e+01 * kpc
		p[ToroidalW] = 1.1547728e+00 * kpc
		p[ToroidalZ] = 4.5585463e+00 * kpc
	case Spur:
		p[DiskB1] = -4.2993328e+00 * microgauss
		p[DiskH] = 7.5019749e-01 * kpc
		p[DiskPhase1] = 1.5589875e+02 * degree
		p[DiskPitch] = 1.2074432e+01 * degree
		p[DiskW] = 1.2263120e-01 * kpc
		p[PoloidalB] = 9.9302987e-01 * microgauss
		p[PoloidalP] = 1.3982374e+00
		p[PoloidalR] = 7.1973387e+00 * kpc
		p[PoloidalW] = 1.2262244e-01 * kpc
		p[PoloidalZ] = 4.4853270e+00 * kpc
		p[SpurCenter] = 1.5718686e+02 * degree
		p[SpurLength] = 3.1839577e+01 * degree
		p[SpurWidth] = 1.0318114e+01 * degree
		p[Striation] = 3.3022369e-01
		p[ToroidalBN] = 2.9286724e+00 * microgauss
		p[ToroidalBS] = -2.5979895e+00 * microgauss
		p[ToroidalR] = 9.7536425e+00 * kpc
		p[ToroidalW] = 1.4210055e+00 * kpc
		p[ToroidalZ] = 6.0941229e+00 * kpc
	case SynCG:
		p[DiskB1] = 8.1386878e-01 * microgauss
		p[DiskB2] = 2.0586930e+00 * microgauss
		p[DiskB3] = 2.9437335e+00 * microgauss
		p[DiskH] = 6.2172353e-01 * kpc
		p[DiskPhase1] = 2.2988551e+02 * degree
		p[DiskPhase2] = 9.7388282e+01 * degree
		p[DiskPhase3] = 3.2927367e+01 * degree
		p[DiskPitch] = 9.9034844e+00 * degree
		p[DiskW] = 6.6517521e-02 * kpc
		p[PoloidalB] = 8.0883734e-01 * microgauss
		p[PoloidalP] = 1.5820957e+00
		p[PoloidalR] = 7.4625235e+00 * kpc
		p[PoloidalW] = 1.5003765e-01 * kpc
		p[PoloidalZ] = 3.5338550e+00 * kpc
		p[Striation] = 6.3434763e-01
		p[ToroidalBN] = 2.3991193e+00 * microgauss
		p[ToroidalBS] = -2.0919944e+00 * microgauss
		p[ToroidalR] = 9.4227834e+00 * kpc
		p[ToroidalW] = 9.1608418e-01 * kpc
		p[ToroidalZ] = 5.5844594e+00 * kpc
	case TwistX:
		p[DiskB1] = 1.3741995e+00 * microgauss
		p[DiskB2] = 2.0089881e+00 * microgauss
		p[DiskB3] = 1.5212463e+00 * microgauss
		p[DiskH] = 9.3806180e-01 * kpc
		p[DiskPhase1] = 2.3560316e+02 * degree
		p[DiskPhase2] = 1.0189856e+02 * degree
		p[DiskPhase3] = 5.6187572e+01 * degree
		p[DiskPitch] = 1.2100979e+01 * degree
		p[DiskW] = 1.4933338e-01 * kpc
		p[PoloidalB] = 6.2793114e-01 * microgauss
		p[PoloidalP] = 2.3292519e+00
		p[PoloidalR] = 7.9212358e+00 * kpc
		p[PoloidalW] = 2.9056201e-01 * kpc
		p[PoloidalZ] = 2.6274437e+00 * kpc
		p[Striation] = 7.7616317e-01
		p[TwistingTime] = 5.4733549e+01 * megayear
	case ExpX:
		p[DiskB1] = 9.9258148e-01 * microgauss
		p[DiskB2] = 2.1821124e+00 * microgauss
		p[DiskB3] = 3.1197345e+00 * microgauss
		p[DiskH] = 7.1508681e-01 * kpc
		p[DiskPhase1] = 2.4745741e+02 * degree
		p[DiskPhase2] = 9.8578879e+01 * degree
		p[DiskPhase3] = 3.4884485e+01 * degree
		p[DiskPitch] = 1.0027070e+01 * degree
		p[DiskW] = 9.8524736e-02 * kpc
		p[PoloidalA] = 6.1938701e+00 * kpc
		p[PoloidalB] = 5.8357990e+00 * microgauss
		p[PoloidalP] = 1.9510779e+00
		p[PoloidalR] = 2.4994376e+00 * kpc
		// the fit parameter is the opening angle xi; the vertical
		// scale follows as z = a*tan(xi)
		p[PoloidalXi] = 2.0926122e+01 * degree
		p[PoloidalZ] = p[PoloidalA] * math.Tan(p[PoloidalXi])
		p[Striation] = 5.1440500e-01
		p[ToroidalBN] = 2.7077434e+00 * microgauss
		p[ToroidalBS] = -2.5677104e+00 * microgauss
		p[ToroidalR] = 1.0134022e+01 * kpc
		p[ToroidalW] = 2.0956159e+00 * kpc
		p[ToroidalZ] = 5.4564991e+00 * kpc
	}
	return p
}
