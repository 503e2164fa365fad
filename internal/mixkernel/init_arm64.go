package mixkernel

import "github.com/cwbudde/algo-vecmath/cpu"

func init() {
	Global.Register(Entry{
		Name:      "vecmath-neon",
		SIMDLevel: cpu.SIMDNEON,
		Priority:  10,
		Mix:       mixVector,
	})
}
