package mixkernel

import "github.com/cwbudde/algo-vecmath/cpu"

func init() {
	Global.Register(Entry{
		Name:      "vecmath-sse2",
		SIMDLevel: cpu.SIMDSSE2,
		Priority:  10,
		Mix:       mixVector,
	})
}
