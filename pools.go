package rowdb

import (
	"sync"

	"github.com/andreyvit/rowdb/tuple"
)

var scratchRWPool = &sync.Pool{
	New: func() any {
		return tuple.NewRW()
	},
}

// getScratchRW returns an empty builder for single-value encodings.
func getScratchRW() *tuple.RW {
	return scratchRWPool.Get().(*tuple.RW)
}

func releaseScratchRW(rw *tuple.RW) {
	rw.Reset()
	scratchRWPool.Put(rw)
}
