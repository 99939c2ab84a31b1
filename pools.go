package dart

import "sync"

var packBufPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

func releasePackBuf(b []byte) {
	if cap(b) > 1<<20 {
		return // don't pin large buffers
	}
	packBufPool.Put(b[:0])
}

var orderPool = &sync.Pool{
	New: func() any {
		return make([]int, 0, 64)
	},
}

func releaseOrder(o []int) {
	orderPool.Put(o[:0])
}
