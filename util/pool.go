package util

import "sync"

// LineBufSize is the initial capacity of a pooled line-scanning buffer.
// Readers may grow past it up to MaxLineSize.
const LineBufSize = 64 * 1024

// MaxLineSize bounds a single line of child-process output (4 MiB).
// TLC error traces can print very long state dumps on one line.
const MaxLineSize = 4 * 1024 * 1024

// BufPool provides reusable byte buffers for the output stream readers,
// two of which are started for every child process.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, LineBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
