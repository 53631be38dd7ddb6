// Copyright 2024 The Brain B2B Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pricelist

import (
	"fmt"
	"io"
)

// flushThreshold keeps the in-memory chunk below ten megabytes even for
// the widest full price lists.
const flushThreshold = 9_900_000

// chunkWriter accumulates emitter output and spills it to the underlying
// writer once the chunk grows past the threshold. The first write error
// is latched and later writes become no-ops.
type chunkWriter struct {
	out io.Writer
	buf []byte
	err error
}

func newChunkWriter(out io.Writer) *chunkWriter {
	return &chunkWriter{out: out, buf: make([]byte, 0, flushThreshold+4096)}
}

func (w *chunkWriter) WriteString(s string) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, s...)
	if len(w.buf) > flushThreshold {
		w.flush()
	}
}

func (w *chunkWriter) Printf(format string, args ...any) {
	w.WriteString(fmt.Sprintf(format, args...))
}

func (w *chunkWriter) flush() {
	if w.err != nil || len(w.buf) == 0 {
		return
	}
	_, w.err = w.out.Write(w.buf)
	w.buf = w.buf[:0]
}

// Close flushes the remainder and reports the latched error.
func (w *chunkWriter) Close() error {
	w.flush()
	return w.err
}
