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

package server

import (
	"net"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/brain-b2b/pricelistd/fastcgi"
)

// worker owns one FastCGI conversation at a time. The dispatcher claims
// it through the start flag before sending a connection to its mailbox.
type worker struct {
	start atomic.Bool
	jobs  chan net.Conn
}

func newWorker() *worker {
	return &worker{jobs: make(chan net.Conn)}
}

// run consumes the mailbox until it is closed during shutdown.
func (w *worker) run(s *Server) {
	defer s.wg.Done()
	for conn := range w.jobs {
		s.serve(conn)
		conn.Close()
		w.start.Store(false)
		s.inUse.Add(-1)
	}
}

// serve walks the record state machine for one connection and answers
// the completed request.
func (s *Server) serve(conn net.Conn) {
	requestID := uuid.NewString()
	framer := fastcgi.NewFramer(conn)
	request := fastcgi.NewRequest()
	for {
		if s.stop.Load() {
			return
		}
		rec, err := framer.ReadRecord()
		if err != nil {
			return
		}
		switch request.Feed(rec) {
		case fastcgi.Continue:
			continue
		case fastcgi.Abort:
			framer.WriteAbort(request.Begin)
			return
		case fastcgi.Drop:
			return
		case fastcgi.Run:
			s.logger.Info("request started", "request_id", requestID)
			answer := s.builder.Respond(request.Params)
			if s.stop.Load() {
				return
			}
			if err := framer.WriteResponse(request.Begin, answer); err != nil {
				s.logger.Warn("response write failed", "request_id", requestID, "err", err)
			}
			s.logger.Info("request finished", "request_id", requestID, "bytes", len(answer))
			return
		}
	}
}
