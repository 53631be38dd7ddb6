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

// Package server runs the long-lived daemon: the catalog refresh loop,
// the FastCGI accept queue with its worker pool, and the loopback
// control socket that answers the stop command with the process PID.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brain-b2b/pricelistd/catalog"
	"github.com/brain-b2b/pricelistd/config"
	"github.com/brain-b2b/pricelistd/errlog"
	"github.com/brain-b2b/pricelistd/pricelist"
	"github.com/brain-b2b/pricelistd/queue"
)

// queueSize bounds the pending-connection ring. Connections past this
// point wait in the acceptor until a slot frees up.
const queueSize = 65536

// pollInterval paces the dispatcher and the acceptor retry loop.
const pollInterval = time.Millisecond

// Server wires the accept queue, the worker pool and the control socket
// around one shared catalog.
type Server struct {
	cfg     *config.Config
	cat     *catalog.Catalog
	errs    *errlog.Log
	logger  *slog.Logger
	builder *pricelist.Builder
	loader  *catalog.Loader
	queue   *queue.Queue
	workers []*worker

	stop  atomic.Bool
	inUse atomic.Int32
	wg    sync.WaitGroup
}

// New assembles a server around an empty catalog. Nothing is bound or
// started until Run.
func New(cfg *config.Config, errs *errlog.Log, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		cat:    catalog.New(),
		errs:   errs,
		logger: logger,
		queue:  queue.New(queueSize),
	}
	s.builder = pricelist.NewBuilder(cfg, s.cat, errs, logger, s.stop.Load)
	return s
}

// Run blocks until a stop command arrives on the control socket. Bind
// and invariant failures terminate the process through the fault log.
func (s *Server) Run() {
	control := s.listen(s.cfg.IRC, 300)
	defer control.Close()

	s.loader = catalog.NewLoader(s.cfg, s.cat, s.errs, s.logger)
	go s.loader.Run()
	for !s.loader.Ready() {
		time.Sleep(time.Second)
	}
	s.logger.Info("catalog ready", "products", len(s.cat.ProductIDs()))

	s.workers = make([]*worker, s.cfg.MaxThread)
	for i := range s.workers {
		s.workers[i] = newWorker()
		s.wg.Add(1)
		go s.workers[i].run(s)
	}

	service := s.listen(s.cfg.Port, 400)
	var outer sync.WaitGroup
	outer.Add(2)
	go s.acceptLoop(service, &outer)
	go s.dispatch(&outer)
	s.logger.Info("server started", "port", s.cfg.Port, "irc", s.cfg.IRC, "workers", s.cfg.MaxThread)

	s.controlLoop(control)

	// Stop sequence: flag first, then drain the accept and dispatch
	// loops, then close the worker mailboxes and wait them out.
	s.stop.Store(true)
	s.loader.Stop()
	service.Close()
	outer.Wait()
	for _, w := range s.workers {
		close(w.jobs)
	}
	s.wg.Wait()
	s.logger.Info("server stopped")
}

// listen binds a loopback TCP port, mapping the failure onto the fault
// catalog block starting at base.
func (s *Server) listen(port uint16, base uint32) *net.TCPListener {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		switch {
		case errors.Is(err, syscall.EACCES):
			s.errs.Fatal(base, "")
		case errors.Is(err, syscall.EADDRINUSE):
			s.errs.Fatal(base+1, "")
		case errors.Is(err, syscall.EADDRNOTAVAIL):
			s.errs.Fatal(base+2, "")
		default:
			s.errs.Fatal(base+3, err.Error())
		}
		return nil
	}
	return ln.(*net.TCPListener)
}

// controlLoop answers the loopback management socket. Only the exact
// payload "stop" is honored; it returns so Run can unwind, and the
// caller gets the PID as the acknowledgement.
func (s *Server) controlLoop(ln *net.TCPListener) {
	buf := make([]byte, 1024)
	for {
		if err := ln.SetDeadline(time.Now().Add(time.Second)); err != nil {
			s.errs.Fatal(304, err.Error())
		}
		conn, err := ln.Accept()
		if err != nil {
			continue
		}
		conn.SetReadDeadline(time.Now().Add(time.Second))
		n, err := conn.Read(buf)
		if err != nil || n == 0 || n == len(buf) {
			conn.Close()
			continue
		}
		if string(buf[:n]) != "stop" {
			conn.Close()
			continue
		}
		s.logger.Info("stop command received")
		conn.Write([]byte(strconv.Itoa(os.Getpid())))
		conn.Close()
		return
	}
}

// acceptLoop feeds inbound FastCGI connections into the ring. When the
// ring is full the connection is retried until a slot opens or the
// server stops.
func (s *Server) acceptLoop(ln *net.TCPListener, outer *sync.WaitGroup) {
	defer outer.Done()
	for {
		if s.stop.Load() {
			return
		}
		if err := ln.SetDeadline(time.Now().Add(time.Second)); err != nil {
			s.errs.Fatal(404, err.Error())
		}
		conn, err := ln.Accept()
		if err != nil {
			continue
		}
		connectionsTotal.Inc()
		for {
			if s.stop.Load() {
				conn.Close()
				return
			}
			if s.queue.Push(conn) == nil {
				break
			}
			time.Sleep(pollInterval)
		}
	}
}

// dispatch drains the ring into free workers, holding each connection
// until the pool has capacity.
func (s *Server) dispatch(outer *sync.WaitGroup) {
	defer outer.Done()
	for {
		if s.stop.Load() {
			return
		}
		queueDepth.Set(float64(s.queue.Len()))
		workersBusy.Set(float64(s.inUse.Load()))
		conn := s.queue.Take()
		if conn == nil {
			time.Sleep(pollInterval)
			continue
		}
		for {
			if s.stop.Load() {
				conn.Close()
				return
			}
			if int(s.inUse.Load()) < len(s.workers) {
				break
			}
			time.Sleep(pollInterval)
		}
		s.inUse.Add(1)
		w := s.claimWorker()
		if w == nil {
			s.errs.Fatal(501, "")
			return
		}
		w.jobs <- conn
	}
}

// claimWorker marks the first idle worker as started. A nil result
// means the pool accounting disagrees with the start flags.
func (s *Server) claimWorker() *worker {
	for _, w := range s.workers {
		if w.start.CompareAndSwap(false, true) {
			return w
		}
	}
	return nil
}
