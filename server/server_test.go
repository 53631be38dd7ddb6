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
	"encoding/binary"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/common/promslog"
	"github.com/smartystreets/goconvey/convey"

	"github.com/brain-b2b/pricelistd/config"
	"github.com/brain-b2b/pricelistd/errlog"
	"github.com/brain-b2b/pricelistd/fastcgi"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Salt:      "s3cr3t",
		Location:  time.UTC,
		Dir:       dir,
		MaxThread: 2,
	}
	if fault := cfg.EnsureCacheDir(); fault != nil {
		t.Fatal(fault)
	}
	logger := promslog.NewNopLogger()
	return New(cfg, errlog.New(dir, logger), logger)
}

func record(kind uint8, content []byte) []byte {
	head := make([]byte, 8)
	head[0] = 1
	head[1] = kind
	binary.BigEndian.PutUint16(head[2:4], 1)
	binary.BigEndian.PutUint16(head[4:6], uint16(len(content)))
	return append(head, content...)
}

func pair(name, value string) []byte {
	out := []byte{byte(len(name)), byte(len(value))}
	out = append(out, name...)
	return append(out, value...)
}

// readAnswer drains the Stdout stream and the EndRequest record.
func readAnswer(t *testing.T, conn net.Conn) (body []byte, appStatus uint32) {
	t.Helper()
	fr := fastcgi.NewFramer(conn)
	for {
		rec, err := fr.ReadRecord()
		if err != nil {
			t.Fatal(err)
		}
		switch rec.Header.Type {
		case fastcgi.TypeStdout:
			body = append(body, rec.Content...)
		case fastcgi.TypeEndRequest:
			return body, binary.BigEndian.Uint32(rec.Content[:4])
		default:
			t.Fatalf("unexpected record type %d", rec.Header.Type)
		}
	}
}

func TestServe(t *testing.T) {
	convey.Convey("a completed conversation gets the HTTP answer", t, func() {
		s := newTestServer(t)
		client, remote := net.Pipe()
		done := make(chan struct{})
		go func() {
			s.serve(remote)
			remote.Close()
			close(done)
		}()

		client.Write(record(fastcgi.TypeBeginRequest, make([]byte, 8)))
		client.Write(record(fastcgi.TypeParams, pair("QUERY_STRING", "format=doc")))
		client.Write(record(fastcgi.TypeParams, nil))
		client.Write(record(fastcgi.TypeStdin, nil))

		body, appStatus := readAnswer(t, client)
		<-done
		convey.So(appStatus, convey.ShouldEqual, 0)
		convey.So(string(body), convey.ShouldStartWith, "HTTP/1.1 401")
		convey.So(string(body), convey.ShouldContainSubstring, "Помилка 2")
	})

	convey.Convey("an abort is acknowledged with status one", t, func() {
		s := newTestServer(t)
		client, remote := net.Pipe()
		done := make(chan struct{})
		go func() {
			s.serve(remote)
			remote.Close()
			close(done)
		}()

		client.Write(record(fastcgi.TypeBeginRequest, make([]byte, 8)))
		client.Write(record(fastcgi.TypeAbortRequest, nil))

		body, appStatus := readAnswer(t, client)
		<-done
		convey.So(appStatus, convey.ShouldEqual, 1)
		convey.So(body, convey.ShouldBeEmpty)
	})

	convey.Convey("an out-of-order record drops the connection silently", t, func() {
		s := newTestServer(t)
		client, remote := net.Pipe()
		done := make(chan struct{})
		go func() {
			s.serve(remote)
			remote.Close()
			close(done)
		}()

		client.Write(record(fastcgi.TypeStdin, nil))
		<-done
		buf := make([]byte, 1)
		_, err := client.Read(buf)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestClaimWorker(t *testing.T) {
	convey.Convey("claiming walks the start flags in order", t, func() {
		s := newTestServer(t)
		s.workers = []*worker{newWorker(), newWorker()}

		first := s.claimWorker()
		convey.So(first, convey.ShouldEqual, s.workers[0])
		convey.So(first.start.Load(), convey.ShouldBeTrue)

		second := s.claimWorker()
		convey.So(second, convey.ShouldEqual, s.workers[1])

		convey.So(s.claimWorker(), convey.ShouldBeNil)

		first.start.Store(false)
		convey.So(s.claimWorker(), convey.ShouldEqual, s.workers[0])
	})
}

func TestControlLoop(t *testing.T) {
	convey.Convey("only the stop command is answered, with the PID", t, func() {
		s := newTestServer(t)
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		defer ln.Close()

		done := make(chan struct{})
		go func() {
			s.controlLoop(ln.(*net.TCPListener))
			close(done)
		}()

		// A stray payload is dropped without a reply.
		stray, err := net.Dial("tcp", ln.Addr().String())
		convey.So(err, convey.ShouldBeNil)
		stray.Write([]byte("status"))
		stray.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 64)
		_, err = stray.Read(buf)
		convey.So(err, convey.ShouldNotBeNil)
		stray.Close()

		conn, err := net.Dial("tcp", ln.Addr().String())
		convey.So(err, convey.ShouldBeNil)
		conn.Write([]byte("stop"))
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := conn.Read(buf)
		convey.So(err, convey.ShouldBeNil)
		pid, err := strconv.Atoi(string(buf[:n]))
		convey.So(err, convey.ShouldBeNil)
		convey.So(pid, convey.ShouldEqual, os.Getpid())
		conn.Close()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("control loop did not return after stop")
		}
	})
}

func TestAcceptLoop(t *testing.T) {
	convey.Convey("accepted connections land in the ring", t, func() {
		s := newTestServer(t)
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		defer ln.Close()

		var outer sync.WaitGroup
		outer.Add(1)
		go s.acceptLoop(ln.(*net.TCPListener), &outer)

		conn, err := net.Dial("tcp", ln.Addr().String())
		convey.So(err, convey.ShouldBeNil)
		defer conn.Close()

		deadline := time.Now().Add(2 * time.Second)
		for s.queue.Len() == 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		convey.So(s.queue.Len(), convey.ShouldEqual, 1)

		queued := s.queue.Take()
		convey.So(queued, convey.ShouldNotBeNil)
		queued.Close()

		s.stop.Store(true)
		outer.Wait()
	})
}

func TestDispatch(t *testing.T) {
	convey.Convey("queued connections are handed to idle workers", t, func() {
		s := newTestServer(t)
		s.workers = []*worker{newWorker()}

		var outer sync.WaitGroup
		outer.Add(1)
		go s.dispatch(&outer)

		client, remote := net.Pipe()
		defer client.Close()
		convey.So(s.queue.Push(remote), convey.ShouldBeNil)

		select {
		case got := <-s.workers[0].jobs:
			convey.So(got, convey.ShouldEqual, remote)
			convey.So(s.workers[0].start.Load(), convey.ShouldBeTrue)
			convey.So(s.inUse.Load(), convey.ShouldEqual, 1)
		case <-time.After(2 * time.Second):
			t.Fatal("dispatcher never delivered the connection")
		}

		s.stop.Store(true)
		outer.Wait()
	})
}
