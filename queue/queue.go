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

// Package queue holds accepted connections until a worker is free.
package queue

import (
	"net"
	"sync"
)

// DefaultCapacity bounds the number of parked connections.
const DefaultCapacity = 65536

// Queue is a fixed-capacity FIFO ring of connections. One producer (the
// acceptor) and one consumer (the dispatcher) share it; callers poll instead
// of blocking inside the queue.
type Queue struct {
	mtx   sync.Mutex
	max   int
	len   int
	first int
	last  int
	data  []net.Conn
}

// New creates an empty queue with the given capacity.
func New(max int) *Queue {
	return &Queue{
		max:  max,
		last: max - 1,
		data: make([]net.Conn, max),
	}
}

// Push appends conn to the tail. On overflow the connection is handed back
// to the caller unchanged.
func (q *Queue) Push(conn net.Conn) net.Conn {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if q.len == q.max {
		return conn
	}
	q.len++
	next := q.last + 1
	if next == q.max {
		next = 0
	}
	q.last = next
	q.data[next] = conn
	return nil
}

// Take removes and returns the head connection, or nil when empty.
func (q *Queue) Take() net.Conn {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if q.len == 0 {
		return nil
	}
	q.len--
	conn := q.data[q.first]
	q.data[q.first] = nil
	next := q.first + 1
	if next == q.max {
		next = 0
	}
	q.first = next
	return conn
}

// Len reports the number of parked connections.
func (q *Queue) Len() int {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return q.len
}
