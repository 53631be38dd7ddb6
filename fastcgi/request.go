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

package fastcgi

// Request states, in protocol order.
const (
	StateNone = iota
	StateBegin
	StateParam
	StateParamEnd
	StateStdin
	StateWork
	StateEnd
)

// Feed outcomes.
const (
	// Continue: keep reading records.
	Continue = iota
	// Run: the request is complete, invoke the handler.
	Run
	// Abort: the peer aborted, acknowledge and drop the connection.
	Abort
	// Drop: illegal transition, drop the connection without a response.
	Drop
)

// Request accumulates one FastCGI request on a connection. Records feed the
// state machine None -> Begin -> Param* -> ParamEnd -> Stdin* -> Work -> End;
// anything out of order drops the connection.
type Request struct {
	State  int
	Begin  Header
	Params map[string]string
	Stdin  []byte
}

// NewRequest returns an empty request in StateNone.
func NewRequest() *Request {
	return &Request{Params: make(map[string]string, 128)}
}

// Feed advances the state machine with one decoded record.
func (r *Request) Feed(rec *Record) int {
	switch rec.Header.Type {
	case TypeBeginRequest:
		if r.State != StateNone {
			return Drop
		}
		r.Begin = rec.Header
		r.State = StateBegin
		return Continue
	case TypeAbortRequest:
		return Abort
	case TypeParams:
		if r.State != StateBegin && r.State != StateParam {
			return Drop
		}
		if rec.Empty {
			r.State = StateParamEnd
			return Continue
		}
		for key, value := range rec.Params {
			r.Params[key] = value
		}
		r.State = StateParam
		return Continue
	case TypeStdin:
		if r.State != StateBegin && r.State != StateParamEnd && r.State != StateStdin {
			return Drop
		}
		if rec.Empty {
			r.State = StateWork
			return Run
		}
		r.Stdin = append(r.Stdin, rec.Content...)
		r.State = StateStdin
		return Continue
	}
	// Unknown management records are ignored.
	return Continue
}
