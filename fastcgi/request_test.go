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

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func record(kind uint8, params map[string]string, content []byte, empty bool) *Record {
	return &Record{
		Header: Header{Version: protocolVersion, Type: kind, RequestID: 1},
		Params: params,
		Content: content,
		Empty:  empty,
	}
}

func TestRequestHappyPath(t *testing.T) {
	convey.Convey("Begin, params, empty stdin runs the handler", t, func() {
		r := NewRequest()
		convey.So(r.Feed(record(TypeBeginRequest, nil, nil, false)), convey.ShouldEqual, Continue)
		convey.So(r.State, convey.ShouldEqual, StateBegin)

		convey.So(r.Feed(record(TypeParams, map[string]string{"A": "1"}, nil, false)), convey.ShouldEqual, Continue)
		convey.So(r.Feed(record(TypeParams, map[string]string{"A": "2", "B": "3"}, nil, false)), convey.ShouldEqual, Continue)
		convey.So(r.Feed(record(TypeParams, nil, nil, true)), convey.ShouldEqual, Continue)
		convey.So(r.State, convey.ShouldEqual, StateParamEnd)

		convey.So(r.Feed(record(TypeStdin, nil, []byte("in"), false)), convey.ShouldEqual, Continue)
		convey.So(r.Feed(record(TypeStdin, nil, nil, true)), convey.ShouldEqual, Run)
		convey.So(r.State, convey.ShouldEqual, StateWork)

		convey.So(r.Params, convey.ShouldResemble, map[string]string{"A": "2", "B": "3"})
		convey.So(r.Stdin, convey.ShouldResemble, []byte("in"))
	})
}

func TestRequestIllegalTransitions(t *testing.T) {
	convey.Convey("Out-of-order records drop the connection", t, func() {
		r := NewRequest()
		convey.So(r.Feed(record(TypeParams, map[string]string{"A": "1"}, nil, false)), convey.ShouldEqual, Drop)

		r = NewRequest()
		convey.So(r.Feed(record(TypeBeginRequest, nil, nil, false)), convey.ShouldEqual, Continue)
		convey.So(r.Feed(record(TypeBeginRequest, nil, nil, false)), convey.ShouldEqual, Drop)

		r = NewRequest()
		convey.So(r.Feed(record(TypeBeginRequest, nil, nil, false)), convey.ShouldEqual, Continue)
		convey.So(r.Feed(record(TypeStdin, nil, []byte("x"), false)), convey.ShouldEqual, Continue)
		convey.So(r.Feed(record(TypeParams, map[string]string{"A": "1"}, nil, false)), convey.ShouldEqual, Drop)
	})
}

func TestRequestAbort(t *testing.T) {
	convey.Convey("AbortRequest aborts at any state", t, func() {
		r := NewRequest()
		convey.So(r.Feed(record(TypeBeginRequest, nil, nil, false)), convey.ShouldEqual, Continue)
		convey.So(r.Feed(record(TypeAbortRequest, nil, nil, false)), convey.ShouldEqual, Abort)
	})
}
