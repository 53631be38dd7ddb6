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
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/promslog"
	"github.com/smartystreets/goconvey/convey"

	"github.com/brain-b2b/pricelistd/catalog"
	"github.com/brain-b2b/pricelistd/config"
	"github.com/brain-b2b/pricelistd/errlog"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(dir+"/cache", 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Salt: testSalt, Location: time.UTC, Dir: dir}
	logger := promslog.NewNopLogger()
	return NewBuilder(cfg, catalog.New(), errlog.New(dir, logger), logger, func() bool { return false })
}

func TestRespond(t *testing.T) {
	convey.Convey("a stopped server answers client error 24", t, func() {
		b := newTestBuilder(t)
		b.stopped = func() bool { return true }
		answer := string(b.Respond(map[string]string{}))
		convey.So(answer, convey.ShouldStartWith, "HTTP/1.1 401 Unauthorized\r\n")
		convey.So(answer, convey.ShouldContainSubstring, clientText(24))
	})

	convey.Convey("parameter faults render their catalog text", t, func() {
		b := newTestBuilder(t)
		answer := string(b.Respond(map[string]string{"QUERY_STRING": "format=doc"}))
		convey.So(answer, convey.ShouldContainSubstring, clientText(2))
	})

	convey.Convey("an unknown company is refused", t, func() {
		b := newTestBuilder(t)
		answer := string(b.Respond(map[string]string{"QUERY_STRING": signedQuery("")}))
		convey.So(answer, convey.ShouldContainSubstring, clientText(17))
	})
}

func TestPriceServesExistingArtifact(t *testing.T) {
	convey.Convey("a cached file short-circuits generation", t, func() {
		b := newTestBuilder(t)
		prm := testParams()
		path := artifactName(b.cfg.CacheDir(), prm, "20260825_103000")
		convey.So(os.WriteFile(path, []byte(`{"cached":1}`), 0o644), convey.ShouldBeNil)

		body, code := b.price(prm, path, false, false, false, 55)
		convey.So(code, convey.ShouldEqual, 0)
		convey.So(string(body), convey.ShouldEqual, `{"cached":1}`)
	})

	convey.Convey("without a cache hit an empty catalog reports the unknown target", t, func() {
		b := newTestBuilder(t)
		prm := testParams()
		path := artifactName(b.cfg.CacheDir(), prm, "20260825_103000")
		_, code := b.price(prm, path, false, false, false, 55)
		convey.So(code, convey.ShouldEqual, 25)
	})

	convey.Convey("targetID zero is refused before any lookup", t, func() {
		b := newTestBuilder(t)
		prm := testParams()
		prm.TargetID = 0
		_, code := b.price(prm, "missing", false, false, false, 55)
		convey.So(code, convey.ShouldEqual, 23)
	})
}

func TestResponses(t *testing.T) {
	convey.Convey("success headers match the emitted body", t, func() {
		answer := string(successResponse(FormatJSON, "price_1.json", []byte("{}")))
		convey.So(answer, convey.ShouldStartWith, "HTTP/1.1 200 OK\r\n")
		convey.So(answer, convey.ShouldContainSubstring, "Content-Type: application/json\r\n")
		convey.So(answer, convey.ShouldContainSubstring, "Content-Disposition: attachment; filename=\"price_1.json\"\r\n")
		convey.So(answer, convey.ShouldContainSubstring, "Content-Length: 2\r\n\r\n{}")
	})

	convey.Convey("every client error renders the page shell", t, func() {
		answer := string(errorResponse(16))
		convey.So(answer, convey.ShouldContainSubstring, "Content-Type: text/html; charset=utf-8\r\n")
		body := answer[strings.Index(answer, "\r\n\r\n")+4:]
		convey.So(body, convey.ShouldStartWith, "<!DOCTYPE HTML>")
		convey.So(body, convey.ShouldContainSubstring, "Помилка 16: Невірний token")
	})

	convey.Convey("unknown codes fall back to the generic text", t, func() {
		convey.So(clientText(99), convey.ShouldEqual, "Невідома помилка")
	})
}
