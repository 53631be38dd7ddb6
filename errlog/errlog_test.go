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

package errlog

import (
	"os"
	"strings"
	"testing"

	"github.com/prometheus/common/promslog"
	"github.com/smartystreets/goconvey/convey"
)

func TestWriteAppendsRecord(t *testing.T) {
	convey.Convey("Write appends a timestamped record to error.log", t, func() {
		dir := t.TempDir()
		log := New(dir, promslog.NewNopLogger())
		log.Write(301, "")
		log.Write(602, "SELECT 1")

		raw, err := os.ReadFile(dir + "/error.log")
		convey.So(err, convey.ShouldBeNil)
		lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
		convey.So(lines, convey.ShouldHaveLength, 2)
		convey.So(lines[0], convey.ShouldContainSubstring, "Помилка 301: Сокет IRC занятий.")
		convey.So(lines[1], convey.ShouldContainSubstring, "Помилка 602: Помилка виконання запиту до бази даних. Опис: SELECT 1")
	})
}

func TestFatalExits(t *testing.T) {
	convey.Convey("Fatal writes the record and exits with code 1", t, func() {
		dir := t.TempDir()
		log := New(dir, promslog.NewNopLogger())
		var status = -1
		log.exit = func(code int) { status = code }
		log.Fatal(100, "init.config")
		convey.So(status, convey.ShouldEqual, 1)

		raw, err := os.ReadFile(dir + "/error.log")
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(raw), convey.ShouldContainSubstring, "Помилка 100: Відсутній файл конфігурації")
	})
}

func TestCatalog(t *testing.T) {
	convey.Convey("Unknown codes fall back, database codes are recoverable", t, func() {
		convey.So(Text(999), convey.ShouldEqual, "Невідома помилка")
		convey.So(Recoverable(600), convey.ShouldBeTrue)
		convey.So(Recoverable(503), convey.ShouldBeFalse)
	})
}
