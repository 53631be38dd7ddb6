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
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const testSalt = "s3cr3t"

func signedQuery(extra string) string {
	token := signToken(100, 29, "json", "ua", "1700000000", testSalt)
	return fmt.Sprintf("format=json&full=1&companyID=100&targetID=29&lang=ua&time=1700000000&userID=7&token=%s%s", token, extra)
}

func TestParseParams(t *testing.T) {
	convey.Convey("a fully signed request parses", t, func() {
		prm, code := ParseParams(map[string]string{"QUERY_STRING": signedQuery("")}, testSalt)
		convey.So(code, convey.ShouldEqual, 0)
		convey.So(prm.Format, convey.ShouldEqual, FormatJSON)
		convey.So(prm.Volume, convey.ShouldEqual, VolumeFull)
		convey.So(prm.CompanyID, convey.ShouldEqual, 100)
		convey.So(prm.TargetID, convey.ShouldEqual, 29)
		convey.So(prm.UserID, convey.ShouldEqual, 7)
		convey.So(prm.Lang, convey.ShouldEqual, LangUA)
		convey.So(prm.PCVinga, convey.ShouldBeFalse)
		convey.So(prm.PCVingaStr, convey.ShouldEqual, "0")
		convey.So(prm.API, convey.ShouldBeFalse)
	})

	convey.Convey("optional flags", t, func() {
		prm, code := ParseParams(map[string]string{"QUERY_STRING": signedQuery("&cur=uah&nds=1&ean=1&pcvinga=1&api")}, testSalt)
		convey.So(code, convey.ShouldEqual, 0)
		convey.So(prm.UAH, convey.ShouldBeTrue)
		convey.So(prm.NDS, convey.ShouldBeTrue)
		convey.So(prm.Round, convey.ShouldBeTrue)
		convey.So(prm.EAN, convey.ShouldBeTrue)
		convey.So(prm.PCVinga, convey.ShouldBeTrue)
		convey.So(prm.PCVingaStr, convey.ShouldEqual, "1")
		convey.So(prm.API, convey.ShouldBeTrue)
	})

	convey.Convey("nds without uah stays off", t, func() {
		prm, code := ParseParams(map[string]string{"QUERY_STRING": signedQuery("&nds=1")}, testSalt)
		convey.So(code, convey.ShouldEqual, 0)
		convey.So(prm.NDS, convey.ShouldBeFalse)
		convey.So(prm.Round, convey.ShouldBeFalse)
	})

	convey.Convey("missing and malformed parameters report their codes", t, func() {
		cases := []struct {
			query string
			code  uint32
		}{
			{"", 1},
			{"format=doc", 2},
			{"format=json", 3},
			{"format=json&full=9", 4},
			{"format=json&full=1", 5},
			{"format=json&full=1&companyID=x", 6},
			{"format=json&full=1&companyID=1", 7},
			{"format=json&full=1&companyID=1&targetID=x", 8},
			{"format=json&full=1&companyID=1&targetID=1", 9},
			{"format=json&full=1&companyID=1&targetID=1&lang=en", 10},
			{"format=json&full=1&companyID=1&targetID=1&lang=ua", 11},
			{"format=json&full=1&companyID=1&targetID=1&lang=ua&time=x", 12},
			{"format=json&full=1&companyID=1&targetID=1&lang=ua&time=1", 13},
			{"format=json&full=1&companyID=1&targetID=1&lang=ua&time=1&userID=x", 14},
			{"format=json&full=1&companyID=1&targetID=1&lang=ua&time=1&userID=1", 15},
			{"format=json&full=1&companyID=1&targetID=1&lang=ua&time=1&userID=1&token=bad", 16},
		}
		for _, c := range cases {
			_, code := ParseParams(map[string]string{"QUERY_STRING": c.query}, testSalt)
			convey.So(code, convey.ShouldEqual, c.code)
		}
	})

	convey.Convey("the token is case sensitive", t, func() {
		token := signToken(100, 29, "json", "ua", "1700000000", testSalt)
		query := fmt.Sprintf("format=json&full=1&companyID=100&targetID=29&lang=ua&time=1700000000&userID=7&token=%s", "X"+token[1:])
		_, code := ParseParams(map[string]string{"QUERY_STRING": query}, testSalt)
		convey.So(code, convey.ShouldEqual, 16)
	})
}

func TestQueryValues(t *testing.T) {
	convey.Convey("splitting QUERY_STRING", t, func() {
		get := queryValues("a=1&b=%D1%83%D0%B0&c&a=2&broken=%zz")
		convey.So(get["a"], convey.ShouldEqual, "2")
		convey.So(get["b"], convey.ShouldEqual, "уа")
		convey.So(get["c"], convey.ShouldEqual, "")
		convey.So(get["broken"], convey.ShouldEqual, "")
	})

	convey.Convey("an empty query yields no values", t, func() {
		convey.So(queryValues(""), convey.ShouldBeEmpty)
	})
}
