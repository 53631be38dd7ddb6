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
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/smartystreets/goconvey/convey"
)

type mockQuerier struct {
	db *sql.DB
}

func (m mockQuerier) Query(text string) (*sql.Rows, bool) {
	rows, err := m.db.Query(text)
	return rows, err == nil
}

func newMockQuerier(t *testing.T) (mockQuerier, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return mockQuerier{db: db}, mock
}

func TestPricingSQL(t *testing.T) {
	convey.Convey("capabilities pick the retail and internet columns", t, func() {
		sql := pricingSQL(55, 100, true, true, []uint32{1, 2, 3})
		convey.So(sql, convey.ShouldContainSubstring, "p.RetailPrice AS RetailPrice, p.Price3 AS InternetPrice")
		convey.So(sql, convey.ShouldContainSubstring, "IF(ProfilesID = 55, fieldprice, null)")
		convey.So(sql, convey.ShouldContainSubstring, "cd.CompanyID=100")
		convey.So(sql, convey.ShouldContainSubstring, "WHERE p.productID IN (1,2,3)")
	})

	convey.Convey("without capabilities both collapse to zero", t, func() {
		sql := pricingSQL(55, 100, false, false, []uint32{9})
		convey.So(sql, convey.ShouldContainSubstring, "0 AS RetailPrice, 0 AS InternetPrice")
	})
}

func TestFillPrices(t *testing.T) {
	convey.Convey("rows merge into the items", t, func() {
		q, mock := newMockQuerier(t)
		items := map[uint32]*Item{
			1: {ID: 1},
			2: {ID: 2, Lock: true},
		}
		ids := []uint32{1, 2}
		rows := sqlmock.NewRows([]string{"productID", "PriceUSD", "Price_ind", "RecommendedPrice", "RetailPrice", "InternetPrice"}).
			AddRow(1, 10.0, 2, 12.5, 11.0, 10.5).
			AddRow(2, 20.0, 1, 22.0, 0.0, 0.0).
			AddRow(3, 30.0, 1, 33.0, 0.0, 0.0)
		mock.ExpectQuery(pricingSQL(55, 100, true, true, ids)).WillReturnRows(rows)

		ok := fillPrices(q, items, ids, 55, 100, true, true, 41.0, false)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(items[1].PriceUSD, convey.ShouldEqual, 10.0)
		convey.So(items[1].PriceUAH, convey.ShouldEqual, 410.0)
		convey.So(items[1].RetailPrice, convey.ShouldEqual, 11.0)
		convey.So(items[1].RecommendedPrice, convey.ShouldEqual, 12.5)

		// locked items keep zero prices but get the recommended one
		convey.So(items[2].PriceUSD, convey.ShouldEqual, 0.0)
		convey.So(items[2].PriceUAH, convey.ShouldEqual, 0.0)
		convey.So(items[2].RecommendedPrice, convey.ShouldEqual, 22.0)
		convey.So(mock.ExpectationsWereMet(), convey.ShouldBeNil)
	})

	convey.Convey("rounding applies to both currencies", t, func() {
		q, mock := newMockQuerier(t)
		items := map[uint32]*Item{1: {ID: 1}}
		ids := []uint32{1}
		rows := sqlmock.NewRows([]string{"productID", "PriceUSD", "Price_ind", "RecommendedPrice", "RetailPrice", "InternetPrice"}).
			AddRow(1, 1.27, 0, 0.0, 0.0, 0.0)
		mock.ExpectQuery(pricingSQL(55, 100, false, false, ids)).WillReturnRows(rows)

		ok := fillPrices(q, items, ids, 55, 100, false, false, 10.0, true)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(items[1].PriceUSD, convey.ShouldEqual, 1.26)
		convey.So(items[1].PriceUAH, convey.ShouldEqual, 12.66)
	})

	convey.Convey("a failed query reports false", t, func() {
		q, mock := newMockQuerier(t)
		ids := []uint32{1}
		mock.ExpectQuery(pricingSQL(55, 100, false, false, ids)).WillReturnError(sql.ErrConnDone)
		ok := fillPrices(q, map[uint32]*Item{1: {ID: 1}}, ids, 55, 100, false, false, 1.0, false)
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestFetchCategories(t *testing.T) {
	convey.Convey("the localized tree is rendered from parent links", t, func() {
		q, mock := newMockQuerier(t)
		rows := sqlmock.NewRows([]string{"id", "name", "parent"}).
			AddRow(2, "Кабелі", 1).
			AddRow(3, "HDMI", 2).
			AddRow(5, "Аудіо", 1)
		mock.ExpectQuery("SELECT categoryid as id, name_ua as name, parent FROM SC_categories where disabled=0 ORDER BY sort_order").
			WillReturnRows(rows)

		out, ok := fetchCategories(q, LangUA)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(out, convey.ShouldEqual,
			`<categories><category id="2" name="Кабелі"><subcategory id="3" name="HDMI"/></category><category id="5" name="Аудіо"/></categories>`)
	})

	convey.Convey("the Russian names come from their own column", t, func() {
		q, mock := newMockQuerier(t)
		rows := sqlmock.NewRows([]string{"id", "name", "parent"}).AddRow(2, "Кабели", 1)
		mock.ExpectQuery("SELECT categoryid as id, name_ru as name, parent FROM SC_categories where disabled=0 ORDER BY sort_order").
			WillReturnRows(rows)
		out, ok := fetchCategories(q, LangRU)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(out, convey.ShouldContainSubstring, `name="Кабели"`)
	})
}
