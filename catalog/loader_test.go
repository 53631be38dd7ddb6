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

package catalog

import (
	"errors"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/common/promslog"
	"github.com/smartystreets/goconvey/convey"

	"github.com/brain-b2b/pricelistd/errlog"
)

func newTestLoader(t *testing.T) (*Loader, *Instance, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	errs := errlog.New(t.TempDir(), promslog.NewNopLogger())
	l := NewLoader(nil, New(), errs, promslog.NewNopLogger())
	return l, &Instance{db: db, errs: errs}, mock
}

func TestLoadAuth(t *testing.T) {
	convey.Convey("loadAuth fills the account container", t, func() {
		l, in, mock := newTestLoader(t)
		rows := sqlmock.NewRows([]string{"companyID", "userID", "profilesID", "corp", "rozn", "r3"}).
			AddRow(100, 1, 55, 1, 1, 0).
			AddRow(100, 2, 55, 1, 0, 1)
		mock.ExpectQuery(authQuery).WillReturnRows(rows)

		convey.So(l.loadAuth(in), convey.ShouldBeTrue)
		u, companyOK, userOK := l.cat.UserInfo(100, 2)
		convey.So(companyOK, convey.ShouldBeTrue)
		convey.So(userOK, convey.ShouldBeTrue)
		convey.So(u.R3, convey.ShouldBeTrue)
		convey.So(mock.ExpectationsWereMet(), convey.ShouldBeNil)
	})

	convey.Convey("a failed query reports false and logs the fault", t, func() {
		l, in, mock := newTestLoader(t)
		mock.ExpectQuery(authQuery).WillReturnError(errors.New("server gone"))
		convey.So(l.loadAuth(in), convey.ShouldBeFalse)

		raw, err := os.ReadFile(l.errs.Path())
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(raw), convey.ShouldContainSubstring, "Помилка 602")
		convey.So(string(raw), convey.ShouldContainSubstring, "server gone")
	})
}

func TestLoadCurrency(t *testing.T) {
	convey.Convey("loadCurrency stores the last returned rate", t, func() {
		l, in, mock := newTestLoader(t)
		rows := sqlmock.NewRows([]string{"currency_value"}).AddRow(41.25)
		mock.ExpectQuery(currencyQuery).WillReturnRows(rows)

		convey.So(l.loadCurrency(in), convey.ShouldBeTrue)
		convey.So(l.cat.Kurs(), convey.ShouldEqual, 41.25)
	})
}

func TestLoadProducts(t *testing.T) {
	convey.Convey("loadProducts merges the three projections and sweeps partial rows", t, func() {
		l, in, mock := newTestLoader(t)

		numeric := sqlmock.NewRows([]string{"ProductID", "BonusOpt", "vendorID", "pgid", "classID", "weight", "volume", "overall", "CategoryID", "Warranty", "DDP", "Country"}).
			AddRow(1, 2.5, 10, 20, 30, 1.2, 0.004, 0, 1053, "24", 1, 804).
			AddRow(2, 0.0, 11, 21, 31, 9.0, 0.2, 3, 1060, "12", 0, 804)
		localized := sqlmock.NewRows([]string{"ProductID", "GroupUa", "GroupRu", "DescriptionUa", "DescriptionRu", "CategoryNameUa", "CategoryNameRu", "URLUa", "URLRu", "ClassNameUa", "ClassNameRu"}).
			AddRow(1, "Кабелі", "Кабели", "опис", "описание", "Кабелі HDMI", "Кабели HDMI", "kabel-1", "kabel-1-ru", "Кабель", "Кабель")
		identifying := sqlmock.NewRows([]string{"ProductID", "Code", "BG", "EAN", "sc", "Article", "Vendor", "Model", "NameUa", "NameRu", "UKTVED", "Exclusive"}).
			AddRow(1, "A100", "BG1", "4820000000000", "", "ART-1", "Vinga", "M-1", "Кабель HDMI", "Кабель HDMI", "8544429090", "0")

		mock.ExpectQuery(productNumericQuery).WillReturnRows(numeric)
		mock.ExpectQuery(productLocalizedQuery).WillReturnRows(localized)
		mock.ExpectQuery(productIdentifyingQuery).WillReturnRows(identifying)

		convey.So(l.loadProducts(in), convey.ShouldBeTrue)
		p, ok := l.cat.Product(1)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(p.Code, convey.ShouldEqual, "A100")
		convey.So(p.Vendor, convey.ShouldEqual, "Vinga")
		convey.So(p.Bonus, convey.ShouldEqual, 2.5)
		convey.So(p.CategoryID, convey.ShouldEqual, 1053)
		convey.So(p.GroupUA, convey.ShouldEqual, "Кабелі")

		// product 2 only appeared in the numeric projection
		_, ok = l.cat.Product(2)
		convey.So(ok, convey.ShouldBeFalse)
		convey.So(mock.ExpectationsWereMet(), convey.ShouldBeNil)
	})
}

func TestLoadStock(t *testing.T) {
	convey.Convey("loadStock resolves product codes and records both counters", t, func() {
		l, in, mock := newTestLoader(t)
		l.cat.products.bump()
		l.cat.products.updateIdentifying(1, "A100", "", "", "", "", "", "", "", "", "", "0")

		available := sqlmock.NewRows([]string{"stockid", "product_code", "available"}).
			AddRow(5, "A100", 7).
			AddRow(5, "UNKNOWN", 3)
		day := sqlmock.NewRows([]string{"stockid", "product_code", "DayDelivery"}).
			AddRow(5, "A100", 2)
		mock.ExpectQuery(stockAvailableQuery).WillReturnRows(available)
		mock.ExpectQuery(stockDayQuery).WillReturnRows(day)

		convey.So(l.loadStock(in), convey.ShouldBeTrue)
		availableCount, dayCount, ok := l.cat.StockLevel(5, 1)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(availableCount, convey.ShouldEqual, 7)
		convey.So(dayCount, convey.ShouldEqual, 2)
		convey.So(mock.ExpectationsWereMet(), convey.ShouldBeNil)
	})
}

func TestLoadTargetsAndBonusGroups(t *testing.T) {
	convey.Convey("loadTargets and loadBonusGroups fill their containers", t, func() {
		l, in, mock := newTestLoader(t)
		targets := sqlmock.NewRows([]string{"targetid", "regionstock", "stockID", "PostageCompactProduct", "PostageBulkyGoodMid", "PostageBulkyGood", "PostageBulkyGoodVeryDimensional"}).
			AddRow(29, 1, 5, 40.0, 80.0, 120.0, 200.0)
		bg := sqlmock.NewRows([]string{"companyID", "bg_code"}).
			AddRow(100, "BG1").
			AddRow(100, "BG2")
		mock.ExpectQuery(targetsQuery).WillReturnRows(targets)
		mock.ExpectQuery(bonusGroupsQuery).WillReturnRows(bg)

		convey.So(l.loadTargets(in), convey.ShouldBeTrue)
		tg, ok := l.cat.Target(29)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(tg.RegionStock, convey.ShouldBeTrue)
		convey.So(tg.PostageCompact, convey.ShouldEqual, 40.0)

		convey.So(l.loadBonusGroups(in), convey.ShouldBeTrue)
		convey.So(l.cat.BonusGroups(100), convey.ShouldHaveLength, 2)
	})
}
