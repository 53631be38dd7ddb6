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
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/brain-b2b/pricelistd/config"
	"github.com/brain-b2b/pricelistd/errlog"
)

const (
	refreshInterval = 5 * time.Minute
	retryPause      = time.Second
)

// Loader refreshes the catalog from the two upstream stores. Each pass
// opens fresh connections, runs the sub-loads in a fixed order and sweeps
// rows the pass did not touch. A failed sub-load is retried until it
// succeeds or the loader is stopped.
type Loader struct {
	cfg    *config.Config
	cat    *Catalog
	errs   *errlog.Log
	logger *slog.Logger

	ready atomic.Bool
	stop  chan struct{}
	done  chan struct{}
}

func NewLoader(cfg *config.Config, cat *Catalog, errs *errlog.Log, logger *slog.Logger) *Loader {
	return &Loader{
		cfg:    cfg,
		cat:    cat,
		errs:   errs,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Ready reports whether the first full pass has completed.
func (l *Loader) Ready() bool {
	return l.ready.Load()
}

// Stop ends the refresh loop and waits for it to drain.
func (l *Loader) Stop() {
	close(l.stop)
	<-l.done
}

func (l *Loader) stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// pause sleeps for d and reports whether the loader was stopped meanwhile.
func (l *Loader) pause(d time.Duration) bool {
	select {
	case <-l.stop:
		return true
	case <-time.After(d):
		return false
	}
}

// Run is the refresh loop body, meant to be spawned on its own goroutine.
func (l *Loader) Run() {
	defer close(l.done)
	for {
		if l.stopped() {
			return
		}
		start := time.Now()
		if !l.refresh() {
			if l.pause(retryPause) {
				return
			}
			continue
		}
		l.ready.Store(true)
		for time.Since(start) < refreshInterval {
			if l.pause(time.Second) {
				return
			}
		}
	}
}

// refresh runs one full pass. It reports false when a store could not be
// opened or the loader was stopped mid-pass.
func (l *Loader) refresh() bool {
	dbB2B, ok := Open(l.cfg.DBB2B, l.errs)
	if !ok {
		return false
	}
	defer dbB2B.Close()
	dbLog, ok := Open(l.cfg.DBLog, l.errs)
	if !ok {
		return false
	}
	defer dbLog.Close()

	l.logger.Info("catalog refresh started")
	start := time.Now()
	subLoads := []struct {
		name string
		in   *Instance
		load func(*Instance) bool
	}{
		{"auth", dbB2B, l.loadAuth},
		{"currency", dbB2B, l.loadCurrency},
		{"countries", dbLog, l.loadCountries},
		{"targets", dbLog, l.loadTargets},
		{"locks", dbB2B, l.loadLocks},
		{"products", dbB2B, l.loadProducts},
		{"stock", dbLog, l.loadStock},
		{"bonus_groups", dbB2B, l.loadBonusGroups},
	}
	for _, s := range subLoads {
		for !s.load(s.in) {
			refreshErrors.WithLabelValues(s.name).Inc()
			if l.pause(retryPause) {
				return false
			}
		}
	}
	refreshDuration.Set(time.Since(start).Seconds())
	refreshTotal.Inc()
	l.logger.Info("catalog refresh finished", "duration", time.Since(start).String())
	return true
}

const authQuery = `
	SELECT
		u.companyID, u.userID, c.profilesID, IFNULL(c.corp, 0) corp,
		CASE WHEN CONCAT(';', c.ApiPermissions, ';') LIKE '%;38;%' THEN 1 ELSE 0 END rozn,
		CASE WHEN CONCAT(';', c.ApiPermissions, ';') LIKE '%;39;%' THEN 1 ELSE 0 END r3
	FROM users u INNER JOIN companies c ON c.companyID=u.companyID
	WHERE
		c.profilesID <> 0 AND c.status='registered'
		AND CONCAT(';', c.ApiPermissions, ';') LIKE '%;37;%'
		AND u.roleID > 0
	ORDER BY u.companyID, u.userID
`

func (l *Loader) loadAuth(in *Instance) bool {
	rows, ok := in.Query(authQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	l.cat.auth.bump()
	count := 0
	for rows.Next() {
		var companyID, userID, profilesID uint32
		var corp, rozn, r3 bool
		if err := rows.Scan(&companyID, &userID, &profilesID, &corp, &rozn, &r3); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.auth.update(companyID, userID, profilesID, corp, rozn, r3)
		count++
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	l.cat.auth.sweep()
	containerRows.WithLabelValues("auth").Set(float64(count))
	return true
}

const currencyQuery = `
	SELECT currency_value FROM SC_currency_types WHERE CID = 1
`

func (l *Loader) loadCurrency(in *Instance) bool {
	rows, ok := in.Query(currencyQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var kurs float64
		if err := rows.Scan(&kurs); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.setKurs(kurs)
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	return true
}

const countriesQuery = `
	SELECT countryID, name_ua, name_ru FROM delivery_country
`

func (l *Loader) loadCountries(in *Instance) bool {
	rows, ok := in.Query(countriesQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		var countryID uint32
		var ua, ru string
		if err := rows.Scan(&countryID, &ua, &ru); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.world.update(countryID, ua, ru)
		count++
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	containerRows.WithLabelValues("countries").Set(float64(count))
	return true
}

const targetsQuery = `
	SELECT
		t.targetid, t.regionstock, t.stockID, p.PostageCompactProduct, p.PostageBulkyGoodMid, p.PostageBulkyGood, p.PostageBulkyGoodVeryDimensional
	FROM
		delivery_targets t
	LEFT JOIN delivery_targets_postages p ON p.targetID=t.targetID
	WHERE
		p.client='brain_b2b'
`

func (l *Loader) loadTargets(in *Instance) bool {
	rows, ok := in.Query(targetsQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	l.cat.targets.bump()
	count := 0
	for rows.Next() {
		var targetID, stockID uint32
		var regionStock bool
		var compact, middle, big, large float64
		if err := rows.Scan(&targetID, &regionStock, &stockID, &compact, &middle, &big, &large); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.targets.update(targetID, regionStock, stockID, compact, middle, big, large)
		count++
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	l.cat.targets.sweep()
	containerRows.WithLabelValues("targets").Set(float64(count))
	return true
}

const locksQuery = `
	SELECT companyID, vendorID, ProductGroupID, classID, 0 FROM lockable_products
	UNION ALL
	SELECT companyID, 0, 0, 0, productID FROM lockable_products_detailed
`

func (l *Loader) loadLocks(in *Instance) bool {
	l.cat.locks.bump()
	rows, ok := in.Query(locksQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		var companyID, vendorID, groupID, classID, productID uint32
		if err := rows.Scan(&companyID, &vendorID, &groupID, &classID, &productID); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.locks.update(companyID, vendorID, groupID, classID, productID)
		count++
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	l.cat.locks.sweep()
	containerRows.WithLabelValues("locks").Set(float64(count))
	return true
}

const productNumericQuery = `
	SELECT
		p.productID AS ProductID, p.bonus_opt as BonusOpt, IFNULL(p.vendorID, 0) AS vendorID, IFNULL(p.ProductGroupID, 0) AS pgid,
		IFNULL(p.classID, 0), p.weight, p.volume, p.overall, IFNULL(p.categoryid, 0) AS CategoryID,
		p.warranty AS Warranty, p.DDP AS DDP, IFNULL(p.countryID, 0) as Country
	FROM
		SC_products p
	WHERE p.enabled=1 AND (p.statusnew=0 OR p.statusnew=4 OR p.statusnew IS NULL) AND p.isarchive=0 AND p.isdiler=1
`

const productLocalizedQuery = `
	SELECT
		p.productID AS ProductID, IFNULL(g.NameGroup, c.name_ua) AS GroupUa, IFNULL(g.NameGroupRus, c.name_ru) AS GroupRu,
		IFNULL(p.brief_description_ua, '') AS DescriptionUa, IFNULL(p.brief_description_ru, '') AS DescriptionRu,
		IFNULL(c.name_ua, '') AS CategoryNameUa, IFNULL(c.name_ru, '') AS CategoryNameRu,
		IFNULL(p.slug_ua, '') AS URLUa, IFNULL(p.slug, '') AS URLRu, IFNULL(l.name_ua, '') as ClassNameUa, IFNULL(l.name, '') as ClassNameRu
	FROM
		SC_products p
		LEFT JOIN SC_categories c ON p.categoryid=c.categoryid
		LEFT JOIN SC_classes l ON p.classID=l.classID
		LEFT JOIN ProductGroup g ON p.ProductGroupID=g.ProductGroupID
	WHERE p.enabled=1 AND (p.statusnew=0 OR p.statusnew=4 OR p.statusnew IS NULL) AND p.isarchive=0 AND p.isdiler=1
`

const productIdentifyingQuery = `
	SELECT
		p.productID AS ProductID, p.product_code AS Code, IFNULL(p.bg_code, '') as BG, IFNULL(p.EAN, '') AS EAN, IFNULL(p.sellerCode, '') AS sc,
		IFNULL(p.articul, '') AS Article, IFNULL(v.name, '') AS Vendor, IFNULL(p.model, '') AS Model,
		IFNULL(p.name_ua, '') AS NameUa, IFNULL(p.name_ru, '') AS NameRu, IFNULL(p.koduktved, '') AS UKTVED, IFNULL(p.is_exclusive, '0') AS Exclusive
	FROM
		SC_products p
		LEFT JOIN SC_vendors v ON v.vendorID = p.vendorID
	WHERE p.enabled=1 AND (p.statusnew=0 OR p.statusnew=4 OR p.statusnew IS NULL) AND p.isarchive=0 AND p.isdiler=1
`

func (l *Loader) loadProducts(in *Instance) bool {
	l.cat.products.bump()
	if !l.loadProductNumeric(in) {
		return false
	}
	if !l.loadProductLocalized(in) {
		return false
	}
	if !l.loadProductIdentifying(in) {
		return false
	}
	l.cat.products.sweep()
	l.cat.products.mtx.RLock()
	containerRows.WithLabelValues("products").Set(float64(len(l.cat.products.product)))
	l.cat.products.mtx.RUnlock()
	return true
}

func (l *Loader) loadProductNumeric(in *Instance) bool {
	rows, ok := in.Query(productNumericQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var productID, vendorID, groupID, classID, categoryID, countryID uint32
		var bonus, weight, volume float64
		var overall int32
		var warranty string
		var ddp bool
		if err := rows.Scan(&productID, &bonus, &vendorID, &groupID, &classID, &weight, &volume, &overall, &categoryID, &warranty, &ddp, &countryID); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.products.updateNumeric(productID, bonus, vendorID, groupID, classID, weight, volume, overall, categoryID, warranty, ddp, countryID)
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	return true
}

func (l *Loader) loadProductLocalized(in *Instance) bool {
	rows, ok := in.Query(productLocalizedQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var productID uint32
		var groupUA, groupRU, descUA, descRU, categoryUA, categoryRU, urlUA, urlRU, classUA, classRU string
		if err := rows.Scan(&productID, &groupUA, &groupRU, &descUA, &descRU, &categoryUA, &categoryRU, &urlUA, &urlRU, &classUA, &classRU); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.products.updateLocalized(productID, groupUA, groupRU, descUA, descRU, categoryUA, categoryRU, urlUA, urlRU, classUA, classRU)
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	return true
}

func (l *Loader) loadProductIdentifying(in *Instance) bool {
	rows, ok := in.Query(productIdentifyingQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var productID uint32
		var code, bg, ean, seller, article, vendor, model, ua, ru, uktved, exclusive string
		if err := rows.Scan(&productID, &code, &bg, &ean, &seller, &article, &vendor, &model, &ua, &ru, &uktved, &exclusive); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.products.updateIdentifying(productID, code, bg, ean, seller, article, vendor, model, ua, ru, uktved, exclusive)
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	return true
}

const stockAvailableQuery = `
	SELECT stockid, product_code, available
	FROM delivery_product_time
	WHERE available>0 AND receipt_time <> '0000-00-00 00:00:00' AND (receipt_time-CURRENT_TIMESTAMP) < 0
`

const stockDayQuery = `
	SELECT
		stockid, product_code,
	DATEDIFF(
		IF(
		receipt_time < CURRENT_TIMESTAMP,
		ADDTIME(CURRENT_TIMESTAMP,'00:30:00'),
		IF(
			ADDTIME(receipt_time,'00:30:00') < ADDTIME(CURRENT_TIMESTAMP,'00:30:00'),
			ADDTIME(receipt_time,'00:30:00'),
			receipt_time
		)
		),
		CURRENT_TIMESTAMP
	) + 1 AS DayDelivery
	FROM
		delivery_product_time WHERE receipt_time <> '0000-00-00 00:00:00'
`

func (l *Loader) loadStock(in *Instance) bool {
	l.cat.stock.bump()
	if !l.loadStockAvailable(in) {
		return false
	}
	if !l.loadStockDay(in) {
		return false
	}
	l.cat.stock.sweep()
	l.cat.stock.mtx.RLock()
	count := 0
	for _, ps := range l.cat.stock.stock {
		count += len(ps.product)
	}
	l.cat.stock.mtx.RUnlock()
	containerRows.WithLabelValues("stock").Set(float64(count))
	return true
}

func (l *Loader) loadStockAvailable(in *Instance) bool {
	rows, ok := in.Query(stockAvailableQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var stockID, available uint32
		var code string
		if err := rows.Scan(&stockID, &code, &available); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		productID, found := l.cat.productIDByCode(code)
		if !found {
			continue
		}
		l.cat.stock.updateAvailable(stockID, productID, available)
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	return true
}

func (l *Loader) loadStockDay(in *Instance) bool {
	rows, ok := in.Query(stockDayQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var stockID, day uint32
		var code string
		if err := rows.Scan(&stockID, &code, &day); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		productID, found := l.cat.productIDByCode(code)
		if !found {
			continue
		}
		l.cat.stock.updateDay(stockID, productID, day)
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	return true
}

const bonusGroupsQuery = `
	SELECT companyID, bg_code FROM companies_bonuses
`

func (l *Loader) loadBonusGroups(in *Instance) bool {
	rows, ok := in.Query(bonusGroupsQuery)
	if !ok {
		return false
	}
	defer rows.Close()
	l.cat.bg.bump()
	count := 0
	for rows.Next() {
		var companyID uint32
		var group string
		if err := rows.Scan(&companyID, &group); err != nil {
			in.errs.Write(602, err.Error())
			return false
		}
		l.cat.bg.update(companyID, group)
		count++
	}
	if err := rows.Err(); err != nil {
		in.errs.Write(602, err.Error())
		return false
	}
	l.cat.bg.sweep()
	containerRows.WithLabelValues("bonus_groups").Set(float64(count))
	return true
}
