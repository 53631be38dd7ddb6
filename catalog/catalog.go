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

// Package catalog keeps the in-memory merchant catalog: authorized users,
// the currency rate, delivery countries and targets, per-company locks,
// products, warehouse stock and bonus groups. Containers are refreshed in
// place by the loader; rows are stamped with a pass version and stale rows
// are swept after each pass.
package catalog

import (
	"fmt"
	"sort"
	"sync"
)

const (
	companyCap      = 32768
	userCap         = 64
	countryCap      = 128
	targetCap       = 512
	lockListCap     = 8192
	lockItemCap     = 512
	productCap      = 1048576
	bonusCompanyCap = 4096
	bonusGroupCap   = 256
	stockCap        = 64
)

// Catalog aggregates all containers behind per-container locks.
type Catalog struct {
	auth     auth
	world    world
	targets  targets
	locks    locks
	products products
	stock    store
	bg       bonus

	kursMtx sync.RWMutex
	kurs    float64
}

func New() *Catalog {
	return &Catalog{
		auth:     auth{companies: make(map[uint32]*company, companyCap)},
		world:    world{countries: make(map[uint32]Country, countryCap)},
		targets:  targets{target: make(map[uint32]*Target, targetCap)},
		locks:    locks{lock: make(map[uint32]*lockList, lockListCap)},
		products: products{product: make(map[uint32]*Product, productCap), code: make(map[string]uint32, productCap)},
		stock:    store{stock: make(map[uint32]*productStock, stockCap)},
		bg:       bonus{groups: make(map[uint32]*bonusGroup, bonusCompanyCap)},
	}
}

// User is one authorized portal account.
type User struct {
	version    uint32
	ProfilesID uint32
	Corp       bool
	Rozn       bool
	R3         bool
}

type company struct {
	version uint32
	users   map[uint32]*User
}

type auth struct {
	mtx       sync.RWMutex
	version   uint32
	companies map[uint32]*company
}

func (a *auth) bump() {
	a.mtx.Lock()
	a.version++
	a.mtx.Unlock()
}

func (a *auth) update(companyID, userID, profilesID uint32, corp, rozn, r3 bool) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	c, ok := a.companies[companyID]
	if !ok {
		c = &company{users: make(map[uint32]*User, userCap)}
		a.companies[companyID] = c
	}
	c.version = a.version
	u, ok := c.users[userID]
	if !ok {
		u = &User{}
		c.users[userID] = u
	}
	u.version = a.version
	u.ProfilesID = profilesID
	u.Corp = corp
	u.Rozn = rozn
	u.R3 = r3
}

func (a *auth) sweep() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	for id, c := range a.companies {
		if c.version != a.version {
			delete(a.companies, id)
			continue
		}
		for uid, u := range c.users {
			if u.version != a.version {
				delete(c.users, uid)
			}
		}
	}
}

// UserInfo reports the account together with whether the company and the
// user were found at all.
func (c *Catalog) UserInfo(companyID, userID uint32) (User, bool, bool) {
	c.auth.mtx.RLock()
	defer c.auth.mtx.RUnlock()
	comp, ok := c.auth.companies[companyID]
	if !ok {
		return User{}, false, false
	}
	u, ok := comp.users[userID]
	if !ok {
		return User{}, true, false
	}
	return *u, true, true
}

// Kurs is the current UAH per USD rate.
func (c *Catalog) Kurs() float64 {
	c.kursMtx.RLock()
	defer c.kursMtx.RUnlock()
	return c.kurs
}

func (c *Catalog) setKurs(k float64) {
	c.kursMtx.Lock()
	c.kurs = k
	c.kursMtx.Unlock()
}

// Country is a product origin, localized.
type Country struct {
	UA string
	RU string
}

// world is replaced in place, it carries no version stamps.
type world struct {
	mtx       sync.RWMutex
	countries map[uint32]Country
}

func (w *world) update(countryID uint32, ua, ru string) {
	w.mtx.Lock()
	w.countries[countryID] = Country{UA: ua, RU: ru}
	w.mtx.Unlock()
}

func (c *Catalog) Country(countryID uint32) (Country, bool) {
	c.world.mtx.RLock()
	defer c.world.mtx.RUnlock()
	country, ok := c.world.countries[countryID]
	return country, ok
}

// Target is one delivery destination with its postage rates per size class.
type Target struct {
	version        uint32
	RegionStock    bool
	StockID        uint32
	PostageCompact float64
	PostageMiddle  float64
	PostageBig     float64
	PostageLarge   float64
}

type targets struct {
	mtx     sync.RWMutex
	version uint32
	target  map[uint32]*Target
}

func (t *targets) bump() {
	t.mtx.Lock()
	t.version++
	t.mtx.Unlock()
}

func (t *targets) update(targetID uint32, regionStock bool, stockID uint32, compact, middle, big, large float64) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	tg, ok := t.target[targetID]
	if !ok {
		tg = &Target{}
		t.target[targetID] = tg
	}
	tg.version = t.version
	tg.RegionStock = regionStock
	tg.StockID = stockID
	tg.PostageCompact = compact
	tg.PostageMiddle = middle
	tg.PostageBig = big
	tg.PostageLarge = large
}

func (t *targets) sweep() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	for id, tg := range t.target {
		if tg.version != t.version {
			delete(t.target, id)
		}
	}
}

func (c *Catalog) Target(targetID uint32) (Target, bool) {
	c.targets.mtx.RLock()
	defer c.targets.mtx.RUnlock()
	tg, ok := c.targets.target[targetID]
	if !ok {
		return Target{}, false
	}
	return *tg, true
}

type lock struct {
	version uint32
}

type lockList struct {
	version uint32
	list    map[string]*lock
}

type locks struct {
	mtx     sync.RWMutex
	version uint32
	lock    map[uint32]*lockList
}

func (l *locks) bump() {
	l.mtx.Lock()
	l.version++
	l.mtx.Unlock()
}

func lockKey(vendorID, groupID, classID, productID uint32) string {
	return fmt.Sprintf("%d:%d:%d:%d", vendorID, groupID, classID, productID)
}

func (l *locks) update(companyID, vendorID, groupID, classID, productID uint32) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	ll, ok := l.lock[companyID]
	if !ok {
		ll = &lockList{list: make(map[string]*lock, lockItemCap)}
		l.lock[companyID] = ll
	}
	ll.version = l.version
	key := lockKey(vendorID, groupID, classID, productID)
	item, ok := ll.list[key]
	if !ok {
		item = &lock{}
		ll.list[key] = item
	}
	item.version = l.version
}

func (l *locks) sweep() {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	for id, ll := range l.lock {
		if ll.version != l.version {
			delete(l.lock, id)
			continue
		}
		for key, item := range ll.list {
			if item.version != ll.version {
				delete(ll.list, key)
			}
		}
	}
}

// Locked reports whether the product is blocked for the company, either
// directly or through its vendor, group or class, in any combination.
func (c *Catalog) Locked(companyID, vendorID, groupID, classID, productID uint32) bool {
	c.locks.mtx.RLock()
	defer c.locks.mtx.RUnlock()
	ll, ok := c.locks.lock[companyID]
	if !ok {
		return false
	}
	probes := [8]string{
		lockKey(0, 0, 0, productID),
		lockKey(vendorID, 0, 0, 0),
		lockKey(0, groupID, 0, 0),
		lockKey(0, 0, classID, 0),
		lockKey(vendorID, groupID, 0, 0),
		lockKey(vendorID, 0, classID, 0),
		lockKey(0, groupID, classID, 0),
		lockKey(vendorID, groupID, classID, 0),
	}
	for _, key := range probes {
		if _, ok := ll.list[key]; ok {
			return true
		}
	}
	return false
}

// Product carries the three projections loaded from the catalog store. A
// product is only retained when all three stamps match the pass version.
type Product struct {
	version1 uint32
	version2 uint32
	version3 uint32

	Code       string
	UA         string
	RU         string
	GroupUA    string
	GroupRU    string
	DescUA     string
	DescRU     string
	CategoryUA string
	CategoryRU string
	URLUA      string
	URLRU      string
	ClassUA    string
	ClassRU    string
	BG         string
	EAN        string
	Seller     string
	Article    string
	Vendor     string
	Model      string
	UKTVED     string
	Exclusive  string
	Warranty   string
	Bonus      float64
	VendorID   uint32
	GroupID    uint32
	ClassID    uint32
	Weight     float64
	Volume     float64
	Overall    int32
	CategoryID uint32
	DDP        bool
	CountryID  uint32
}

type products struct {
	mtx     sync.RWMutex
	version uint32
	product map[uint32]*Product
	code    map[string]uint32
}

func (p *products) bump() {
	p.mtx.Lock()
	p.version++
	p.mtx.Unlock()
}

func (p *products) get(productID uint32) (*Product, bool) {
	pr, ok := p.product[productID]
	if !ok {
		pr = &Product{}
		p.product[productID] = pr
	}
	return pr, ok
}

func (p *products) updateNumeric(productID uint32, bonus float64, vendorID, groupID, classID uint32, weight, volume float64, overall int32, categoryID uint32, warranty string, ddp bool, countryID uint32) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	pr, _ := p.get(productID)
	pr.version1 = p.version
	pr.Bonus = bonus
	pr.VendorID = vendorID
	pr.GroupID = groupID
	pr.ClassID = classID
	pr.Weight = weight
	pr.Volume = volume
	pr.Overall = overall
	pr.CategoryID = categoryID
	pr.Warranty = warranty
	pr.DDP = ddp
	pr.CountryID = countryID
}

func (p *products) updateLocalized(productID uint32, groupUA, groupRU, descUA, descRU, categoryUA, categoryRU, urlUA, urlRU, classUA, classRU string) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	pr, _ := p.get(productID)
	pr.version2 = p.version
	pr.GroupUA = groupUA
	pr.GroupRU = groupRU
	pr.DescUA = descUA
	pr.DescRU = descRU
	pr.CategoryUA = categoryUA
	pr.CategoryRU = categoryRU
	pr.URLUA = urlUA
	pr.URLRU = urlRU
	pr.ClassUA = classUA
	pr.ClassRU = classRU
}

func (p *products) updateIdentifying(productID uint32, code, bg, ean, seller, article, vendor, model, ua, ru, uktved, exclusive string) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if _, ok := p.code[code]; !ok {
		p.code[code] = productID
	}
	pr, _ := p.get(productID)
	pr.version3 = p.version
	pr.Code = code
	pr.BG = bg
	pr.EAN = ean
	pr.Seller = seller
	pr.Article = article
	pr.Vendor = vendor
	pr.Model = model
	pr.UA = ua
	pr.RU = ru
	pr.UKTVED = uktved
	pr.Exclusive = exclusive
}

func (p *products) sweep() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for id, pr := range p.product {
		if pr.version1 != p.version || pr.version2 != p.version || pr.version3 != p.version {
			delete(p.product, id)
		}
	}
	for code, id := range p.code {
		if _, ok := p.product[id]; !ok {
			delete(p.code, code)
		}
	}
}

// ProductIDs returns the retained product ids in ascending order.
func (c *Catalog) ProductIDs() []uint32 {
	c.products.mtx.RLock()
	ids := make([]uint32, 0, len(c.products.product))
	for id := range c.products.product {
		ids = append(ids, id)
	}
	c.products.mtx.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Catalog) Product(productID uint32) (Product, bool) {
	c.products.mtx.RLock()
	defer c.products.mtx.RUnlock()
	pr, ok := c.products.product[productID]
	if !ok {
		return Product{}, false
	}
	return *pr, true
}

func (c *Catalog) productIDByCode(code string) (uint32, bool) {
	c.products.mtx.RLock()
	defer c.products.mtx.RUnlock()
	id, ok := c.products.code[code]
	return id, ok
}

type stockEntry struct {
	version   uint32
	available uint32
	day       uint32
}

type productStock struct {
	version uint32
	product map[uint32]*stockEntry
}

type store struct {
	mtx     sync.RWMutex
	version uint32
	stock   map[uint32]*productStock
}

func (s *store) bump() {
	s.mtx.Lock()
	s.version++
	s.mtx.Unlock()
}

func (s *store) entry(stockID, productID uint32) *stockEntry {
	ps, ok := s.stock[stockID]
	if !ok {
		ps = &productStock{product: make(map[uint32]*stockEntry, productCap/stockCap)}
		s.stock[stockID] = ps
	}
	ps.version = s.version
	e, ok := ps.product[productID]
	if !ok {
		e = &stockEntry{}
		ps.product[productID] = e
	}
	e.version = s.version
	return e
}

func (s *store) updateAvailable(stockID, productID, available uint32) {
	s.mtx.Lock()
	s.entry(stockID, productID).available = available
	s.mtx.Unlock()
}

func (s *store) updateDay(stockID, productID, day uint32) {
	s.mtx.Lock()
	s.entry(stockID, productID).day = day
	s.mtx.Unlock()
}

func (s *store) sweep() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for id, ps := range s.stock {
		if ps.version != s.version {
			delete(s.stock, id)
			continue
		}
		for pid, e := range ps.product {
			if e.available == 0 && e.day == 0 {
				delete(ps.product, pid)
				continue
			}
			if e.version != ps.version {
				delete(ps.product, pid)
			}
		}
	}
}

// StockLevel reports the availability and day-delivery counters of a
// product on one warehouse.
func (c *Catalog) StockLevel(stockID, productID uint32) (available, day uint32, ok bool) {
	c.stock.mtx.RLock()
	defer c.stock.mtx.RUnlock()
	ps, found := c.stock.stock[stockID]
	if !found {
		return 0, 0, false
	}
	e, found := ps.product[productID]
	if !found {
		return 0, 0, false
	}
	return e.available, e.day, true
}

// HasStock reports whether the warehouse appears in the stock container.
func (c *Catalog) HasStock(stockID uint32) bool {
	c.stock.mtx.RLock()
	defer c.stock.mtx.RUnlock()
	_, ok := c.stock.stock[stockID]
	return ok
}

type bonusGroup struct {
	version uint32
	groups  map[string]uint32
}

type bonus struct {
	mtx     sync.RWMutex
	version uint32
	groups  map[uint32]*bonusGroup
}

func (b *bonus) bump() {
	b.mtx.Lock()
	b.version++
	b.mtx.Unlock()
}

func (b *bonus) update(companyID uint32, group string) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	g, ok := b.groups[companyID]
	if !ok {
		g = &bonusGroup{groups: make(map[string]uint32, bonusGroupCap)}
		b.groups[companyID] = g
	}
	g.version = b.version
	g.groups[group] = b.version
}

func (b *bonus) sweep() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for id, g := range b.groups {
		if g.version != b.version {
			delete(b.groups, id)
			continue
		}
		for name, v := range g.groups {
			if v != b.version {
				delete(g.groups, name)
			}
		}
	}
}

// BonusGroups returns a copy of the bonus group codes assigned to the
// company.
func (c *Catalog) BonusGroups(companyID uint32) map[string]struct{} {
	c.bg.mtx.RLock()
	defer c.bg.mtx.RUnlock()
	g, ok := c.bg.groups[companyID]
	if !ok {
		return nil
	}
	set := make(map[string]struct{}, len(g.groups))
	for name := range g.groups {
		set[name] = struct{}{}
	}
	return set
}
