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

	"github.com/brain-b2b/pricelistd/catalog"
)

// Item is one derived price-list line. The price fields stay zero until
// the pricing query fills them in.
type Item struct {
	ID               uint32
	Code             string
	Stock            uint32
	Available        uint32
	DayDelivery      uint32
	BG               string
	BonusOpt         float64
	Bonus            float64
	PriceUSD         float64
	PriceInd         uint32
	RecommendedPrice float64
	RetailPrice      float64
	InternetPrice    float64
	Weight           float64
	Volume           float64
	Overall          uint32
	CostDelivery     float64
	CategoryID       uint32
	Group            string
	Articul          string
	Vendor           string
	Model            string
	Name             string
	Description      string
	CategoryName     string
	DDP              uint32
	Warranty         string
	Note             string
	URL              string
	UKTVED           string
	GroupID          uint32
	ClassID          uint32
	ClassName        string
	CountryID        uint32
	Country          string
	IsExclusive      uint32
	Lock             bool
	EAN              string
	FOP              uint32
	PriceUAH         float64
}

// itemEnv is the per-request context shared by every derivation. The
// lookups are functions so the builder can bind them to the catalog
// snapshot it holds for this request.
type itemEnv struct {
	locked  func(vendorID, groupID, classID, productID uint32) bool
	stock   func(productID uint32) (available, day uint32, ok bool)
	country func(countryID uint32) catalog.Country
	target  catalog.Target
	bgs     map[string]struct{}
	host    string
}

// newItem derives one line from the cached product. A nil return means
// the product is excluded from this price list.
func newItem(productID uint32, p catalog.Product, prm *Params, env *itemEnv) *Item {
	var fop uint32
	if p.Seller != "" {
		fop = 1
	}
	lock := env.locked(p.VendorID, p.GroupID, p.ClassID, productID)

	var stock, available, day uint32
	if !lock {
		if avail, storedDay, ok := env.stock(productID); ok {
			if avail > 0 {
				stock, available = 1, avail
			} else {
				day = storedDay
			}
		}
	}
	if stock == 0 && (prm.Volume == VolumeLocal || prm.Volume == VolumeFullUAH) {
		return nil
	}
	if stock == 0 && day == 0 && !lock {
		return nil
	}

	var bonus float64
	if !lock {
		if _, ok := env.bgs[p.BG]; ok {
			bonus = p.Bonus
		}
	}

	overall := uint32(3)
	if p.Overall >= 0 && p.Overall <= 3 {
		overall = uint32(p.Overall)
	}
	bulk := p.Weight
	if v := 250.0 * p.Volume; v > bulk {
		bulk = v
	}
	var postage float64
	switch overall {
	case 0:
		postage = env.target.PostageCompact
	case 1:
		postage = env.target.PostageMiddle
	case 2:
		postage = env.target.PostageBig
	default:
		postage = env.target.PostageLarge
	}

	var ddp uint32
	if p.DDP {
		ddp = 1
	}
	var exclusive uint32
	if p.Exclusive == "1" {
		exclusive = 1
	}

	it := &Item{
		ID:          productID,
		Code:        p.Code,
		Stock:       stock,
		Available:   available,
		DayDelivery: day,
		BG:          p.BG,
		BonusOpt:    p.Bonus,
		Bonus:       bonus,
		Weight:      p.Weight,
		Volume:      p.Volume,
		Overall:     overall,
		CostDelivery: bulk * postage,
		CategoryID:  p.CategoryID,
		Articul:     p.Article,
		Vendor:      p.Vendor,
		Model:       p.Model,
		DDP:         ddp,
		Warranty:    p.Warranty,
		UKTVED:      p.UKTVED,
		GroupID:     p.GroupID,
		ClassID:     p.ClassID,
		CountryID:   p.CountryID,
		IsExclusive: exclusive,
		Lock:        lock,
		EAN:         p.EAN,
		FOP:         fop,
	}
	country := env.country(p.CountryID)
	switch prm.Lang {
	case LangUA:
		it.Group = p.GroupUA
		it.Name = p.UA
		it.Description = p.DescUA
		it.CategoryName = p.CategoryUA
		it.URL = fmt.Sprintf("https://%s/%s.html", env.host, p.URLUA)
		it.ClassName = p.ClassUA
		it.Country = country.UA
	default:
		it.Group = p.GroupRU
		it.Name = p.RU
		it.Description = p.DescRU
		it.CategoryName = p.CategoryRU
		it.URL = fmt.Sprintf("https://%s/%s.html", env.host, p.URLRU)
		it.ClassName = p.ClassRU
		it.Country = country.RU
	}
	return it
}
