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

// The column table is shared by all four emitters. A column is visible
// when its flag for the requested volume is on, or when one of its
// capability flags matches a capability the user holds.

type colKind int

const (
	colString colKind = iota
	colMoney
	colIndex
)

type column struct {
	name string
	kind colKind

	local, full, short, fullUAH bool
	rozn, r3, ean               bool

	str   func(*Item) string
	money func(*Item) float64
	index func(*Item) uint32
}

func (c *column) visible(v Volume, rozn, r3, ean bool) bool {
	var on bool
	switch v {
	case VolumeLocal:
		on = c.local
	case VolumeFull:
		on = c.full
	case VolumeShort:
		on = c.short
	default:
		on = c.fullUAH
	}
	return on || (c.rozn && rozn) || (c.r3 && r3) || (c.ean && ean)
}

// visibleColumns keeps the table order.
func visibleColumns(v Volume, rozn, r3, ean bool) []*column {
	cols := make([]*column, 0, len(columns))
	for i := range columns {
		if columns[i].visible(v, rozn, r3, ean) {
			cols = append(cols, &columns[i])
		}
	}
	return cols
}

var columns = []column{
	{name: "code", kind: colString, local: true, full: true, short: true, fullUAH: true,
		str: func(it *Item) string { return it.Code }},
	{name: "articul", kind: colString, local: true, full: true, fullUAH: true,
		str: func(it *Item) string { return it.Articul }},
	{name: "name", kind: colString, local: true, full: true, short: true, fullUAH: true,
		str: func(it *Item) string { return it.Name }},
	{name: "price_usd", kind: colMoney, local: true, full: true, short: true,
		money: func(it *Item) float64 { return it.PriceUSD }},
	{name: "price_uah", kind: colMoney, fullUAH: true,
		money: func(it *Item) float64 { return it.PriceUAH }},
	{name: "price_ind", kind: colIndex, local: true, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.PriceInd }},
	{name: "recommended_price", kind: colMoney, local: true, full: true, fullUAH: true,
		money: func(it *Item) float64 { return it.RecommendedPrice }},
	{name: "retail_price", kind: colMoney, rozn: true,
		money: func(it *Item) float64 { return it.RetailPrice }},
	{name: "internet_price", kind: colMoney, r3: true,
		money: func(it *Item) float64 { return it.InternetPrice }},
	{name: "stock", kind: colIndex, local: true, full: true, short: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.Stock }},
	{name: "available", kind: colIndex, local: true, full: true, short: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.Available }},
	{name: "day_delivery", kind: colIndex, local: true, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.DayDelivery }},
	{name: "bonus", kind: colMoney, local: true, full: true, fullUAH: true,
		money: func(it *Item) float64 { return it.Bonus }},
	{name: "bonus_opt", kind: colMoney, full: true, fullUAH: true,
		money: func(it *Item) float64 { return it.BonusOpt }},
	{name: "bg", kind: colString, full: true, fullUAH: true,
		str: func(it *Item) string { return it.BG }},
	{name: "weight", kind: colMoney, full: true, fullUAH: true,
		money: func(it *Item) float64 { return it.Weight }},
	{name: "volume", kind: colMoney, full: true, fullUAH: true,
		money: func(it *Item) float64 { return it.Volume }},
	{name: "overall", kind: colIndex, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.Overall }},
	{name: "cost_delivery", kind: colMoney, full: true, fullUAH: true,
		money: func(it *Item) float64 { return it.CostDelivery }},
	{name: "group", kind: colString, local: true, full: true, fullUAH: true,
		str: func(it *Item) string { return it.Group }},
	{name: "group_id", kind: colIndex, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.GroupID }},
	{name: "category_id", kind: colIndex, local: true, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.CategoryID }},
	{name: "category_name", kind: colString, local: true, full: true, fullUAH: true,
		str: func(it *Item) string { return it.CategoryName }},
	{name: "class_id", kind: colIndex, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.ClassID }},
	{name: "class_name", kind: colString, full: true, fullUAH: true,
		str: func(it *Item) string { return it.ClassName }},
	{name: "vendor", kind: colString, local: true, full: true, short: true, fullUAH: true,
		str: func(it *Item) string { return it.Vendor }},
	{name: "model", kind: colString, local: true, full: true, short: true, fullUAH: true,
		str: func(it *Item) string { return it.Model }},
	{name: "description", kind: colString, full: true, fullUAH: true,
		str: func(it *Item) string { return it.Description }},
	{name: "warranty", kind: colString, local: true, full: true, fullUAH: true,
		str: func(it *Item) string { return it.Warranty }},
	{name: "note", kind: colString, full: true, fullUAH: true,
		str: func(it *Item) string { return it.Note }},
	{name: "url", kind: colString, local: true, full: true, fullUAH: true,
		str: func(it *Item) string { return it.URL }},
	{name: "uktved", kind: colString, full: true, fullUAH: true,
		str: func(it *Item) string { return it.UKTVED }},
	{name: "country_id", kind: colIndex, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.CountryID }},
	{name: "country", kind: colString, full: true, fullUAH: true,
		str: func(it *Item) string { return it.Country }},
	{name: "ddp", kind: colIndex, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.DDP }},
	{name: "is_exclusive", kind: colIndex, full: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.IsExclusive }},
	{name: "fop", kind: colIndex, local: true, full: true, short: true, fullUAH: true,
		index: func(it *Item) uint32 { return it.FOP }},
	{name: "EAN", kind: colString, ean: true,
		str: func(it *Item) string { return it.EAN }},
}
