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

// Merchant-specific adjustments negotiated with individual buyers. The
// rules run in table order over the whole item set, so a rule that
// forces availability can rescue an item from a later drop rule.

type merchantRule struct {
	name   string
	active func(prm *Params) bool
	apply  func(it *Item) bool
}

const pcVingaCategory = 1053

func pcVingaVendor(vendor string) bool {
	return vendor == "Vinga" || vendor == "BRAIN"
}

func forceAvailable(it *Item) {
	it.Stock = 1
	it.Available = 3
	it.DayDelivery = 0
}

var merchantRules = []merchantRule{
	{
		name:   "fop-sellers-blocked",
		active: func(prm *Params) bool { return prm.CompanyID == 13983 },
		apply:  func(it *Item) bool { return it.FOP == 0 },
	},
	{
		name: "vinga-backlog-forced",
		active: func(prm *Params) bool {
			return prm.CompanyID == 12377 || prm.CompanyID == 16304 ||
				(prm.CompanyID == 16813 && prm.TargetID == 29)
		},
		apply: func(it *Item) bool {
			if it.CategoryID == pcVingaCategory && pcVingaVendor(it.Vendor) &&
				it.Stock == 0 && it.DayDelivery != 0 {
				forceAvailable(it)
			}
			return true
		},
	},
	{
		name:   "pc-vinga-only",
		active: func(prm *Params) bool { return prm.PCVinga },
		apply: func(it *Item) bool {
			if it.CategoryID != pcVingaCategory || !pcVingaVendor(it.Vendor) {
				return false
			}
			forceAvailable(it)
			return true
		},
	},
	{
		name:   "fop-or-backlog-blocked",
		active: func(prm *Params) bool { return prm.CompanyID == 16304 },
		apply:  func(it *Item) bool { return it.FOP == 0 && it.Stock != 0 },
	},
}

// applyMerchantRules filters and mutates the derived items in place.
func applyMerchantRules(prm *Params, items map[uint32]*Item) {
	for _, rule := range merchantRules {
		if !rule.active(prm) {
			continue
		}
		for id, it := range items {
			if !rule.apply(it) {
				delete(items, id)
			}
		}
	}
}
