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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// querier runs one statement against an upstream store, reporting
// failures through the fault log rather than an error value.
type querier interface {
	Query(text string) (*sql.Rows, bool)
}

// pricingSQL selects the profile price column per product group and
// applies the company's personal discount. Retail and internet prices
// collapse to literal zero unless the matching capability is on.
func pricingSQL(profilesID, companyID uint32, rozn, r3 bool, ids []uint32) string {
	retail := "0"
	if rozn {
		retail = "p.RetailPrice"
	}
	internet := "0"
	if r3 {
		internet = "p.Price3"
	}
	list := make([]string, len(ids))
	for i, id := range ids {
		list[i] = strconv.FormatUint(uint64(id), 10)
	}
	return fmt.Sprintf(`
            SELECT
                p.productID,
                CAST(
                    CASE i.PriceUSD
                        WHEN 'price' THEN p.Price
                        WHEN 'price2' THEN p.Price2
                        WHEN 'price3' THEN p.Price3
                        WHEN 'price4' THEN p.Price4
                        WHEN 'price5' THEN p.Price5
                        WHEN 'price6' THEN p.Price6
                        WHEN 'price7' THEN p.Price7
                        ELSE p.Price
                    END * CASE WHEN IFNULL(vd.value,0) <> 0 THEN (100-vd.value)/100 ELSE 1 END AS DECIMAL(10,2)
                ) AS PriceUSD, p.iprice AS Price_ind, p.PriceR AS RecommendedPrice,
                %s AS RetailPrice, %s AS InternetPrice
            FROM
                SC_products p
                LEFT JOIN (
                    SELECT ProductGroupId, GROUP_CONCAT(IF(ProfilesID = %d, fieldprice, null)) AS PriceUSD
                    FROM Profiles_Price
                    GROUP BY ProductGroupId
                ) i ON p.ProductGroupID = i.ProductGroupId
                LEFT JOIN companies cd ON cd.CompanyID=%d
                LEFT JOIN discount_value vd ON vd.DiscountID=cd.DiscountID AND p.ProductGroupID=vd.ProductGroupID
            WHERE p.productID IN (%s)
        `, retail, internet, profilesID, companyID, strings.Join(list, ","))
}

// round6 snaps a price down to a whole multiple of six kopecks, the VAT
// convention the portal invoices with.
func round6(price float64) float64 {
	cents := math.Round(price * 100)
	return math.Floor(cents/6) * 6 / 100
}

// fillPrices runs the pricing query and merges the rows into the items.
// Locked items keep zero prices but still receive the recommended one.
func fillPrices(in querier, items map[uint32]*Item, ids []uint32,
	profilesID, companyID uint32, rozn, r3 bool, kurs float64, round bool) bool {

	rows, ok := in.Query(pricingSQL(profilesID, companyID, rozn, r3, ids))
	if !ok {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var (
			productID   uint32
			priceUSD    float64
			priceInd    uint32
			recommended float64
			retail      float64
			internet    float64
		)
		if err := rows.Scan(&productID, &priceUSD, &priceInd, &recommended, &retail, &internet); err != nil {
			return false
		}
		it, found := items[productID]
		if !found {
			continue
		}
		if !it.Lock {
			it.PriceUSD = priceUSD
			it.PriceInd = priceInd
			it.RetailPrice = retail
			it.InternetPrice = internet
			it.PriceUAH = priceUSD * kurs
			if round {
				it.PriceUSD = round6(it.PriceUSD)
				it.PriceUAH = round6(it.PriceUAH)
			}
		}
		it.RecommendedPrice = recommended
	}
	return rows.Err() == nil
}
