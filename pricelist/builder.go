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

// Package pricelist turns one validated request into a price-list
// artifact: parameter and token checks, per-item derivation from the
// catalog, the pricing query, and the four format emitters behind a
// thirty-minute file cache.
package pricelist

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/brain-b2b/pricelistd/catalog"
	"github.com/brain-b2b/pricelistd/config"
	"github.com/brain-b2b/pricelistd/errlog"
)

const (
	hostCorp = "corp.brain.com.ua"
	hostOpt  = "opt.brain.com.ua"
)

// fullUAHTarget is the fixed destination every FullUAH price list is
// computed against, whatever targetID the client sent.
const fullUAHTarget = 29

// Builder serves price-list requests against the shared catalog.
type Builder struct {
	cfg     *config.Config
	cat     *catalog.Catalog
	errs    *errlog.Log
	logger  *slog.Logger
	stopped func() bool
}

func NewBuilder(cfg *config.Config, cat *catalog.Catalog, errs *errlog.Log, logger *slog.Logger, stopped func() bool) *Builder {
	return &Builder{cfg: cfg, cat: cat, errs: errs, logger: logger, stopped: stopped}
}

// Respond handles one request and returns the complete HTTP reply.
func (b *Builder) Respond(fcgi map[string]string) []byte {
	if b.stopped() {
		return b.fail("", 24)
	}
	prm, code := ParseParams(fcgi, b.cfg.Salt)
	if code != 0 {
		return b.fail("", code)
	}

	user, companyOK, userOK := b.cat.UserInfo(prm.CompanyID, prm.UserID)
	if !companyOK {
		return b.fail(prm.FormatStr, 17)
	}
	if !userOK {
		return b.fail(prm.FormatStr, 18)
	}
	if user.ProfilesID == 0 {
		return b.fail(prm.FormatStr, 19)
	}
	rozn, r3 := user.Rozn, user.R3
	if prm.API {
		rozn, r3 = true, true
	}

	path, hit, code := lookupArtifact(b.cfg.CacheDir(), prm, time.Now(), b.cfg.Location)
	if code != 0 {
		return b.fail(prm.FormatStr, code)
	}
	if hit {
		artifactHits.Inc()
	} else {
		artifactMisses.Inc()
	}

	body, code := b.price(prm, path, user.Corp, rozn, r3, user.ProfilesID)
	if code != 0 {
		return b.fail(prm.FormatStr, code)
	}
	requestsTotal.WithLabelValues(prm.FormatStr, "ok").Inc()
	return successResponse(prm.Format, filepath.Base(path), body)
}

func (b *Builder) fail(format string, code uint32) []byte {
	if format == "" {
		format = "none"
	}
	requestsTotal.WithLabelValues(format, "client_error").Inc()
	b.logger.Info("request rejected", "code", code, "text", clientText(code))
	return errorResponse(code)
}

// price serves a cached artifact or generates a fresh one.
func (b *Builder) price(prm *Params, path string, corp, rozn, r3 bool, profilesID uint32) ([]byte, uint32) {
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, 0
		}
		if err := os.Remove(path); err != nil {
			return nil, 22
		}
	}

	targetID := prm.TargetID
	if targetID == 0 {
		return nil, 23
	}
	if prm.Volume == VolumeFullUAH {
		targetID = fullUAHTarget
	}
	if b.stopped() {
		return nil, 24
	}

	target, ok := b.cat.Target(targetID)
	if !ok {
		return nil, 25
	}
	if !b.cat.HasStock(target.StockID) {
		return nil, 26
	}

	env := &itemEnv{
		locked: func(vendorID, groupID, classID, productID uint32) bool {
			return b.cat.Locked(prm.CompanyID, vendorID, groupID, classID, productID)
		},
		stock: func(productID uint32) (uint32, uint32, bool) {
			return b.cat.StockLevel(target.StockID, productID)
		},
		country: func(countryID uint32) catalog.Country {
			country, _ := b.cat.Country(countryID)
			return country
		},
		target: target,
		bgs:    b.cat.BonusGroups(prm.CompanyID),
		host:   hostOpt,
	}
	if corp {
		env.host = hostCorp
	}

	start := time.Now()
	items := make(map[uint32]*Item)
	for _, productID := range b.cat.ProductIDs() {
		p, found := b.cat.Product(productID)
		if !found {
			continue
		}
		if it := newItem(productID, p, prm, env); it != nil {
			items[productID] = it
		}
	}
	applyMerchantRules(prm, items)

	ids := make([]uint32, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	wantCategories := prm.Format == FormatXML &&
		(prm.Volume == VolumeLocal || prm.Volume == VolumeFull)
	var categories string
	if len(ids) > 0 || wantCategories {
		in, ok := catalog.Open(b.cfg.DBB2B, b.errs)
		if !ok {
			return nil, 27
		}
		defer in.Close()
		if len(ids) > 0 {
			if !fillPrices(in, items, ids, profilesID, prm.CompanyID, rozn, r3, b.cat.Kurs(), prm.Round) {
				return nil, 28
			}
		}
		if wantCategories {
			if categories, ok = fetchCategories(in, prm.Lang); !ok {
				return nil, 30
			}
		}
	}

	ordered := make([]*Item, len(ids))
	for i, id := range ids {
		ordered[i] = items[id]
	}
	cols := visibleColumns(prm.Volume, rozn, r3, prm.EAN)

	var emit func(io.Writer) error
	var failCode uint32
	switch prm.Format {
	case FormatXLSX:
		now := time.Now().In(b.cfg.Location)
		emit = func(w io.Writer) error { return emitXLSX(w, ordered, cols, now) }
		failCode = 29
	case FormatXML:
		emit = func(w io.Writer) error { return emitXML(w, ordered, cols, categories) }
		failCode = 30
	case FormatJSON:
		emit = func(w io.Writer) error { return emitJSON(w, ordered, cols) }
		failCode = 31
	default:
		emit = func(w io.Writer) error { return emitPHP(w, ordered, cols) }
		failCode = 32
	}
	data, ok := writeArtifact(path, emit)
	if !ok {
		return nil, failCode
	}
	buildDuration.Set(time.Since(start).Seconds())
	b.logger.Info("price list generated",
		"company", prm.CompanyID, "user", prm.UserID, "target", prm.TargetID,
		"format", prm.FormatStr, "items", len(ordered), "bytes", len(data))
	return data, 0
}

func successResponse(format Format, filename string, body []byte) []byte {
	contentType := "application/vnd.php.serialized"
	switch format {
	case FormatXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatXML:
		contentType = "application/xml"
	case FormatJSON:
		contentType = "application/json"
	}
	head := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Type: %s\r\nContent-Disposition: attachment; filename=\"%s\"\r\nContent-Length: %d\r\n\r\n",
		contentType, filename, len(body))
	return append([]byte(head), body...)
}
