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
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

// Format is the requested artifact encoding.
type Format int

const (
	FormatXLSX Format = iota
	FormatXML
	FormatJSON
	FormatPHP
)

// Lang selects the localization branch of every product field.
type Lang int

const (
	LangUA Lang = iota
	LangRU
)

// Volume is the price-list variant requested by the client.
type Volume int

const (
	VolumeLocal Volume = iota
	VolumeFull
	VolumeShort
	VolumeFullUAH
)

// Params is one validated request. The *Str fields keep the raw query
// values because they feed the artifact filename and the token digest.
type Params struct {
	UserID    uint32
	CompanyID uint32
	TargetID  uint32
	Format    Format
	FormatStr string
	Lang      Lang
	LangStr   string
	PCVinga   bool
	PCVingaStr string
	Volume    Volume
	VolumeStr string
	UAH       bool
	NDS       bool
	Round     bool
	EAN       bool
	API       bool
}

// ParseParams validates the request carried in the FastCGI params.
// A non-zero return code names the client fault, checked in the same
// order the client catalog numbers them.
func ParseParams(fcgi map[string]string, salt string) (*Params, uint32) {
	get := queryValues(fcgi["QUERY_STRING"])
	prm := &Params{}

	raw, ok := get["format"]
	if !ok {
		return nil, 1
	}
	prm.FormatStr = raw
	switch raw {
	case "xlsx":
		prm.Format = FormatXLSX
	case "xml":
		prm.Format = FormatXML
	case "json":
		prm.Format = FormatJSON
	case "php":
		prm.Format = FormatPHP
	default:
		return nil, 2
	}

	raw, ok = get["full"]
	if !ok {
		return nil, 3
	}
	prm.VolumeStr = raw
	switch raw {
	case "0":
		prm.Volume = VolumeLocal
	case "1":
		prm.Volume = VolumeFull
	case "2":
		prm.Volume = VolumeShort
	case "3":
		prm.Volume = VolumeFullUAH
	default:
		return nil, 4
	}

	prm.UAH = get["cur"] == "uah"
	prm.EAN = get["ean"] == "1"
	prm.NDS = get["nds"] == "1" && prm.UAH
	prm.Round = prm.NDS && prm.UAH

	raw, ok = get["companyID"]
	if !ok {
		return nil, 5
	}
	companyID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, 6
	}
	prm.CompanyID = uint32(companyID)

	raw, ok = get["targetID"]
	if !ok {
		return nil, 7
	}
	targetID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, 8
	}
	prm.TargetID = uint32(targetID)

	raw, ok = get["lang"]
	if !ok {
		return nil, 9
	}
	prm.LangStr = raw
	switch raw {
	case "ua":
		prm.Lang = LangUA
	case "ru":
		prm.Lang = LangRU
	default:
		return nil, 10
	}

	raw, ok = get["time"]
	if !ok {
		return nil, 11
	}
	if _, err := strconv.ParseUint(raw, 10, 32); err != nil {
		return nil, 12
	}
	timeStr := raw

	raw, ok = get["userID"]
	if !ok {
		return nil, 13
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, 14
	}
	prm.UserID = uint32(userID)

	prm.PCVingaStr = "0"
	if get["pcvinga"] == "1" {
		prm.PCVinga = true
		prm.PCVingaStr = "1"
	}
	_, prm.API = get["api"]

	token, ok := get["token"]
	if !ok {
		return nil, 15
	}
	if token != signToken(prm.CompanyID, prm.TargetID, prm.FormatStr, prm.LangStr, timeStr, salt) {
		return nil, 16
	}
	return prm, 0
}

// signToken is the shared-secret request signature: a lowercase hex
// SHA-512 over the concatenated identifying parameters and the salt.
func signToken(companyID, targetID uint32, format, lang, time, salt string) string {
	sum := sha512.Sum512([]byte(strconv.FormatUint(uint64(companyID), 10) +
		strconv.FormatUint(uint64(targetID), 10) + format + lang + time + salt))
	return hex.EncodeToString(sum[:])
}

// queryValues splits QUERY_STRING. Later duplicates win, a bare key maps
// to an empty value, and a value that fails percent-decoding becomes "".
func queryValues(query string) map[string]string {
	get := make(map[string]string, 16)
	if query == "" {
		return get
	}
	for _, pair := range strings.Split(query, "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 1 {
			get[unescape(pair)] = ""
			continue
		}
		get[unescape(kv[0])] = unescape(kv[1])
	}
	return get
}

func unescape(raw string) string {
	val, err := url.PathUnescape(raw)
	if err != nil {
		return ""
	}
	return val
}
