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

// Package config loads the init.config document and forms the upstream
// MySQL DSNs. Validation failures are reported as catalog faults so the
// caller can fail fast with the exact operator message.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Fault is a config-time failure mapped to the server fault catalog.
type Fault struct {
	Code   uint32
	Detail string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("config fault %d: %s", f.Code, f.Detail)
}

// DB describes one upstream MySQL store.
type DB struct {
	Host string
	Port uint16
	User string
	Pwd  string
	Name string

	// tlsName is set when a credential file registered a TLS config
	// for this store.
	tlsName string
}

// Config is the parsed init.config document.
type Config struct {
	Port      uint16
	IRC       uint16
	TimeZone  string
	Location  *time.Location
	MaxThread int
	Salt      string

	DBLog   DB
	DBB2B   DB
	DBLocal DB

	// Dir is the working directory holding error.log and cache/.
	Dir string
}

// CacheDir is where generated price-list artifacts live.
func (c *Config) CacheDir() string {
	return c.Dir + "/cache"
}

// Load reads and validates the JSON config file rooted at dir.
func Load(path, dir string) (*Config, *Fault) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &Fault{100, err.Error()}
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &Fault{101, err.Error()}
	}

	cfg := &Config{Dir: dir}
	var fault *Fault
	if cfg.Port, fault = loadPort(doc, "port", 102, 103); fault != nil {
		return nil, fault
	}
	if cfg.TimeZone, fault = loadString(doc, "time_zone", 104, 105); fault != nil {
		return nil, fault
	}
	if cfg.Location, err = time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, &Fault{105, err.Error()}
	}
	if cfg.MaxThread, fault = loadThreads(doc); fault != nil {
		return nil, fault
	}
	if cfg.DBLog, fault = loadDB(doc, "db_log", 108); fault != nil {
		return nil, fault
	}
	if cfg.DBB2B, fault = loadDB(doc, "db_b2b", 118); fault != nil {
		return nil, fault
	}
	if cfg.DBLocal, fault = loadDB(doc, "db_local", 128); fault != nil {
		return nil, fault
	}
	if cfg.IRC, fault = loadPort(doc, "irc", 138, 139); fault != nil {
		return nil, fault
	}
	if cfg.Salt, fault = loadString(doc, "salt", 140, 141); fault != nil {
		return nil, fault
	}
	return cfg, nil
}

// EnsureCacheDir creates the artifact directory on first boot.
func (c *Config) EnsureCacheDir() *Fault {
	dir := c.CacheDir()
	stat, err := os.Stat(dir)
	switch {
	case err == nil:
		if !stat.IsDir() {
			return &Fault{502, dir}
		}
	case os.IsNotExist(err):
		if err := os.Mkdir(dir, 0o755); err != nil {
			return &Fault{503, err.Error()}
		}
	default:
		return &Fault{502, err.Error()}
	}
	return nil
}

func loadString(doc map[string]any, key string, missing, invalid uint32) (string, *Fault) {
	val, ok := doc[key]
	if !ok {
		return "", &Fault{missing, ""}
	}
	str, ok := val.(string)
	if !ok {
		return "", &Fault{invalid, ""}
	}
	return str, nil
}

func loadPort(doc map[string]any, key string, missing, invalid uint32) (uint16, *Fault) {
	val, ok := doc[key]
	if !ok {
		return 0, &Fault{missing, ""}
	}
	num, ok := val.(float64)
	if !ok || num <= 0 || num > 65535 || num != float64(uint16(num)) {
		return 0, &Fault{invalid, ""}
	}
	return uint16(num), nil
}

func loadThreads(doc map[string]any) (int, *Fault) {
	val, ok := doc["max_thread"]
	if !ok {
		return 0, &Fault{106, ""}
	}
	num, ok := val.(float64)
	if !ok || num <= 0 || num > 255 || num != float64(uint8(num)) {
		return 0, &Fault{107, ""}
	}
	return int(num), nil
}

// loadDB reads one db_* block. Codes follow the catalog layout: base is the
// missing-host code and each of host, port, user, pwd, name takes the next
// missing/invalid pair.
func loadDB(doc map[string]any, prefix string, base uint32) (DB, *Fault) {
	db := DB{}
	var fault *Fault
	if db.Host, fault = loadString(doc, prefix+"_host", base, base+1); fault != nil {
		return db, fault
	}
	if db.Port, fault = loadPort(doc, prefix+"_port", base+2, base+3); fault != nil {
		return db, fault
	}
	if db.User, fault = loadString(doc, prefix+"_user", base+4, base+5); fault != nil {
		return db, fault
	}
	if db.Pwd, fault = loadString(doc, prefix+"_pwd", base+6, base+7); fault != nil {
		return db, fault
	}
	if db.Name, fault = loadString(doc, prefix+"_name", base+8, base+9); fault != nil {
		return db, fault
	}
	return db, nil
}
