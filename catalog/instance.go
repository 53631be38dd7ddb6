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
	"database/sql"
	"fmt"
	"regexp"

	"github.com/blang/semver/v4"
	"github.com/go-sql-driver/mysql"

	"github.com/brain-b2b/pricelistd/config"
	"github.com/brain-b2b/pricelistd/errlog"
)

// Instance is one session-initialized connection to an upstream store.
// Query failures are reported to the fault log and surfaced as a plain
// false so the caller can retry the whole sub-load.
type Instance struct {
	db   *sql.DB
	errs *errlog.Log
}

// utf8mb3Version is the first server release that renames the legacy
// three-byte utf8 charset.
var utf8mb3Version = semver.MustParse("8.0.0")

// Open connects to the store and pins the session charset the portal
// schema expects. The charset name follows the server release.
func Open(db config.DB, errs *errlog.Log) (*Instance, bool) {
	dsn := db.FormDSN()
	if _, err := mysql.ParseDSN(dsn); err != nil {
		errs.Write(600, fmt.Sprintf("%s. Err: %s", dsn, err))
		return nil, false
	}
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		errs.Write(600, fmt.Sprintf("%s. Err: %s", dsn, err))
		return nil, false
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		errs.Write(601, fmt.Sprintf("%s:%d. Err: %s", db.Host, db.Port, err))
		return nil, false
	}

	in := &Instance{db: conn, errs: errs}
	version, ok := in.serverVersion()
	if !ok {
		conn.Close()
		return nil, false
	}
	charset, collation := "utf8", "utf8_general_ci"
	if version.GTE(utf8mb3Version) {
		charset, collation = "utf8mb3", "utf8mb3_general_ci"
	}
	for _, stmt := range []string{
		fmt.Sprintf("SET NAMES '%s'", charset),
		fmt.Sprintf("SET CHARACTER SET '%s'", charset),
		fmt.Sprintf("SET SESSION collation_connection = '%s'", collation),
	} {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			errs.Write(603, err.Error())
			return nil, false
		}
	}
	return in, true
}

func (in *Instance) Close() error {
	return in.db.Close()
}

// The result of SELECT @@version is something like:
// for MariaDB: "10.5.17-MariaDB-1:10.5.17+maria~ubu2004-log"
// for MySQL: "8.0.36-28.1"
var versionRegex = regexp.MustCompile(`^((\d+)(\.\d+)(\.\d+))`)

func (in *Instance) serverVersion() (semver.Version, bool) {
	var version string
	if err := in.db.QueryRow("SELECT @@version").Scan(&version); err != nil {
		in.errs.Write(602, fmt.Sprintf("sql: SELECT @@version\nErr: %s", err))
		return semver.Version{}, false
	}
	matches := versionRegex.FindStringSubmatch(version)
	if len(matches) < 2 {
		in.errs.Write(602, fmt.Sprintf("could not parse version from %q", version))
		return semver.Version{}, false
	}
	parsed, err := semver.ParseTolerant(matches[1])
	if err != nil {
		in.errs.Write(602, fmt.Sprintf("could not parse version from %q", matches[1]))
		return semver.Version{}, false
	}
	return parsed, true
}

// Query runs one select, logging failures under the query fault code
// with the statement attached.
func (in *Instance) Query(text string) (*sql.Rows, bool) {
	rows, err := in.db.Query(text)
	if err != nil {
		in.errs.Write(602, fmt.Sprintf("sql: %s\nErr: %s", text, err))
		return nil, false
	}
	return rows, true
}
