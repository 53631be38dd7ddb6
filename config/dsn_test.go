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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/smartystreets/goconvey/convey"
)

func TestFormDSN(t *testing.T) {
	convey.Convey("FormDSN yields a parseable driver DSN", t, func() {
		db := DB{Host: "b2b.db", Port: 3307, User: "svc", Pwd: "pw", Name: "portal"}
		dsn := db.FormDSN()
		cfg, err := mysql.ParseDSN(dsn)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.User, convey.ShouldEqual, "svc")
		convey.So(cfg.Passwd, convey.ShouldEqual, "pw")
		convey.So(cfg.Net, convey.ShouldEqual, "tcp")
		convey.So(cfg.Addr, convey.ShouldEqual, "b2b.db:3307")
		convey.So(cfg.DBName, convey.ShouldEqual, "portal")
		convey.So(cfg.Timeout, convey.ShouldEqual, dialTimeout)
	})
}

func TestApplyAuthFile(t *testing.T) {
	convey.Convey("Credential file sections override user and password", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "db-auth.cnf")
		body := "[db_b2b]\nuser = override\npassword = secret\n"
		convey.So(os.WriteFile(path, []byte(body), 0o600), convey.ShouldBeNil)

		cfg := &Config{
			DBLog: DB{Host: "log.db", Port: 3306, User: "u1", Pwd: "p1", Name: "logistics"},
			DBB2B: DB{Host: "b2b.db", Port: 3307, User: "u2", Pwd: "p2", Name: "portal"},
		}
		convey.So(cfg.ApplyAuthFile(context.Background(), path), convey.ShouldBeNil)
		convey.So(cfg.DBB2B.User, convey.ShouldEqual, "override")
		convey.So(cfg.DBB2B.Pwd, convey.ShouldEqual, "secret")
		convey.So(cfg.DBLog.User, convey.ShouldEqual, "u1")
	})

	convey.Convey("A missing credential file is an error", t, func() {
		cfg := &Config{}
		convey.So(cfg.ApplyAuthFile(context.Background(), "/nonexistent.cnf"), convey.ShouldNotBeNil)
	})
}
