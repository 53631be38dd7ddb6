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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/ini.v1"
)

const dialTimeout = 500 * time.Millisecond

// FormDSN builds the go-sql-driver DSN for one upstream store.
func (db *DB) FormDSN() string {
	cfg := mysql.NewConfig()
	cfg.User = db.User
	cfg.Passwd = db.Pwd
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(db.Host, strconv.Itoa(int(db.Port)))
	cfg.DBName = db.Name
	cfg.Timeout = dialTimeout
	if db.tlsName != "" {
		cfg.TLSConfig = db.tlsName
	}
	return cfg.FormatDSN()
}

// AuthSection is one section of the optional my.cnf-style credential file.
// It overrides the user and password of the matching db block and may add
// TLS material or an AWS RDS IAM token source.
type AuthSection struct {
	User                  string `ini:"user"`
	Password              string `ini:"password"`
	SslCa                 string `ini:"ssl-ca"`
	SslCert               string `ini:"ssl-cert"`
	SslKey                string `ini:"ssl-key"`
	TlsInsecureSkipVerify bool   `ini:"ssl-skip-verification"`
	Tls                   string `ini:"tls"`
	AwsIam                bool   `ini:"aws_iam"`
	AwsRegion             string `ini:"aws_region"`
}

// ApplyAuthFile overlays credentials from an ini file with sections
// db_log, db_b2b and db_local. Absent sections leave the block untouched.
func (c *Config) ApplyAuthFile(ctx context.Context, path string) error {
	opts := ini.LoadOptions{AllowBooleanKeys: true}
	file, err := ini.LoadSources(opts, path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	for name, db := range map[string]*DB{
		"db_log":   &c.DBLog,
		"db_b2b":   &c.DBB2B,
		"db_local": &c.DBLocal,
	} {
		section, err := file.GetSection(name)
		if err != nil {
			continue
		}
		var sec AuthSection
		if err := section.MapTo(&sec); err != nil {
			return fmt.Errorf("failed to parse section %s: %w", name, err)
		}
		if err := db.applyAuth(ctx, name, sec); err != nil {
			return fmt.Errorf("section %s: %w", name, err)
		}
	}
	return nil
}

func (db *DB) applyAuth(ctx context.Context, name string, sec AuthSection) error {
	if sec.User != "" {
		db.User = sec.User
	}
	if sec.Password != "" {
		db.Pwd = sec.Password
	}
	if sec.AwsIam {
		token, err := awsIAMPassword(ctx, net.JoinHostPort(db.Host, strconv.Itoa(int(db.Port))), sec.AwsRegion, db.User)
		if err != nil {
			return err
		}
		db.Pwd = token
	}
	switch {
	case sec.TlsInsecureSkipVerify:
		db.tlsName = "skip-verify"
	case sec.SslCa != "":
		if err := sec.registerTLS(name); err != nil {
			return err
		}
		db.tlsName = name
	default:
		db.tlsName = sec.Tls
	}
	return nil
}

// registerTLS loads the CA bundle and optional client pair under the
// section's name so the DSN can reference it.
func (sec AuthSection) registerTLS(name string) error {
	var tlsCfg tls.Config
	caBundle := x509.NewCertPool()
	pemCA, err := os.ReadFile(sec.SslCa)
	if err != nil {
		return err
	}
	if ok := caBundle.AppendCertsFromPEM(pemCA); !ok {
		return fmt.Errorf("failed to parse pem-encoded CA certificates from %s", sec.SslCa)
	}
	tlsCfg.RootCAs = caBundle
	if sec.SslCert != "" && sec.SslKey != "" {
		keypair, err := tls.LoadX509KeyPair(sec.SslCert, sec.SslKey)
		if err != nil {
			return fmt.Errorf("failed to parse pem-encoded SSL cert %s or SSL key %s: %w", sec.SslCert, sec.SslKey, err)
		}
		tlsCfg.Certificates = []tls.Certificate{keypair}
	}
	return mysql.RegisterTLSConfig(name, &tlsCfg)
}

// awsIAMPassword issues a short-lived RDS IAM auth token used as the
// MySQL password.
func awsIAMPassword(ctx context.Context, endpoint, region, user string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	if region == "" {
		region = cfg.Region
	}
	return auth.BuildAuthToken(ctx, endpoint, region, user, cfg.Credentials)
}
