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

// pricelistd generates B2B merchant price lists over FastCGI.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/common/promslog"
	"github.com/prometheus/common/promslog/flag"
	"github.com/prometheus/common/version"
	"github.com/prometheus/exporter-toolkit/web/kingpinflag"

	"github.com/brain-b2b/pricelistd/config"
	"github.com/brain-b2b/pricelistd/errlog"
)

var (
	configFile = kingpin.Flag(
		"config.file",
		"Path to the server configuration file.",
	).Default("init.config").String()
	authFile = kingpin.Flag(
		"config.db-auth-file",
		"Path to a my.cnf-style file overriding database credentials.",
	).String()
	metricsPath = kingpin.Flag(
		"web.telemetry-path",
		"Path under which to expose metrics.",
	).Default("/metrics").String()
	toolkitFlags = kingpinflag.AddFlags(kingpin.CommandLine, ":9399")

	startCmd = kingpin.Command("start", "Start the server in the background.")
	checkCmd = kingpin.Command("check", "Start the server unless one is already running.")
	stopCmd  = kingpin.Command("stop", "Stop the running server.")
	goCmd    = kingpin.Command("go", "Run the server in the foreground.")
)

func main() {
	promslogConfig := &promslog.Config{}
	flag.AddFlags(kingpin.CommandLine, promslogConfig)
	kingpin.CommandLine.Help = "Сервер генерації прайсів B2B."
	kingpin.Version(version.Print("pricelistd"))
	kingpin.HelpFlag.Short('h')
	command := kingpin.Parse()
	logger := promslog.New(promslogConfig)

	dir, err := os.Getwd()
	if err != nil {
		logger.Error("cannot resolve working directory", "err", err)
		os.Exit(1)
	}
	errs := errlog.New(dir, logger)

	cfg, fault := config.Load(*configFile, dir)
	if fault != nil {
		errs.Fatal(fault.Code, fault.Detail)
	}
	if *authFile != "" {
		if err := cfg.ApplyAuthFile(context.Background(), *authFile); err != nil {
			logger.Error("cannot apply database auth file", "file", *authFile, "err", err)
			os.Exit(1)
		}
	}

	switch command {
	case startCmd.FullCommand():
		actionStart(errs)
	case checkCmd.FullCommand():
		actionCheck(cfg, errs)
	case stopCmd.FullCommand():
		actionStop(cfg, errs)
	case goCmd.FullCommand():
		actionGo(cfg, errs, logger)
	}
}
