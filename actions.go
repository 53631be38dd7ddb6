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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/exporter-toolkit/web"

	"github.com/brain-b2b/pricelistd/config"
	"github.com/brain-b2b/pricelistd/errlog"
	"github.com/brain-b2b/pricelistd/server"
)

const (
	dialTimeout = 2 * time.Second
	stopTimeout = 30 * time.Second
)

// actionStart launches a detached copy of this binary running the
// foreground command and reports its PID.
func actionStart(errs *errlog.Log) {
	exe, err := os.Executable()
	if err != nil {
		errs.Fatal(200, err.Error())
	}
	args := []string{"--config.file", *configFile}
	if *authFile != "" {
		args = append(args, "--config.db-auth-file", *authFile)
	}
	args = append(args, "go")
	cmd := exec.Command(exe, args...)
	if err := cmd.Start(); err != nil {
		errs.Fatal(200, err.Error())
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()
	fmt.Printf("Сервер запущено. PID=%d\n", pid)
}

// actionCheck starts the server only when the control port is free.
func actionCheck(cfg *config.Config, errs *errlog.Log) {
	conn, err := net.DialTimeout("tcp", controlAddr(cfg), dialTimeout)
	if err == nil {
		conn.Close()
		fmt.Println("Сокет IRC занятий, можливо вже запущен один екземпляр сервера")
		return
	}
	actionStart(errs)
}

// actionStop sends the stop command to the control port and waits for
// the PID acknowledgement.
func actionStop(cfg *config.Config, errs *errlog.Log) {
	conn, err := net.DialTimeout("tcp", controlAddr(cfg), dialTimeout)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			errs.Fatal(202, "")
		}
		errs.Fatal(201, err.Error())
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("stop")); err != nil {
		errs.Fatal(203, err.Error())
	}
	if err := conn.SetReadDeadline(time.Now().Add(stopTimeout)); err != nil {
		errs.Fatal(204, err.Error())
	}
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		errs.Fatal(205, err.Error())
	}
	if n == 0 {
		errs.Fatal(206, "")
	}
	if !utf8.Valid(buf[:n]) {
		errs.Fatal(207, "")
	}
	pid, err := strconv.Atoi(string(buf[:n]))
	if err != nil {
		errs.Fatal(208, string(buf[:n]))
	}
	fmt.Printf("Сервер зупинено. PID=%d\n", pid)
}

// actionGo runs the server in the foreground with the telemetry
// listener beside it.
func actionGo(cfg *config.Config, errs *errlog.Log, logger *slog.Logger) {
	if fault := cfg.EnsureCacheDir(); fault != nil {
		errs.Fatal(fault.Code, fault.Detail)
	}

	mux := http.NewServeMux()
	mux.Handle(*metricsPath, promhttp.Handler())
	telemetry := &http.Server{Handler: mux}
	go func() {
		if err := web.ListenAndServe(telemetry, toolkitFlags, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("telemetry listener failed", "err", err)
		}
	}()
	defer telemetry.Close()

	server.New(cfg, errs, logger).Run()
}

func controlAddr(cfg *config.Config) string {
	return fmt.Sprintf("127.0.0.1:%d", cfg.IRC)
}
