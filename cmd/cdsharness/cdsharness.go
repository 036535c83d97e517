// Copyright (c) 2024-2026 The cdsharness developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bitcash-dev/cdsharness/activation"
	"github.com/bitcash-dev/cdsharness/harness"
	"github.com/bitcash-dev/cdsharness/internal/version"
	"github.com/bitcash-dev/cdsharness/rpcclient"
)

// networkInfo models the subset of the getnetworkinfo result used to report
// the identity of the node under test at startup.
type networkInfo struct {
	Version    int64  `json:"version"`
	Subversion string `json:"subversion"`
}

// harnessMain is the real main function for the harness.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func harnessMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	cfg, _, err := loadConfig(appName)
	if err != nil {
		usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
		fmt.Fprintln(os.Stderr, err)
		var e errSuppressUsage
		if !errors.As(err, &e) {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Get a context that will be canceled when a shutdown signal has been
	// triggered from an OS signal such as SIGINT (Ctrl+C).
	ctx := shutdownListener()
	defer mainLog.Info("Shutdown complete")

	mainLog.Infof("Version %s (Go version %s %s/%s)", version.String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)

	// Read the RPC server certificate when TLS is enabled.
	var certs []byte
	if !cfg.NoTLS {
		certs, err = os.ReadFile(cfg.RPCCert)
		if err != nil {
			mainLog.Errorf("Unable to read RPC server "+
				"certificate: %v", err)
			return err
		}
	}

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.RPCServer,
		Endpoint:     "ws",
		User:         cfg.RPCUser,
		Pass:         cfg.RPCPass,
		DisableTLS:   cfg.NoTLS,
		Certificates: certs,
		Proxy:        cfg.Proxy,
		ProxyUser:    cfg.ProxyUser,
		ProxyPass:    cfg.ProxyPass,
		HTTPPostMode: !cfg.Websocket,
	})
	if err != nil {
		mainLog.Errorf("Unable to connect to the node at %s: %v",
			cfg.RPCServer, err)
		return err
	}
	defer func() {
		client.Shutdown()
		client.WaitForShutdown()
	}()

	// Report the identity of the node under test.  Nodes that do not
	// implement getnetworkinfo are still driveable, so a failure here is
	// not fatal.
	rawInfo, err := client.RawRequest(ctx, "getnetworkinfo", nil)
	if err != nil {
		mainLog.Warnf("Unable to query node identity: %v", err)
	} else {
		var info networkInfo
		if err := json.Unmarshal(rawInfo, &info); err == nil {
			mainLog.Infof("Node under test: %s (version %d) at %s",
				info.Subversion, info.Version, cfg.RPCServer)
		}
	}

	h, err := harness.New(&harness.Config{
		Node:      harness.NewRPCNode(client),
		Threshold: activation.Threshold(cfg.ActivationTime),
	})
	if err != nil {
		mainLog.Errorf("Unable to create the harness: %v", err)
		return err
	}

	mainLog.Infof("Running the activation sequence with threshold %d",
		cfg.ActivationTime)
	if err := h.Run(ctx); err != nil {
		mainLog.Errorf("Activation sequence failed: %v", err)
		return err
	}

	mainLog.Info("Activation sequence verified")
	return nil
}

func main() {
	if err := harnessMain(); err != nil {
		os.Exit(1)
	}
}
