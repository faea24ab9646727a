// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"fmt"
	"os"
	"time"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/qualified-io/ephemeron-operator/pkg/config"
	"github.com/qualified-io/ephemeron-operator/pkg/controller"
)

// drainTimeout bounds how long the manager is given to stop its runnables
// once a shutdown signal arrives before the process gives up waiting on it.
const drainTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := controller.ConfigureLogging(conf.LogLevel); err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	mgr, err := controller.NewManager(conf)
	if err != nil {
		return fmt.Errorf("building manager: %w", err)
	}

	signalCtx := ctrl.SetupSignalHandler()

	// managerDone receives the moment mgr.Start actually returns, which is
	// what lets the second select below distinguish "drained in time" from
	// "still draining past the deadline" instead of racing on signalCtx's
	// own cancellation (mgr.Start is also watching signalCtx, so it keeps
	// running in the background if the deadline wins).
	managerDone := make(chan error, 1)
	go func() {
		managerDone <- mgr.Start(signalCtx)
	}()

	select {
	case err := <-managerDone:
		if err != nil {
			return fmt.Errorf("manager exited: %w", err)
		}
		return nil
	case <-signalCtx.Done():
	}

	select {
	case err := <-managerDone:
		if err != nil {
			return fmt.Errorf("manager exited: %w", err)
		}
		return nil
	case <-time.After(drainTimeout):
		return fmt.Errorf("manager did not drain within %s", drainTimeout)
	}
}
