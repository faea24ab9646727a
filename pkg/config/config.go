// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package config loads the operator's runtime configuration from its
// environment. Unlike the Kubernetes objects it reconciles, the operator's
// own configuration is fixed for the lifetime of the process, so it is read
// once at startup rather than watched.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultMetricsAddr is the address the operator serves Prometheus metrics on when EPHEMERON_METRICS_ADDR is unset.
	DefaultMetricsAddr = "0.0.0.0:8081"
	// DefaultProbeAddr is the address the operator serves readiness/liveness probes on when EPHEMERON_PROBE_ADDR is unset.
	DefaultProbeAddr = "0.0.0.0:8080"
	// DefaultResyncPeriod is how often the manager's informers do a full resync absent an override.
	DefaultResyncPeriod = 5 * time.Minute
	// DefaultMaxConcurrentReconciles bounds the number of Ephemerons reconciled in parallel absent an override.
	DefaultMaxConcurrentReconciles = 2
	// DefaultReconcileDeadline bounds a single Ephemeron's reconcile, covering the child-ensure fan-out and status update.
	DefaultReconcileDeadline = 60 * time.Second
	// DefaultAPICallDeadline bounds each individual Kubernetes API call a reconcile makes.
	DefaultAPICallDeadline = 30 * time.Second
)

// Config is the operator's process-wide configuration, sourced from
// environment variables so the container image needs no flags baked in.
type Config struct {
	// Domain is the base domain under which every Ephemeron's host is synthesized, e.g. "preview.example.com".
	Domain string
	// Namespace is where the operator creates child Pods, Services, and Ingresses.
	Namespace string
	// IngressClassName is set on every Ingress the operator creates, when non-empty.
	IngressClassName string
	// MetricsAddr is the address the operator serves Prometheus metrics on.
	MetricsAddr string
	// ProbeAddr is the address the operator serves readiness/liveness probes on.
	ProbeAddr string
	// ResyncPeriod is how often the manager's informers do a full resync.
	ResyncPeriod time.Duration
	// MaxConcurrentReconciles bounds how many Ephemerons are reconciled in parallel.
	MaxConcurrentReconciles int
	// ReconcileDeadline bounds a single Ephemeron's reconcile.
	ReconcileDeadline time.Duration
	// APICallDeadline bounds each individual Kubernetes API call a reconcile makes.
	APICallDeadline time.Duration
	// LeaderElection enables leader election so only one replica of the operator is active at a time.
	LeaderElection bool
	// LogLevel is the parsed RUST_LOG-style level name (error, warn, info, debug, trace).
	LogLevel string
}

// FromEnv builds a Config from the process environment, applying defaults
// for anything optional.
func FromEnv() (*Config, error) {
	c := &Config{
		Domain:                  os.Getenv("EPHEMERON_DOMAIN"),
		Namespace:               getEnvDefault("EPHEMERON_NAMESPACE", "ephemeron-system"),
		IngressClassName:        os.Getenv("EPHEMERON_INGRESS_CLASS"),
		MetricsAddr:             getEnvDefault("EPHEMERON_METRICS_ADDR", DefaultMetricsAddr),
		ProbeAddr:               getEnvDefault("EPHEMERON_PROBE_ADDR", DefaultProbeAddr),
		ResyncPeriod:            DefaultResyncPeriod,
		MaxConcurrentReconciles: DefaultMaxConcurrentReconciles,
		ReconcileDeadline:       DefaultReconcileDeadline,
		APICallDeadline:         DefaultAPICallDeadline,
		LogLevel:                getEnvDefault("RUST_LOG", "info"),
	}

	if v := os.Getenv("EPHEMERON_RESYNC_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing EPHEMERON_RESYNC_PERIOD: %w", err)
		}
		c.ResyncPeriod = d
	}

	if v := os.Getenv("EPHEMERON_RECONCILE_DEADLINE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing EPHEMERON_RECONCILE_DEADLINE: %w", err)
		}
		c.ReconcileDeadline = d
	}

	if v := os.Getenv("EPHEMERON_API_CALL_DEADLINE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing EPHEMERON_API_CALL_DEADLINE: %w", err)
		}
		c.APICallDeadline = d
	}

	if v := os.Getenv("EPHEMERON_MAX_CONCURRENT_RECONCILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parsing EPHEMERON_MAX_CONCURRENT_RECONCILES: %w", err)
		}
		c.MaxConcurrentReconciles = n
	}

	if v := os.Getenv("EPHEMERON_LEADER_ELECTION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parsing EPHEMERON_LEADER_ELECTION: %w", err)
		}
		c.LeaderElection = b
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	if c.Domain == "" {
		return errors.New("EPHEMERON_DOMAIN is required")
	}
	if c.Namespace == "" {
		return errors.New("EPHEMERON_NAMESPACE must not be empty")
	}
	if c.MaxConcurrentReconciles < 1 {
		return errors.New("EPHEMERON_MAX_CONCURRENT_RECONCILES must be a positive number")
	}
	if c.ResyncPeriod <= 0 {
		return errors.New("EPHEMERON_RESYNC_PERIOD must be positive")
	}
	if c.ReconcileDeadline <= 0 {
		return errors.New("EPHEMERON_RECONCILE_DEADLINE must be positive")
	}
	if c.APICallDeadline <= 0 {
		return errors.New("EPHEMERON_API_CALL_DEADLINE must be positive")
	}
	switch c.LogLevel {
	case "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("RUST_LOG must be one of error, warn, info, debug, trace, got %q", c.LogLevel)
	}

	return nil
}

func getEnvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
