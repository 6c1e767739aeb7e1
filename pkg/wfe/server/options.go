/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	configapi "github.com/jordigilh/kubernaut-sub014/api/config/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/controller"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/cooldown"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/env"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
)

const (
	DefaultLeaderElectionID = "workflowexecution.kubernaut.ai"
	ZapLogLevelFlagName     = "zap-log-level"
)

// envToFlag maps the WFE_* environment variables to the flags they override.
var envToFlag = map[string]string{
	"WFE_EXECUTION_NAMESPACE":       "execution-namespace",
	"WFE_DEFAULT_SERVICE_ACCOUNT":   "default-service-account",
	"WFE_COOLDOWN_PERIOD":           "cooldown-period",
	"WFE_MAX_BACKOFF_EXPONENT":      "max-backoff-exponent",
	"WFE_MAX_COOLDOWN_PERIOD":       "max-cooldown-period",
	"WFE_MAX_CONCURRENT_RECONCILES": "max-concurrent-reconciles",
	"WFE_API_TIMEOUT":               "api-timeout",
	"WFE_STATUS_POLL_INTERVAL":      "status-poll-interval",
	"WFE_METRICS_PORT":              "metrics-port",
	"WFE_GRPC_HEALTH_PORT":          "grpc-health-port",
	"WFE_CONFIG_FILE":               "config-file",
}

// Options contains configuration values necessary to create and run the
// WorkflowExecution controller.
type Options struct {
	//
	// Execution.
	//
	ExecutionNamespace    string // Namespace PipelineRuns are created in.
	DefaultServiceAccount string // Service account used when a request does not name one.
	//
	// Cooldown and backoff.
	//
	CooldownPeriod        time.Duration // Base cooldown after any terminal execution.
	MaxBackoffExponent    int           // Cap of the exponent applied to the cooldown period after failures.
	MaxCooldownPeriod     time.Duration // Clamp of the computed cooldown, zero disables the clamp.
	BackoffStateRetention time.Duration // How long per target backoff state is kept after its cooldown elapsed.
	//
	// Reconciler.
	//
	MaxConcurrentReconciles int           // Number of WorkflowExecutions reconciled in parallel.
	APITimeout              time.Duration // Timeout of every API server call.
	StatusPollInterval      time.Duration // Requeue period of Running WorkflowExecutions.
	RetryBaseDelay          time.Duration // Base delay of the per request error backoff.
	RetryMaxDelay           time.Duration // Maximum delay of the per request error backoff.
	AuditBufferSize         int           // Capacity of the asynchronous audit queue.
	//
	// High availability.
	//
	EnableLeaderElection bool   // Enables leader election for high availability.
	LeaderElectionID     string // Name of the lease used for leader election.
	//
	// Diagnostics.
	//
	LogVerbosity        int         // Number for the log level verbosity.
	ZapOptions          zap.Options // Zap logging options
	MetricsPort         int         // The metrics port exposed by the controller.
	HealthProbePort     int         // The port of the HTTP healthz and readyz endpoints.
	GRPCHealthPort      int         // The port used for gRPC liveness and readiness probes.
	EnablePprof         bool        // Enables pprof handlers.
	MetricsEndpointAuth bool        // Enables authentication and authorization of the metrics endpoint.
	//
	// Configuration.
	//
	ConfigFile string // The path to the configuration file.
	ConfigText string // The configuration specified as text, in lieu of a file.

	// internal
	fs *pflag.FlagSet // FlagSet used in AddFlags() and consulted in Complete()
}

// NewOptions returns a new Options struct initialized with the default values.
func NewOptions() *Options {
	return &Options{
		ExecutionNamespace:      configapi.DefaultExecutionNamespace,
		DefaultServiceAccount:   configapi.DefaultServiceAccount,
		CooldownPeriod:          configapi.DefaultCooldownPeriod,
		MaxBackoffExponent:      int(configapi.DefaultMaxBackoffExponent),
		BackoffStateRetention:   configapi.DefaultBackoffStateRetention,
		MaxConcurrentReconciles: 10,
		APITimeout:              10 * time.Second,
		StatusPollInterval:      10 * time.Second,
		RetryBaseDelay:          time.Second,
		RetryMaxDelay:           5 * time.Minute,
		AuditBufferSize:         1000,
		LeaderElectionID:        DefaultLeaderElectionID,
		LogVerbosity:            logging.DEFAULT,
		ZapOptions:              zap.Options{Development: true},
		MetricsPort:             9090,
		HealthProbePort:         8081,
		GRPCHealthPort:          9003,
		EnablePprof:             true,
		MetricsEndpointAuth:     true,
	}
}

func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	opts.fs = fs

	fs.StringVar(&opts.ExecutionNamespace, "execution-namespace", opts.ExecutionNamespace,
		"Dedicated namespace PipelineRuns are created in.")
	fs.StringVar(&opts.DefaultServiceAccount, "default-service-account", opts.DefaultServiceAccount,
		"Service account PipelineRuns run as when the WorkflowExecution does not name one.")
	fs.DurationVar(&opts.CooldownPeriod, "cooldown-period", opts.CooldownPeriod,
		"Base cooldown applied to a target resource after any terminal execution.")
	fs.IntVar(&opts.MaxBackoffExponent, "max-backoff-exponent", opts.MaxBackoffExponent,
		"Cap of the exponent applied to the cooldown period after consecutive failures.")
	fs.DurationVar(&opts.MaxCooldownPeriod, "max-cooldown-period", opts.MaxCooldownPeriod,
		"Upper bound of the computed cooldown. Zero disables the bound.")
	fs.DurationVar(&opts.BackoffStateRetention, "backoff-state-retention", opts.BackoffStateRetention,
		"How long per target backoff state is kept in memory after its cooldown elapsed.")
	fs.IntVar(&opts.MaxConcurrentReconciles, "max-concurrent-reconciles", opts.MaxConcurrentReconciles,
		"Number of WorkflowExecutions reconciled in parallel.")
	fs.DurationVar(&opts.APITimeout, "api-timeout", opts.APITimeout, "Timeout of every call to the API server.")
	fs.DurationVar(&opts.StatusPollInterval, "status-poll-interval", opts.StatusPollInterval,
		"Requeue period of Running WorkflowExecutions.")
	fs.DurationVar(&opts.RetryBaseDelay, "retry-base-delay", opts.RetryBaseDelay,
		"Base delay of the per request backoff after reconcile errors.")
	fs.DurationVar(&opts.RetryMaxDelay, "retry-max-delay", opts.RetryMaxDelay,
		"Maximum delay of the per request backoff after reconcile errors.")
	fs.IntVar(&opts.AuditBufferSize, "audit-buffer-size", opts.AuditBufferSize,
		"Capacity of the asynchronous audit event queue. Events beyond it are dropped.")
	fs.BoolVar(&opts.EnableLeaderElection, "ha-enable-leader-election", opts.EnableLeaderElection,
		"Enables leader election for high availability. When enabled, readiness probes will only pass on the leader.")
	fs.StringVar(&opts.LeaderElectionID, "leader-election-id", opts.LeaderElectionID,
		"Name of the lease used for leader election.")
	fs.IntVarP(&opts.LogVerbosity, "v", "v", opts.LogVerbosity, "Number for the log level verbosity.") // allow both --v and -v
	gofs := flag.NewFlagSet("zap", flag.ExitOnError)
	opts.ZapOptions.BindFlags(gofs) // zap expects a standard Go FlagSet and pflag.FlagSet is not compatible.
	fs.AddGoFlagSet(gofs)
	fs.IntVar(&opts.MetricsPort, "metrics-port", opts.MetricsPort, "The metrics port exposed by the controller.")
	fs.IntVar(&opts.HealthProbePort, "health-probe-port", opts.HealthProbePort,
		"The port of the HTTP healthz and readyz endpoints.")
	fs.IntVar(&opts.GRPCHealthPort, "grpc-health-port", opts.GRPCHealthPort,
		"The port used for gRPC liveness and readiness probes.")
	fs.BoolVar(&opts.EnablePprof, "enable-pprof", opts.EnablePprof,
		"Enables pprof handlers. Defaults to true. Set to false to disable pprof handlers.")
	fs.BoolVar(&opts.MetricsEndpointAuth, "metrics-endpoint-auth", opts.MetricsEndpointAuth,
		"Enables authentication and authorization of the metrics endpoint.")
	fs.StringVar(&opts.ConfigFile, "config-file", opts.ConfigFile, "The path to the configuration file.")
	fs.StringVar(&opts.ConfigText, "config-text", opts.ConfigText, "The configuration specified as text, in lieu of a file.")
}

// BindEnv applies the WFE_* environment variables to the flags that were not
// set on the command line. It must run after the flags are parsed.
func (opts *Options) BindEnv(logger logr.Logger) error {
	return env.BindToFlags(opts.fs, envToFlag, logger)
}

func (opts *Options) Complete() error {
	// ensure zap log level is set - explicitly by user or from "-v"
	zapLogLevelFlag := opts.fs.Lookup(ZapLogLevelFlagName)
	if zapLogLevelFlag != nil && !zapLogLevelFlag.Changed { // not set explicitly
		lvl := -1 * (opts.LogVerbosity) // See https://pkg.go.dev/sigs.k8s.io/controller-runtime/pkg/log/zap#Options.Level
		opts.ZapOptions.Level = uberzap.NewAtomicLevelAt(zapcore.Level(int8(lvl)))
		zapLogLevelFlag.Changed = true
	}
	return nil
}

// ApplyConfig copies the values of a loaded configuration file into the
// options. Flags given on the command line or through the environment keep
// their value.
func (opts *Options) ApplyConfig(cfg *configapi.WorkflowExecutionControllerConfig) {
	if cfg == nil {
		return
	}
	if es := cfg.Execution; es != nil {
		opts.setString("execution-namespace", &opts.ExecutionNamespace, es.Namespace)
		opts.setString("default-service-account", &opts.DefaultServiceAccount, es.DefaultServiceAccount)
	}
	if cs := cfg.Cooldown; cs != nil {
		opts.setDuration("cooldown-period", &opts.CooldownPeriod, cs.Period)
		opts.setInt("max-backoff-exponent", &opts.MaxBackoffExponent, cs.MaxBackoffExponent)
		opts.setDuration("max-cooldown-period", &opts.MaxCooldownPeriod, cs.MaxPeriod)
		opts.setDuration("backoff-state-retention", &opts.BackoffStateRetention, cs.StateRetention)
	}
	if rs := cfg.Reconciler; rs != nil {
		opts.setInt("max-concurrent-reconciles", &opts.MaxConcurrentReconciles, rs.MaxConcurrentReconciles)
		opts.setDuration("api-timeout", &opts.APITimeout, rs.APITimeout)
		opts.setDuration("status-poll-interval", &opts.StatusPollInterval, rs.StatusPollInterval)
		opts.setDuration("retry-base-delay", &opts.RetryBaseDelay, rs.RetryBaseDelay)
		opts.setDuration("retry-max-delay", &opts.RetryMaxDelay, rs.RetryMaxDelay)
	}
}

func (opts *Options) Validate() error {
	if opts.ExecutionNamespace == "" {
		return fmt.Errorf("required %q flag not set", "execution-namespace")
	}
	if opts.DefaultServiceAccount == "" {
		return fmt.Errorf("required %q flag not set", "default-service-account")
	}
	if err := opts.Calculator().Validate(); err != nil {
		return fmt.Errorf("invalid cooldown settings - %w", err)
	}
	if opts.BackoffStateRetention <= 0 {
		return fmt.Errorf("flag %q must be positive", "backoff-state-retention")
	}
	if opts.MaxConcurrentReconciles < 1 {
		return fmt.Errorf("flag %q must be at least 1", "max-concurrent-reconciles")
	}
	if opts.APITimeout <= 0 || opts.StatusPollInterval <= 0 {
		return fmt.Errorf("flags %q and %q must be positive", "api-timeout", "status-poll-interval")
	}
	if opts.RetryBaseDelay <= 0 || opts.RetryMaxDelay < opts.RetryBaseDelay {
		return fmt.Errorf("flag %q must be positive and not greater than %q", "retry-base-delay", "retry-max-delay")
	}
	if opts.AuditBufferSize < 1 {
		return fmt.Errorf("flag %q must be at least 1", "audit-buffer-size")
	}
	if opts.EnableLeaderElection && opts.LeaderElectionID == "" {
		return errors.New("leader-election-id must be set when leader election is enabled")
	}
	for name, port := range map[string]int{
		"metrics-port":      opts.MetricsPort,
		"health-probe-port": opts.HealthProbePort,
		"grpc-health-port":  opts.GRPCHealthPort,
	} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port number %d in %q", port, name)
		}
	}
	if opts.ConfigText != "" && opts.ConfigFile != "" {
		return fmt.Errorf("both the %q and %q flags can not be set at the same time", "configText", "configFile")
	}

	return nil
}

// Calculator returns the cooldown calculator described by the options.
func (opts *Options) Calculator() *cooldown.Calculator {
	return cooldown.NewCalculator(opts.CooldownPeriod, int32(opts.MaxBackoffExponent), opts.MaxCooldownPeriod)
}

// ControllerConfig returns the reconciler settings described by the options.
func (opts *Options) ControllerConfig() controller.Config {
	return controller.Config{
		ExecutionNamespace:      opts.ExecutionNamespace,
		DefaultServiceAccount:   opts.DefaultServiceAccount,
		APITimeout:              opts.APITimeout,
		StatusPollInterval:      opts.StatusPollInterval,
		MaxConcurrentReconciles: opts.MaxConcurrentReconciles,
		RetryBaseDelay:          opts.RetryBaseDelay,
		RetryMaxDelay:           opts.RetryMaxDelay,
	}
}

func (opts *Options) changed(name string) bool {
	if opts.fs == nil {
		return false
	}
	f := opts.fs.Lookup(name)
	return f != nil && f.Changed
}

func (opts *Options) setString(name string, dst *string, value string) {
	if value != "" && !opts.changed(name) {
		*dst = value
	}
}

func (opts *Options) setDuration(name string, dst *time.Duration, value *metav1.Duration) {
	if value != nil && !opts.changed(name) {
		*dst = value.Duration
	}
}

func (opts *Options) setInt(name string, dst *int, value *int32) {
	if value != nil && !opts.changed(name) {
		*dst = int(*value)
	}
}
