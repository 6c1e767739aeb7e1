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

package runner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	healthPb "google.golang.org/grpc/health/grpc_health_v1"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/metrics/filters"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	configapi "github.com/jordigilh/kubernaut-sub014/api/config/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/internal/runnable"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/config/loader"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/metrics"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/metrics/collectors"
	runserver "github.com/jordigilh/kubernaut-sub014/pkg/wfe/server"
	errutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/error"
	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
	"github.com/jordigilh/kubernaut-sub014/version"
)

var setupLog = ctrl.Log.WithName("setup")

// NewRunner initializes a new Runner and returns its pointer.
func NewRunner() *Runner {
	return &Runner{
		executableName: "WorkflowExecution controller",
	}
}

// Runner is used to run the WorkflowExecution controller.
type Runner struct {
	executableName string
}

func (r *Runner) Run(ctx context.Context) error {
	logutil.InitSetupLogging()
	setupLog.Info(r.executableName+" build", "commit-sha", version.CommitSHA, "build-ref", version.BuildRef,
		"bundle-version", version.BundleVersion)

	opts := runserver.NewOptions()
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()
	// Environment variables only fill in flags that were not given on the command line.
	if err := opts.BindEnv(setupLog); err != nil {
		setupLog.Error(err, "Failed to bind environment variables")
		return err
	}
	if err := opts.Complete(); err != nil {
		setupLog.Error(err, "Failed to complete options")
		return err
	}
	logutil.InitLogging(&opts.ZapOptions)

	rawConfig, err := loadConfiguration(opts, setupLog)
	if err != nil {
		setupLog.Error(err, "Failed to load configuration")
		return err
	}
	opts.ApplyConfig(rawConfig)

	if err := opts.Validate(); err != nil {
		setupLog.Error(err, "Failed to validate flags")
		return err
	}

	// Print all flag values
	flags := make(map[string]any)
	pflag.VisitAll(func(f *pflag.Flag) {
		flags[f.Name] = f.Value
	})
	setupLog.Info("Flags processed", "flags", flags)

	// --- Get Kubernetes Config ---
	cfg, err := ctrl.GetConfig()
	if err != nil {
		setupLog.Error(err, "Failed to get Kubernetes rest config")
		return err
	}

	controllerCfg := runserver.ControllerConfig{}
	if err := controllerCfg.PopulateControllerConfig(cfg); err != nil {
		setupLog.Error(err, "Failed to discover served resources")
		return err
	}
	if err := controllerCfg.Validate(); err != nil {
		setupLog.Error(err, "Executor resources are not available", "code", errutil.CanonicalCode(err))
		return err
	}

	// --- Setup Manager ---
	// More info:
	// - https://pkg.go.dev/sigs.k8s.io/controller-runtime@v0.22.1/pkg/metrics/server
	// - https://book.kubebuilder.io/reference/metrics.html
	metricsServerOptions := metricsserver.Options{
		BindAddress: fmt.Sprintf(":%d", opts.MetricsPort),
		FilterProvider: func() func(c *rest.Config, httpClient *http.Client) (metricsserver.Filter, error) {
			if opts.MetricsEndpointAuth {
				return filters.WithAuthenticationAndAuthorization
			}

			return nil
		}(),
	}
	mgr, err := runserver.NewDefaultManager(opts, cfg, metricsServerOptions)
	if err != nil {
		setupLog.Error(err, "Failed to create controller manager")
		return err
	}

	if opts.EnablePprof {
		setupLog.Info("Enabling pprof handlers")
		if err := setupPprofHandlers(mgr); err != nil {
			setupLog.Error(err, "Failed to setup pprof handlers")
			return err
		}
	}

	// --- Setup Controller ---
	serverRunner := runserver.NewDefaultWorkflowExecutionRunner(opts)
	if err := serverRunner.SetupWithManager(ctx, mgr); err != nil {
		setupLog.Error(err, "Failed to setup WorkflowExecution controller")
		return err
	}

	// --- Setup Metrics ---
	metrics.Register(collectors.NewBackoffMetricsCollector(serverRunner.Datastore, serverRunner.Clock))
	metrics.RecordWorkflowExecutionInfo(version.CommitSHA, version.BuildRef)

	// --- Add Health Checks ---
	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "Failed to set up health check")
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "Failed to set up ready check")
		return err
	}

	synced, isLeader := &atomic.Bool{}, &atomic.Bool{}
	if err := registerHealthServer(mgr, ctrl.Log.WithName("health"), synced, isLeader, opts.EnableLeaderElection, opts.GRPCHealthPort); err != nil {
		return err
	}
	if err := mgr.Add(runnable.LeaderTracker(isLeader)); err != nil {
		setupLog.Error(err, "Failed to register leader tracker")
		return err
	}
	if err := mgr.Add(cacheSyncTracker(mgr.GetCache(), synced)); err != nil {
		setupLog.Error(err, "Failed to register cache sync tracker")
		return err
	}

	// --- Start Manager ---
	// This blocks until a signal is received.
	setupLog.Info("Controller manager starting")
	if err := mgr.Start(ctx); err != nil {
		setupLog.Error(err, "Error starting controller manager")
		return err
	}
	setupLog.Info("Controller manager terminated")
	return nil
}

// loadConfiguration returns the configuration given by --config-text or
// --config-file, or nil when neither is set.
func loadConfiguration(opts *runserver.Options, logger logr.Logger) (*configapi.WorkflowExecutionControllerConfig, error) {
	var configBytes []byte
	switch {
	case opts.ConfigText != "":
		configBytes = []byte(opts.ConfigText)
	case opts.ConfigFile != "":
		var err error
		configBytes, err = os.ReadFile(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from a file '%s' - %w", opts.ConfigFile, err)
		}
	default:
		return nil, nil
	}

	cfg, err := loader.LoadConfig(configBytes, logger)
	if err != nil {
		return nil, err
	}
	if dumped, err := loader.DumpConfig(cfg); err == nil {
		logger.V(logutil.VERBOSE).Info("Effective configuration file\n" + string(dumped))
	}
	return cfg, nil
}

// registerHealthServer adds the Health gRPC server as a Runnable to the given manager.
func registerHealthServer(mgr manager.Manager, logger logr.Logger, synced, isLeader *atomic.Bool, leaderElectionEnabled bool, port int) error {
	srv := grpc.NewServer()
	healthPb.RegisterHealthServer(srv, &healthServer{
		logger:                logger,
		synced:                synced,
		isLeader:              isLeader,
		leaderElectionEnabled: leaderElectionEnabled,
	})
	if err := mgr.Add(
		runnable.NoLeaderElection(runnable.GRPCServer("health", srv, port))); err != nil {
		setupLog.Error(err, "Failed to register health server")
		return err
	}
	return nil
}

// cacheSyncTracker sets synced once the informer caches have synced.
func cacheSyncTracker(c cache.Cache, synced *atomic.Bool) manager.Runnable {
	return runnable.NoLeaderElection(manager.RunnableFunc(func(ctx context.Context) error {
		if c.WaitForCacheSync(ctx) {
			synced.Store(true)
			setupLog.Info("Informer caches synced")
		}
		return nil
	}))
}

// setupPprofHandlers only implements the pre-defined profiles:
// https://cs.opensource.google/go/go/+/refs/tags/go1.24.4:src/runtime/pprof/pprof.go;l=108
func setupPprofHandlers(mgr ctrl.Manager) error {
	profiles := []string{
		"heap",
		"goroutine",
		"allocs",
		"threadcreate",
		"block",
		"mutex",
	}
	for _, p := range profiles {
		if err := mgr.AddMetricsServerExtraHandler("/debug/pprof/"+p, pprof.Handler(p)); err != nil {
			return err
		}
	}
	return nil
}
