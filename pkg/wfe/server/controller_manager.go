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
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(v1alpha1.Install(scheme))
}

// Scheme returns the scheme shared by the manager and its clients.
func Scheme() *runtime.Scheme {
	return scheme
}

// defaultManagerOptions returns the default options used to create the manager.
// PipelineRuns and TaskRuns are only watched in the execution namespace.
// Unstructured reads are not cached, so lock checks always see the API server.
func defaultManagerOptions(opts *Options, metricsServerOptions metricsserver.Options) ctrl.Options {
	taskRun := &unstructured.Unstructured{}
	taskRun.SetGroupVersionKind(executor.TaskRunGVK)
	executionNamespace := map[string]cache.Config{opts.ExecutionNamespace: {}}

	return ctrl.Options{
		Scheme: scheme,
		Cache: cache.Options{
			ByObject: map[client.Object]cache.ByObject{
				executor.NewPipelineRun(): {Namespaces: executionNamespace},
				taskRun:                   {Namespaces: executionNamespace},
			},
		},
		Metrics:                       metricsServerOptions,
		HealthProbeBindAddress:        fmt.Sprintf(":%d", opts.HealthProbePort),
		LeaderElection:                opts.EnableLeaderElection,
		LeaderElectionID:              opts.LeaderElectionID,
		LeaderElectionReleaseOnCancel: true,
	}
}

// NewDefaultManager creates a new controller manager with default configuration.
func NewDefaultManager(opts *Options, restConfig *rest.Config, metricsServerOptions metricsserver.Options) (ctrl.Manager, error) {
	manager, err := ctrl.NewManager(restConfig, defaultManagerOptions(opts, metricsServerOptions))
	if err != nil {
		return nil, fmt.Errorf("failed to create controller manager: %v", err)
	}
	return manager, nil
}
