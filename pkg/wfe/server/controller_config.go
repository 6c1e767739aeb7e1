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

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
	errutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/error"
)

// ControllerConfig records which executor resources the cluster serves.
type ControllerConfig struct {
	hasPipelineRun bool
	hasTaskRun     bool
}

func (cc *ControllerConfig) PopulateControllerConfig(cfg *rest.Config) error {
	dc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return err
	}
	cc.populateWithDiscovery(dc)
	return nil
}

func (cc *ControllerConfig) populateWithDiscovery(dc discovery.DiscoveryInterface) {
	cc.hasPipelineRun = gvkExists(dc, executor.PipelineRunGVK)
	cc.hasTaskRun = gvkExists(dc, executor.TaskRunGVK)
}

// Validate returns an error naming the first executor resource that is not installed.
func (cc *ControllerConfig) Validate() error {
	if !cc.hasPipelineRun {
		return errutil.Error{Code: errutil.Fatal, Msg: fmt.Sprintf("%s is not served by the API server, is Tekton Pipelines installed?", executor.PipelineRunGVK)}
	}
	if !cc.hasTaskRun {
		return errutil.Error{Code: errutil.Fatal, Msg: fmt.Sprintf("%s is not served by the API server, is Tekton Pipelines installed?", executor.TaskRunGVK)}
	}
	return nil
}

func gvkExists(dc discovery.DiscoveryInterface, gvk schema.GroupVersionKind) bool {
	apiResourceList, err := dc.ServerResourcesForGroupVersion(gvk.GroupVersion().String())
	if err != nil {
		ctrl.Log.WithName("controllerConfig").Error(err, "Checking server resources error.")
		return false
	}
	for _, r := range apiResourceList.APIResources {
		if r.Kind == gvk.Kind {
			return true
		}
	}
	return false
}
