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

package loader

import (
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"sigs.k8s.io/yaml"

	configapi "github.com/jordigilh/kubernaut-sub014/api/config/v1alpha1"
)

const configKind = "WorkflowExecutionControllerConfig"

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(configapi.Install(scheme))
}

// LoadConfig decodes, defaults and validates a configuration.
func LoadConfig(configBytes []byte, logger logr.Logger) (*configapi.WorkflowExecutionControllerConfig, error) {
	cfg, err := loadRawConfig(configBytes)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", "config", cfg)

	configapi.SetDefaults_WorkflowExecutionControllerConfig(cfg)

	logger.Info("Configuration with defaults set", "config", cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("the configuration is invalid - %w", err)
	}
	return cfg, nil
}

// DumpConfig renders cfg as YAML that LoadConfig accepts.
func DumpConfig(cfg *configapi.WorkflowExecutionControllerConfig) ([]byte, error) {
	out := cfg.DeepCopy()
	out.APIVersion = configapi.GroupVersion.String()
	out.Kind = configKind
	return yaml.Marshal(out)
}

func loadRawConfig(configBytes []byte) (*configapi.WorkflowExecutionControllerConfig, error) {
	rawConfig := &configapi.WorkflowExecutionControllerConfig{}

	codecs := serializer.NewCodecFactory(scheme, serializer.EnableStrict)
	err := runtime.DecodeInto(codecs.UniversalDecoder(), configBytes, rawConfig)
	if err != nil {
		return nil, fmt.Errorf("the configuration is invalid - %w", err)
	}
	return rawConfig, nil
}
