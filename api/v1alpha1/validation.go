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

package v1alpha1

import (
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

var paramNameRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)

// Validate checks the parts of the spec the API server schema cannot express.
func (s *WorkflowExecutionSpec) Validate() error {
	var allErrs field.ErrorList
	specPath := field.NewPath("spec")

	targetPath := specPath.Child("targetResource")
	if s.TargetResource == "" {
		allErrs = append(allErrs, field.Required(targetPath, ""))
	} else {
		parts := strings.Split(s.TargetResource, "/")
		if len(parts) < 2 || len(parts) > 3 {
			allErrs = append(allErrs, field.Invalid(targetPath, s.TargetResource, "must be namespace/kind/name or kind/name"))
		} else {
			for _, p := range parts {
				if strings.TrimSpace(p) == "" {
					allErrs = append(allErrs, field.Invalid(targetPath, s.TargetResource, "segments must not be empty"))
					break
				}
			}
		}
	}

	if s.WorkflowRef.ContainerImage == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("workflowRef", "containerImage"), ""))
	}

	for k := range s.Parameters {
		if !paramNameRegexp.MatchString(k) {
			allErrs = append(allErrs, field.Invalid(specPath.Child("parameters").Key(k), k, "must be a valid pipeline param name"))
		}
	}

	if s.ExecutionConfig != nil && s.ExecutionConfig.Timeout != nil && s.ExecutionConfig.Timeout.Duration < 0 {
		allErrs = append(allErrs, field.Invalid(specPath.Child("executionConfig", "timeout"), s.ExecutionConfig.Timeout.Duration.String(), "must not be negative"))
	}

	return allErrs.ToAggregate()
}

// BundleReference returns the image reference to resolve, pinned to the digest when one is set.
func (r WorkflowRef) BundleReference() string {
	if r.ContainerDigest == "" || strings.Contains(r.ContainerImage, "@") {
		return r.ContainerImage
	}
	return r.ContainerImage + "@" + r.ContainerDigest
}
