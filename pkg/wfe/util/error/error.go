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

package error

import (
	"errors"
	"fmt"
)

// Error is an error struct for errors returned by the workflow execution controller.
type Error struct {
	Code string
	Msg  string
}

const (
	Unknown = "Unknown"
	// Validation errors come from a request or job the API server would never accept.
	Validation = "Validation"
	// Transient errors come from the API server or the executor and are retried with backoff.
	Transient = "Transient"
	// ExternalInterference means something outside the controller removed or replaced its job.
	ExternalInterference = "ExternalInterference"
	// Fatal errors mean the controller cannot go on. At startup the process exits.
	Fatal = "Fatal"
)

// Error returns a string version of the error.
func (e Error) Error() string {
	return fmt.Sprintf("workflow execution: %s - %s", e.Code, e.Msg)
}

// CanonicalCode returns the error's ErrorCode, looking through wrapped errors.
func CanonicalCode(err error) string {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}

// IsTransient returns true if the error should be retried with backoff.
func IsTransient(err error) bool {
	return CanonicalCode(err) == Transient
}

// IsTerminal returns true if retrying cannot change the outcome of err.
func IsTerminal(err error) bool {
	switch CanonicalCode(err) {
	case Validation, ExternalInterference, Fatal:
		return true
	}
	return false
}
