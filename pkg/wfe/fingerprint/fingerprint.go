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

// Package fingerprint derives stable identifiers from target resource strings.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// Length is the number of hex characters in a fingerprint.
	Length = 16

	pipelineRunPrefix = "wfe-"
)

// Of returns the first 8 bytes of the SHA-256 digest of target, hex encoded.
// The result is a valid Kubernetes label value and name segment.
func Of(target string) string {
	sum := sha256.Sum256([]byte(target))
	return hex.EncodeToString(sum[:Length/2])
}

// PipelineRunName is the deterministic PipelineRun name for target. Two
// requests for the same target always race on this name.
func PipelineRunName(target string) string {
	return pipelineRunPrefix + Of(target)
}
