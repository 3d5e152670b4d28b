// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentBuildInfo(t *testing.T) {
	info := currentBuildInfo()
	assert.NotEmpty(t, info.GoVersion, "the go version is always stamped")
	assert.Contains(t, info.Platform, "/", "platform should be os/arch")
	assert.NotEmpty(t, info.Version, "version should fall back to dev")
}

func TestBuildInfoString(t *testing.T) {
	info := buildInfo{
		Version:   "v1.2.3",
		GoVersion: "go1.23.5",
		Platform:  "linux/amd64",
		Revision:  "abc1234",
		Modified:  true,
	}

	out := info.String()
	assert.Contains(t, out, "mkpkg v1.2.3")
	assert.Contains(t, out, "abc1234 (modified)")
	assert.Contains(t, out, "linux/amd64")
}

func TestBuildInfoStringWithoutRevision(t *testing.T) {
	out := buildInfo{Version: "dev", GoVersion: "go1.23.5", Platform: "darwin/arm64"}.String()
	assert.Contains(t, out, "unknown", "a missing revision should read as unknown")
}
