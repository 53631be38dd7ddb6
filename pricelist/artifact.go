// Copyright 2024 The Brain B2B Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pricelist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// artifactTTL is how long a generated price list may be served again.
const artifactTTL = 30 * time.Minute

const artifactStamp = "20060102_150405"

func artifactName(dir string, prm *Params, stamp string) string {
	return fmt.Sprintf("%s/price_%d_%d_%d_%s_%s_%s_%s.%s", dir,
		prm.CompanyID, prm.UserID, prm.TargetID,
		prm.LangStr, prm.VolumeStr, prm.PCVingaStr, stamp, prm.FormatStr)
}

// artifactTime decodes the timestamp baked into a cached filename. The
// name splits into seven fixed fields and a tail that starts with the
// fifteen-character stamp.
func artifactTime(base string, loc *time.Location) (time.Time, bool) {
	parts := strings.SplitN(base, "_", 8)
	if len(parts) != 8 || len(parts[7]) < len(artifactStamp) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(artifactStamp, parts[7][:len(artifactStamp)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// lookupArtifact scans the cache directory for a reusable file. It keeps
// at most one fresh artifact per request shape, deleting stale and
// duplicate files as it goes. A zero code with hit=false means the
// returned path is the fresh name to generate into.
func lookupArtifact(dir string, prm *Params, now time.Time, loc *time.Location) (path string, hit bool, code uint32) {
	pattern := artifactName(dir, prm, "*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", false, 20
	}
	for _, match := range matches {
		if hit {
			if err := os.Remove(match); err != nil {
				return "", false, 21
			}
			continue
		}
		ts, ok := artifactTime(filepath.Base(match), loc)
		if ok && ts.Add(artifactTTL).After(now) {
			path = match
			hit = true
			continue
		}
		if err := os.Remove(match); err != nil {
			return "", false, 21
		}
	}
	if !hit {
		path = artifactName(dir, prm, now.In(loc).Format(artifactStamp))
	}
	return path, hit, 0
}

// writeArtifact generates into a temporary file, publishes it with an
// atomic rename, and serves the bytes read back from the final name.
func writeArtifact(path string, emit func(io.Writer) error) ([]byte, bool) {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return nil, false
	}
	if err := emit(file); err != nil {
		file.Close()
		os.Remove(tmp)
		return nil, false
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return nil, false
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}
