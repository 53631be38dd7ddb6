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
	"io"
	"strings"
)

// The buyers' import scripts expect this exact dialect, including the
// escaped forward slash, so the document is assembled by hand rather
// than through encoding/json.
var jsonEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"/", `\/`,
	"\t", `\t`,
	"\n", `\n`,
	"\r", `\r`,
)

func emitJSON(out io.Writer, items []*Item, cols []*column) error {
	w := newChunkWriter(out)
	w.WriteString("{")
	for i, it := range items {
		if i > 0 {
			w.WriteString(",")
		}
		w.Printf("\"%d\":{", it.ID)
		for j, col := range cols {
			if j > 0 {
				w.WriteString(",")
			}
			switch col.kind {
			case colString:
				w.Printf("\"%s\":\"%s\"", jsonEscaper.Replace(col.name), jsonEscaper.Replace(col.str(it)))
			case colMoney:
				w.Printf("\"%s\":%.2f", jsonEscaper.Replace(col.name), col.money(it))
			default:
				w.Printf("\"%s\":%d", jsonEscaper.Replace(col.name), col.index(it))
			}
		}
		w.WriteString("}")
	}
	w.WriteString("}")
	return w.Close()
}
