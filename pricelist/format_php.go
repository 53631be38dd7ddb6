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

import "io"

// emitPHP writes the price list in PHP serialize() notation. String
// lengths are byte lengths, so multi-byte names unserialize correctly.
func emitPHP(out io.Writer, items []*Item, cols []*column) error {
	w := newChunkWriter(out)
	w.Printf("a:%d:{", len(items))
	for _, it := range items {
		w.Printf("i:%d;a:%d:{", it.ID, len(cols))
		for _, col := range cols {
			switch col.kind {
			case colString:
				val := col.str(it)
				w.Printf("s:%d:\"%s\";s:%d:\"%s\";", len(col.name), col.name, len(val), val)
			case colMoney:
				w.Printf("s:%d:\"%s\";d:%.2f;", len(col.name), col.name, col.money(it))
			default:
				w.Printf("s:%d:\"%s\";i:%d;", len(col.name), col.name, col.index(it))
			}
		}
		w.WriteString("}")
	}
	w.WriteString("}")
	return w.Close()
}
