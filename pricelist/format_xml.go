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
	"strings"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
	"<", "&lt;",
	">", "&gt;",
)

// emitXML writes the price document. The categories block is already
// rendered and may be empty for the volumes that omit it.
func emitXML(out io.Writer, items []*Item, cols []*column, categories string) error {
	w := newChunkWriter(out)
	w.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<price>")
	w.WriteString(categories)
	w.WriteString("<products>")
	for _, it := range items {
		w.WriteString("<product")
		for _, col := range cols {
			switch col.kind {
			case colString:
				w.Printf(" %s=\"%s\"", xmlEscaper.Replace(col.name), xmlEscaper.Replace(col.str(it)))
			case colMoney:
				w.Printf(" %s=\"%.2f\"", xmlEscaper.Replace(col.name), col.money(it))
			default:
				w.Printf(" %s=\"%d\"", xmlEscaper.Replace(col.name), col.index(it))
			}
		}
		w.WriteString("/>")
	}
	w.WriteString("</products></price>")
	return w.Close()
}

type category struct {
	id     uint32
	name   string
	parent uint32
}

// fetchCategories renders the localized catalog tree. Roots hang off the
// synthetic parent 1.
func fetchCategories(in querier, lang Lang) (string, bool) {
	query := "SELECT categoryid as id, name_ua as name, parent FROM SC_categories where disabled=0 ORDER BY sort_order"
	if lang == LangRU {
		query = "SELECT categoryid as id, name_ru as name, parent FROM SC_categories where disabled=0 ORDER BY sort_order"
	}
	rows, ok := in.Query(query)
	if !ok {
		return "", false
	}
	defer rows.Close()

	var cats []category
	for rows.Next() {
		var c category
		if err := rows.Scan(&c.id, &c.name, &c.parent); err != nil {
			return "", false
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return "", false
	}

	var b strings.Builder
	b.WriteString("<categories>")
	for _, c := range cats {
		if c.parent != 1 {
			continue
		}
		children := buildCategoryTree(cats, c.id)
		if children == "" {
			fmt.Fprintf(&b, "<category id=\"%d\" name=\"%s\"/>", c.id, xmlEscaper.Replace(c.name))
		} else {
			fmt.Fprintf(&b, "<category id=\"%d\" name=\"%s\">%s</category>", c.id, xmlEscaper.Replace(c.name), children)
		}
	}
	b.WriteString("</categories>")
	return b.String(), true
}

func buildCategoryTree(cats []category, parent uint32) string {
	var b strings.Builder
	for _, c := range cats {
		if c.parent != parent {
			continue
		}
		children := buildCategoryTree(cats, c.id)
		if children == "" {
			fmt.Fprintf(&b, "<subcategory id=\"%d\" name=\"%s\"/>", c.id, xmlEscaper.Replace(c.name))
		} else {
			fmt.Fprintf(&b, "<subcategory id=\"%d\" name=\"%s\">%s</subcategory>", c.id, xmlEscaper.Replace(c.name), children)
		}
	}
	return b.String()
}
