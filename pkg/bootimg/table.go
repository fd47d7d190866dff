// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootimg

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/camelcase"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Table returns a table writer listing every header field with its offset
// in the encoded header. The caller sets the output mirror and renders.
func (h *Header) Table(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Field", "Offset", "Value"})

	v := reflect.ValueOf(*h)
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		label := strings.Join(camelcase.Split(f.Name), " ")
		t.AppendRow(table.Row{label, fmt.Sprintf("0x%02x", f.Offset), formatField(v.Field(i))})
	}
	return t
}

func formatField(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Array:
		var words []string
		for i := 0; i < v.Len(); i++ {
			words = append(words, fmt.Sprintf("%#x", v.Index(i).Uint()))
		}
		return strings.Join(words, " ")
	case reflect.Uint16:
		return fmt.Sprintf("%d", v.Uint())
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return fmt.Sprintf("%s (%d)", s, v.Uint())
	}
	return fmt.Sprintf("%#08x", v.Uint())
}
