// Package mapper caches the struct field metadata used to map Go structs
// to EXENT objects and back.
package mapper

import (
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag key read by the mapper.
const TagName = "exent"

// Field is an exported struct field as seen by the codecs.
type Field struct {
	Name      string // key in the EXENT object
	Index     []int  // for reflect.Value.FieldByIndex
	Tagged    bool   // name came from the tag
	OmitEmpty bool
}

type structInfo struct {
	fields []Field
	exact  map[string]int
	folded map[string]int
}

// fieldCache caches a structInfo for each struct type.
var fieldCache sync.Map // map[reflect.Type]*structInfo

// Fields returns the fields of struct type t in declaration order. Fields
// of untagged embedded structs, and of embedded struct pointers, are
// promoted; on a name clash the shallower field wins. Unexported fields
// and fields tagged "-" are skipped.
func Fields(t reflect.Type) []Field {
	return cachedInfo(t).fields
}

// Lookup finds the field for key. An exact match is tried first, then a
// case-insensitive one.
func Lookup(t reflect.Type, key string) (Field, bool) {
	info := cachedInfo(t)
	if i, ok := info.exact[key]; ok {
		return info.fields[i], true
	}
	if i, ok := info.folded[strings.ToLower(key)]; ok {
		return info.fields[i], true
	}
	return Field{}, false
}

// ParseTag splits a struct tag into its name and options.
func ParseTag(tag string) (string, map[string]bool) {
	name, rest, _ := strings.Cut(tag, ",")
	opts := make(map[string]bool)
	for rest != "" {
		var opt string
		opt, rest, _ = strings.Cut(rest, ",")
		if opt = strings.TrimSpace(opt); opt != "" {
			opts[opt] = true
		}
	}
	return name, opts
}

func cachedInfo(t reflect.Type) *structInfo {
	if f, ok := fieldCache.Load(t); ok {
		return f.(*structInfo)
	}

	type candidate struct {
		Field
		depth int
	}
	var all []candidate
	visiting := make(map[reflect.Type]bool)
	var walk func(t reflect.Type, idx []int, depth int)
	walk = func(t reflect.Type, idx []int, depth int) {
		visiting[t] = true
		defer delete(visiting, t)
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get(TagName)
			if tag == "-" {
				continue
			}
			name, opts := ParseTag(tag)
			index := append(append([]int(nil), idx...), i)

			if sf.Anonymous && name == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct && !visiting[ft] {
					// Recurse into embedded structs.
					walk(ft, index, depth+1)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}

			f := Field{Name: sf.Name, Index: index, OmitEmpty: opts["omitempty"]}
			if name != "" {
				f.Name = name
				f.Tagged = true
			}
			all = append(all, candidate{Field: f, depth: depth})
		}
	}
	walk(t, nil, 0)

	best := make(map[string]int) // name -> index into all
	for i, c := range all {
		if j, ok := best[c.Name]; !ok || c.depth < all[j].depth {
			best[c.Name] = i
		}
	}

	info := &structInfo{
		exact:  make(map[string]int),
		folded: make(map[string]int),
	}
	for i, c := range all {
		if best[c.Name] != i {
			continue
		}
		info.exact[c.Name] = len(info.fields)
		lower := strings.ToLower(c.Name)
		// Do not overwrite an earlier case-insensitive match.
		if _, ok := info.folded[lower]; !ok {
			info.folded[lower] = len(info.fields)
		}
		info.fields = append(info.fields, c.Field)
	}

	actual, _ := fieldCache.LoadOrStore(t, info)
	return actual.(*structInfo)
}
