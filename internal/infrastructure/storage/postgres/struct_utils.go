package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the "db" tags of T in field order, descending
// into embedded structs. Repositories call it once at construction.
//
//	columns := ExtractDBColumns[currency.Currency]()
//	// ["id", "code", "name", "is_base", "rate"]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataFor(reflect.TypeOf(zero))
	return meta.columns(reflect.TypeOf(zero))
}

type fieldInfo struct {
	index int
	dbTag string
}

// typeMetadata is the cached view of a struct's tagged fields.
type typeMetadata struct {
	fields   []fieldInfo
	embedded []int
}

func (m *typeMetadata) columns(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	cols := make([]string, 0, len(m.fields))
	for _, idx := range m.embedded {
		ft := t.Field(idx).Type
		cols = append(cols, metadataFor(ft).columns(ft)...)
	}
	for _, fi := range m.fields {
		cols = append(cols, fi.dbTag)
	}
	return cols
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.embedded = append(meta.embedded, i)
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
		}
	}

	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

// StructToMap converts a struct (or pointer to one) into column values
// keyed by "db" tag. Untagged fields are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	res := make(map[string]any)
	collectValues(rv, res)
	return res
}

// collectValues walks embedded structs as values, so exported fields
// promoted from an unexported embedded type stay readable.
func collectValues(rv reflect.Value, res map[string]any) {
	meta := metadataFor(rv.Type())
	for _, idx := range meta.embedded {
		ev := rv.Field(idx)
		if ev.Kind() == reflect.Ptr {
			if ev.IsNil() {
				continue
			}
			ev = ev.Elem()
		}
		if ev.Kind() == reflect.Struct {
			collectValues(ev, res)
		}
	}
	for _, fi := range meta.fields {
		res[fi.dbTag] = rv.Field(fi.index).Interface()
	}
}
