package schema

import (
	"fmt"
	"reflect"
	"time"
)

// DeriveScheme builds a Scheme from a tagged Go struct, the second of the
// two construction paths (the first being explicit NewScheme/AddField
// chains). Field kinds come from the Go types, constraints and generators
// from `db:"..."` tags:
//
//	type Article struct {
//		Title   string    `db:"title;not_null;max_length:200"`
//		Slug    string    `db:"slug;unique"`
//		Author  int64     `db:"fk:Author"`
//		Tags    []string  `db:"tags"`
//		Updated time.Time `db:"updated;auto_now"`
//		Token   string    `db:"generator:uuid"`
//	}
//
// Unexported and db:"-" fields are skipped. The resulting Scheme still
// needs to be added to a Set and Finalized like any hand-declared one.
func DeriveScheme(v any) (*Scheme, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: DeriveScheme needs a struct, got %T", v)
	}

	s := NewScheme(t.Name())
	parser := NewTagParser(s.naming)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		parsed, err := parser.ParseTag(sf.Name, sf.Tag)
		if err != nil {
			return nil, fmt.Errorf("schema: derive %s: %w", t.Name(), err)
		}
		if parsed.Skip {
			continue
		}

		f, err := fieldFromType(parsed, sf.Type)
		if err != nil {
			return nil, fmt.Errorf("schema: derive %s.%s: %w", t.Name(), sf.Name, err)
		}

		applyTag(f, parsed)
		s.AddField(f)
	}
	return s, nil
}

var timeType = reflect.TypeOf(time.Time{})

func fieldFromType(parsed *ParsedTag, t reflect.Type) (*Field, error) {
	name := parsed.ColumnName

	if parsed.ForeignKey != "" {
		return Object(name, parsed.ForeignKey, OnRemoveNull), nil
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch {
	case t == timeType:
		return Scalar(name, KindInteger), nil // stored as epoch milliseconds
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return Scalar(name, KindBytes), nil
	case t.Kind() == reflect.Slice:
		elem, err := scalarKind(t.Elem())
		if err != nil {
			return nil, err
		}
		return Array(name, elem), nil
	case t.Kind() == reflect.Struct:
		nested, err := DeriveScheme(reflect.New(t).Elem().Interface())
		if err != nil {
			return nil, err
		}
		return Extra(name, nested), nil
	default:
		k, err := scalarKind(t)
		if err != nil {
			return nil, err
		}
		return Scalar(name, k), nil
	}
}

func scalarKind(t reflect.Type) (Kind, error) {
	switch t.Kind() {
	case reflect.String:
		return KindText, nil
	case reflect.Bool:
		return KindBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger, nil
	case reflect.Float32, reflect.Float64:
		return KindFloat, nil
	default:
		return 0, fmt.Errorf("no field kind for Go type %s", t)
	}
}

func applyTag(f *Field, parsed *ParsedTag) {
	if parsed.NotNull || parsed.Primary {
		f.WithRequired()
	}
	if parsed.UniqueSet || parsed.Primary {
		f.WithUnique()
	}
	if parsed.IndexSet || parsed.Primary {
		f.WithIndexed()
	}
	if parsed.AutoNow || parsed.AutoNowAdd {
		f.WithAutoMTime()
	}
	if parsed.MinLength != nil || parsed.MaxLength != nil {
		f.WithLength(parsed.MinLength, parsed.MaxLength)
	}
	if len(parsed.Enum) > 0 {
		f.WithEnum(parsed.Enum...)
	}
	if parsed.ShouldAutoGenerate() {
		gen := parsed.Generator
		if gen == "" {
			gen = "uuid"
		}
		f.WithGenerator(gen)
	}
}
