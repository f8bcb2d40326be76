package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// ParsedTag is the structured form of one `db:"..."` struct tag, consumed
// by DeriveScheme when a Scheme is built from a tagged Go struct instead
// of declared field by field.
type ParsedTag struct {
	ColumnName string
	Skip       bool   // db:"-"
	Type       string // explicit column type override

	Null       bool
	NotNull    bool
	Default    string
	Primary    bool
	UniqueSet  bool
	Unique     string // "" for a simple unique, otherwise a constraint name
	IndexSet   bool
	Index      string // "" for a simple index, otherwise an index name
	ForeignKey string // target scheme (optionally scheme.field)

	MinLength *int
	MaxLength *int
	Enum      []string

	AutoNowAdd bool
	AutoNow    bool

	AutoGenerate bool
	Generator    string // registry name: uuid, ulid, snowflake
}

// ShouldAutoGenerate reports whether the field wants an auto-generated id.
func (tag *ParsedTag) ShouldAutoGenerate() bool {
	return tag.AutoGenerate || tag.Generator != ""
}

// TagParser parses `db` tags, caching results per (field, tag) pair since
// the same struct types are derived repeatedly.
type TagParser struct {
	naming  NamingStrategy
	cache   map[string]*ParsedTag
	cacheMu sync.RWMutex
}

func NewTagParser(naming NamingStrategy) *TagParser {
	return &TagParser{
		naming: naming,
		cache:  make(map[string]*ParsedTag, 128),
	}
}

// ParseTag parses fieldName's `db` tag. Supported syntax:
//
//	`db:"column_name"`
//	`db:"column:custom_name"`
//	`db:"column_name;unique;not_null"`
//	`db:"primary;unique;not_null"`
//	`db:"type:varchar(255);default:''"`
//	`db:"generator:uuid"`
//	`db:"-"`
//
// A missing tag derives the column name from fieldName via the naming
// strategy, and so does a tag whose first segment is a flag or a key:value
// pair; a first segment that is neither names the column. Unknown flags
// and keys after the first segment are ignored.
func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	tagValue := tag.Get("db")
	if tagValue == "" {
		return &ParsedTag{ColumnName: p.naming.ColumnName(fieldName)}, nil
	}

	cacheKey := fieldName + ":" + tagValue
	p.cacheMu.RLock()
	if cached, ok := p.cache[cacheKey]; ok {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	parsed, err := p.parseTagValue(fieldName, tagValue)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fieldName, err)
	}

	p.cacheMu.Lock()
	p.cache[cacheKey] = parsed
	p.cacheMu.Unlock()
	return parsed, nil
}

func (p *TagParser) parseTagValue(fieldName, tagValue string) (*ParsedTag, error) {
	if tagValue == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{ColumnName: p.naming.ColumnName(fieldName)}

	// bare column name, the common case
	if !strings.ContainsAny(tagValue, ";:") {
		parsed.ColumnName = tagValue
		return parsed, nil
	}

	for i, option := range strings.Split(tagValue, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		if err := p.parseOption(parsed, option, i == 0); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

func (p *TagParser) parseOption(tag *ParsedTag, option string, first bool) error {
	if colonIdx := strings.IndexByte(option, ':'); colonIdx != -1 {
		return p.parseKeyValue(tag, strings.TrimSpace(option[:colonIdx]), strings.TrimSpace(option[colonIdx+1:]))
	}

	switch option {
	case "primary", "primary_key":
		tag.Primary = true
	case "unique":
		tag.UniqueSet = true
	case "index":
		tag.IndexSet = true
	case "null":
		tag.Null = true
	case "not_null", "not null":
		tag.NotNull = true
	case "auto_now_add":
		tag.AutoNowAdd = true
	case "auto_now":
		tag.AutoNow = true
	case "auto_generate", "auto":
		tag.AutoGenerate = true
	default:
		if first {
			tag.ColumnName = option
		}
	}
	return nil
}

func (p *TagParser) parseKeyValue(tag *ParsedTag, key, value string) error {
	switch key {
	case "column", "name":
		tag.ColumnName = value
	case "type":
		tag.Type = value
	case "default":
		tag.Default = value
	case "unique":
		tag.UniqueSet = true
		tag.Unique = value
	case "index":
		tag.IndexSet = true
		tag.Index = value
	case "fk", "foreign_key", "references":
		tag.ForeignKey = value
	case "generator", "gen":
		tag.Generator = value
		tag.AutoGenerate = true
	case "min_length", "min_len":
		return parseIntValue(value, &tag.MinLength, "min_length")
	case "max_length", "max_len":
		return parseIntValue(value, &tag.MaxLength, "max_length")
	case "enum", "in":
		sep := ","
		if strings.Contains(value, "|") {
			sep = "|"
		}
		tag.Enum = strings.Split(value, sep)
		for i, v := range tag.Enum {
			tag.Enum[i] = strings.TrimSpace(v)
		}
	}
	return nil
}

func parseIntValue(value string, target **int, key string) error {
	val, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: must be integer", key, value)
	}
	if val < 0 {
		return fmt.Errorf("invalid %s value %d: must be non-negative", key, val)
	}
	*target = &val
	return nil
}
