package schema

// DefaultFunc produces a value to use when a field is absent from the input
// at create time.
type DefaultFunc func() (any, error)

// FilterFunc rewrites a value before it is validated and stored — the
// replace-filter a field can carry.
type FilterFunc func(any) (any, error)

// ViewFunc turns raw input (e.g. free text) into the derived representation
// a View or FullTextView field actually stores (a tokenized vector, a join
// row set, ...).
type ViewFunc func(any) (any, error)

// VirtualReadFunc computes a Virtual field's value from the rest of the
// object row, already resolved per Deps.
type VirtualReadFunc func(row map[string]any) (any, error)

// VirtualWriteFunc applies a write to a Virtual field by mutating the rest
// of the object row; Virtual fields have no column of their own.
type VirtualWriteFunc func(row map[string]any, value any) error

// CustomValidateFunc is the per-driver handler Custom fields delegate
// validation to.
type CustomValidateFunc func(value any) (any, error)

// Field is a typed attribute of a Scheme. Exactly the sub-fields relevant
// to Kind are meaningful; the rest are zero. Constructors below (Scalar,
// Object, SetField, Array, View, FullText, Virtual, Custom) populate a Field for
// each variant instead of exposing the struct literal directly, so
// callers can't build an inconsistent combination (e.g. an OnRemove policy
// on a Text field).
type Field struct {
	Name string
	Kind Kind

	Required     bool
	Unique       bool
	Indexed      bool
	ReadOnly     bool
	AutoMTime    bool
	ForceExclude bool

	Transform TransformHint
	MinLength *int
	MaxLength *int
	Enum      []string

	Default DefaultFunc
	Filter  FilterFunc

	// Object / Set
	Target      string // target scheme name
	OnRemove    OnRemove
	ReverseLink string // field on Target pointing back here; computed by Scheme.Finalize

	// Array
	Element Kind

	// View
	ViewFn ViewFunc
	// ViewDelta maintains a change-log shadow table for the view's rows,
	// keyed by the parent tag.
	ViewDelta bool

	// FullTextView
	FTSConfig string

	// Virtual
	VirtualRead  VirtualReadFunc
	VirtualWrite VirtualWriteFunc
	Deps         []string

	// Custom
	CustomInfo     string
	CustomValidate CustomValidateFunc

	// Extra
	Nested *Scheme
}

// Scalar declares a plain Integer/Float/Boolean/Text/Bytes/Data/Extra/File/
// Image field.
func Scalar(name string, kind Kind) *Field {
	return &Field{Name: name, Kind: kind}
}

// Extra declares a nested-struct field, recursively validated against
// nested's field list at write time. nested is used only for validation —
// it never gets its own table.
func Extra(name string, nested *Scheme) *Field {
	return &Field{Name: name, Kind: KindExtra, Nested: nested}
}

// Object declares a single foreign reference to target, with the given
// on-remove policy.
func Object(name, target string, onRemove OnRemove) *Field {
	return &Field{Name: name, Kind: KindObject, Target: target, OnRemove: onRemove}
}

// SetField declares a many-valued foreign reference to target, with the
// given on-remove policy. Named SetField rather than Set to avoid
// colliding with the Set scheme-collection type.
func SetField(name, target string, onRemove OnRemove) *Field {
	return &Field{Name: name, Kind: KindSet, Target: target, OnRemove: onRemove}
}

// Array declares a value list field whose elements are of the given
// (scalar) kind.
func Array(name string, element Kind) *Field {
	return &Field{Name: name, Kind: KindArray, Element: element}
}

// View declares a derived projection into target, populated by fn.
func View(name, target string, fn ViewFunc) *Field {
	return &Field{Name: name, Kind: KindView, Target: target, ViewFn: fn}
}

// WithViewDelta enables the view's own change-log shadow table; only
// meaningful on View fields.
func (f *Field) WithViewDelta() *Field { f.ViewDelta = true; return f }

// FullText declares an indexable tokenized text field. viewFn turns raw
// text into the stored vector at write time; config names the tokenizer
// configuration (e.g. a language).
func FullText(name, config string, viewFn ViewFunc) *Field {
	return &Field{Name: name, Kind: KindFullTextView, FTSConfig: config, ViewFn: viewFn}
}

// Virtual declares a computed field with no column of its own. deps names
// the other fields it reads to compute its value.
func Virtual(name string, read VirtualReadFunc, write VirtualWriteFunc, deps ...string) *Field {
	return &Field{Name: name, Kind: KindVirtual, VirtualRead: read, VirtualWrite: write, Deps: deps}
}

// Custom declares a field whose validation is delegated to a per-driver
// handler registered under info.
func Custom(name, info string, validate CustomValidateFunc) *Field {
	return &Field{Name: name, Kind: KindCustom, CustomInfo: info, CustomValidate: validate}
}

// WithRequired marks the field as required at create time.
func (f *Field) WithRequired() *Field { f.Required = true; return f }

// WithUnique marks the field as globally unique within its scheme.
func (f *Field) WithUnique() *Field { f.Unique = true; return f }

// WithIndexed requests a database index on this field.
func (f *Field) WithIndexed() *Field { f.Indexed = true; return f }

// WithReadOnly marks the field as settable only by the storage layer, never
// by write-path input.
func (f *Field) WithReadOnly() *Field { f.ReadOnly = true; return f }

// WithAutoMTime marks a Text/Integer field to be stamped with the current
// time on every save.
func (f *Field) WithAutoMTime() *Field { f.AutoMTime = true; return f }

// WithForceExclude marks the field to be omitted from query results unless
// explicitly requested by name.
func (f *Field) WithForceExclude() *Field { f.ForceExclude = true; return f }

// WithTransform attaches a transform hint (Alias, Email, Url, PublicKey,
// Array) used during validation.
func (f *Field) WithTransform(t TransformHint) *Field { f.Transform = t; return f }

// WithLength sets min/max length validation bounds; pass nil to leave a
// bound unset.
func (f *Field) WithLength(min, max *int) *Field { f.MinLength, f.MaxLength = min, max; return f }

// WithEnum restricts the field to one of values.
func (f *Field) WithEnum(values ...string) *Field { f.Enum = values; return f }

// WithDefault attaches a value producer used when the field is absent from
// create input.
func (f *Field) WithDefault(fn DefaultFunc) *Field { f.Default = fn; return f }

// WithFilter attaches a value rewrite applied before validation.
func (f *Field) WithFilter(fn FilterFunc) *Field { f.Filter = fn; return f }

// IsScalar reports whether the field is stored as a single column on the
// scheme's base table.
func (f *Field) IsScalar() bool { return f.Kind.IsScalar() }
