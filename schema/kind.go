package schema

// Kind identifies which of the field variants a Field carries. This is the
// tagged-enum shape (`Field = Scalar{T} | Object{...} |
// Set{...} | Array{...} | View{...} | FullText{...} | Virtual{...} |
// Custom{...}`), realized as a Go struct with a discriminant rather than a
// sum type, since Go has no tagged unions.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindBoolean
	KindText
	KindBytes
	KindData   // opaque structured blob, driver-encoded
	KindExtra  // nested struct, validated recursively
	KindObject // single foreign reference
	KindSet    // many foreign references
	KindArray  // value list
	KindFile
	KindImage
	KindView         // derived projection over another scheme
	KindFullTextView // indexable tokenized text
	KindVirtual      // computed read/write
	KindCustom       // user-extended
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindData:
		return "data"
	case KindExtra:
		return "extra"
	case KindObject:
		return "object"
	case KindSet:
		return "set"
	case KindArray:
		return "array"
	case KindFile:
		return "file"
	case KindImage:
		return "image"
	case KindView:
		return "view"
	case KindFullTextView:
		return "full_text_view"
	case KindVirtual:
		return "virtual"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// IsScalar reports whether values of this kind are stored directly in the
// scheme's base table column, as opposed to a side table (Set/Array/View/
// FullTextView) or something computed (Virtual).
func (k Kind) IsScalar() bool {
	switch k {
	case KindInteger, KindFloat, KindBoolean, KindText, KindBytes, KindData, KindExtra, KindObject, KindFile, KindImage:
		return true
	default:
		return false
	}
}

// TransformHint names a per-field value transform applied during
// validation, beyond the bare type check.
type TransformHint int

const (
	TransformNone TransformHint = iota
	TransformAlias
	TransformEmail
	TransformURL
	TransformPublicKey
	TransformArray
)

// OnRemove selects how Object/Set fields react when their target is
// deleted.
type OnRemove int

const (
	// OnRemoveNull sets the dependent reference to null. Default.
	OnRemoveNull OnRemove = iota
	// OnRemoveCascade deletes dependents when the referenced object is
	// deleted.
	OnRemoveCascade
	// OnRemoveRestrict raises an error if dependents exist.
	OnRemoveRestrict
	// OnRemoveReference deletes only the join-table row (Set fields only).
	OnRemoveReference
	// OnRemoveStrongReference deletes either side when the other is
	// deleted (owned 1:1 or 1:N).
	OnRemoveStrongReference
)

func (o OnRemove) String() string {
	switch o {
	case OnRemoveCascade:
		return "cascade"
	case OnRemoveRestrict:
		return "restrict"
	case OnRemoveReference:
		return "reference"
	case OnRemoveStrongReference:
		return "strong_reference"
	default:
		return "null"
	}
}

// DeltaAction enumerates the change kinds recorded in a scheme's delta
// (change-log) shadow table.
type DeltaAction int

const (
	DeltaCreate DeltaAction = iota + 1
	DeltaUpdate
	DeltaDelete
	DeltaAppend
	DeltaErase
)
