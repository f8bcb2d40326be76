package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arion-db/arion/backend"
)

func TestClassifyPgType(t *testing.T) {
	cases := map[string]backend.StorageType{
		"int8":        backend.StorageInteger,
		"int4":        backend.StorageInteger,
		"bool":        backend.StorageBoolean,
		"text":        backend.StorageText,
		"varchar":     backend.StorageText,
		"bytea":       backend.StorageBytes,
		"float8":      backend.StorageFloat,
		"numeric":     backend.StorageFloat,
		"timestamptz": backend.StorageTimestamp,
		"date":        backend.StorageTimestamp,
		"hstore":      backend.StorageCustom,
	}
	for name, want := range cases {
		assert.Equal(t, want, classifyPgType(name), name)
	}
}

func TestBuiltinOidMapCoversCoreScalars(t *testing.T) {
	m := builtinOidMap()
	assert.Equal(t, backend.StorageInteger, m[20]) // int8
	assert.Equal(t, backend.StorageText, m[25])    // text
	assert.Equal(t, backend.StorageBytes, m[17])   // bytea
	assert.Equal(t, backend.StorageFloat, m[701])  // float8
}

func TestParseNumericDigits(t *testing.T) {
	// 1234567 encoded as base-10000 digit groups [123, 4567]
	v, err := parseNumericDigits([]int16{123, 4567}, 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(1234567), v)

	// negative sign word
	v, err = parseNumericDigits([]int16{42}, 0, 0x4000, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(-42), v)

	// NaN sign word errors
	_, err = parseNumericDigits(nil, 0, 0xC000, 0)
	require.Error(t, err)
}

func TestIsolationLevelMapping(t *testing.T) {
	assert.Equal(t, "read committed", backend.ReadCommitted.String())
	assert.Equal(t, "repeatable read", backend.RepeatableRead.String())
	assert.Equal(t, "serializable", backend.Serialized.String())
}
