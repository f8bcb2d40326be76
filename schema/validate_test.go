package schema

import (
	"testing"

	"github.com/arion-db/arion/arionerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateForSaveItem walks a representative Item scheme
// with a required alias text field, an int, and a text array accepts a
// matching create payload unmodified.
func TestValidateForSaveItem(t *testing.T) {
	s := NewScheme("Item")
	s.AddField(Scalar("name", KindText).WithRequired().WithTransform(TransformAlias))
	s.AddField(Scalar("qty", KindInteger))
	s.AddField(Array("tags", KindText))

	out, err := s.ValidateForSave(map[string]any{
		"name": "x",
		"qty":  3,
		"tags": []string{"a", "b"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", out["name"])
	assert.Equal(t, 3, out["qty"])
	assert.Equal(t, []string{"a", "b"}, out["tags"])
}

func TestValidateForSaveMissingRequiredFails(t *testing.T) {
	s := NewScheme("Item")
	s.AddField(Scalar("name", KindText).WithRequired())

	_, err := s.ValidateForSave(map[string]any{}, nil)
	require.Error(t, err)
	kind, ok := arionerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, arionerr.KindValidation, kind)
}

func TestValidateForSaveAppliesDefault(t *testing.T) {
	s := NewScheme("Item")
	s.AddField(Scalar("qty", KindInteger).WithDefault(func() (any, error) { return 1, nil }))

	out, err := s.ValidateForSave(map[string]any{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out["qty"])
}

func TestValidateForSaveEnforcesEnum(t *testing.T) {
	s := NewScheme("Item")
	s.AddField(Scalar("status", KindText).WithEnum("open", "closed"))

	_, err := s.ValidateForSave(map[string]any{"status": "bogus"}, nil)
	assert.Error(t, err)

	out, err := s.ValidateForSave(map[string]any{"status": "open"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "open", out["status"])
}

type recordingAlias struct {
	reserved []string
}

func (r *recordingAlias) Reserve(scheme, field, value string) error {
	r.reserved = append(r.reserved, value)
	return nil
}

func TestValidateForSaveReservesAlias(t *testing.T) {
	s := NewScheme("Item")
	s.AddField(Scalar("name", KindText).WithTransform(TransformAlias))

	rec := &recordingAlias{}
	_, err := s.ValidateForSave(map[string]any{"name": "x"}, rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, rec.reserved)
}

func TestValidateForSaveRecursesIntoExtra(t *testing.T) {
	nested := NewScheme("Address")
	nested.AddField(Scalar("city", KindText).WithRequired())

	s := NewScheme("Profile")
	s.AddField(Extra("address", nested))

	_, err := s.ValidateForSave(map[string]any{
		"address": map[string]any{},
	}, nil)
	assert.Error(t, err, "missing required nested field should fail")

	out, err := s.ValidateForSave(map[string]any{
		"address": map[string]any{"city": "Porto"},
	}, nil)
	require.NoError(t, err)
	nestedOut, ok := out["address"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Porto", nestedOut["city"])
}

func TestValidateForSaveSkipsVirtualFields(t *testing.T) {
	s := NewScheme("Item")
	s.AddField(Virtual("full_name", nil, nil))

	out, err := s.ValidateForSave(map[string]any{"full_name": "ignored"}, nil)
	require.NoError(t, err)
	_, present := out["full_name"]
	assert.False(t, present)
}
