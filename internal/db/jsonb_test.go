/*-------------------------------------------------------------------------
 *
 * jsonb_test.go
 *    Tests for JSONB column mapping
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/db/jsonb_test.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBMapScanBytes(t *testing.T) {
	var m JSONBMap
	require.NoError(t, m.Scan([]byte(`{"target_ref":"t1","count":2}`)))

	assert.Equal(t, "t1", m["target_ref"])
	assert.Equal(t, float64(2), m["count"])
}

func TestJSONBMapScanNilYieldsEmptyMap(t *testing.T) {
	var m JSONBMap
	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestJSONBMapScanRejectsUnsupportedType(t *testing.T) {
	var m JSONBMap
	assert.Error(t, m.Scan(42))
}

func TestJSONBMapValueNilIsEmptyObject(t *testing.T) {
	var m JSONBMap
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestFromMapToMapRoundTrip(t *testing.T) {
	src := map[string]interface{}{"a": "b", "n": 1}
	m := FromMap(src)
	assert.Equal(t, "b", m["a"])

	back := m.ToMap()
	assert.Equal(t, "b", back["a"])

	assert.Nil(t, FromMap(nil))
	assert.NotNil(t, JSONBMap(nil).ToMap())
}
