package hashfunction_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pg-sharding/spqr-insel/pkg/models/hashfunction"
	"github.com/pg-sharding/spqr-insel/qdb"
	"github.com/stretchr/testify/assert"
)

func TestEncodeUInt64(t *testing.T) {
	tests := []struct {
		name     string
		inp      uint64
		expected []byte
	}{
		{"Zero value", 0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{"Power of two: 2^7", 128, []byte{128, 1, 0, 0, 0, 0, 0, 0}},
		{"Power of two: 2^10", 1024, []byte{128, 8, 0, 0, 0, 0, 0, 0}},
		{"Arbitrary number: 12345", 12345, []byte{185, 96, 0, 0, 0, 0, 0, 0}},
		{"Megabyte value", 1024 * 1024, []byte{128, 128, 64, 0, 0, 0, 0, 0}},
		{"Maximum 56-bit - 1 value", 1<<56 - 1, []byte{255, 255, 255, 255, 255, 255, 255, 127}},
		{"56-bit boundary", 1 << 56, []byte{128, 128, 128, 128, 128, 128, 128, 128, 1, 0}},
		{"Large number: 2^63", 1 << 63, []byte{128, 128, 128, 128, 128, 128, 128, 128, 128, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hashfunction.EncodeUInt64(tt.inp)
			assert.Equal(t, tt.expected, result, "Test '%s': EncodeUInt64 should produce the expected result", tt.name)
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	assert := assert.New(t)

	u := uuid.MustParse("4f0a1c54-8a7e-4c3d-9b44-0d5d9a4b1f10")

	for i, tt := range []struct {
		in    any
		ctype string
		exp   any
		err   bool
	}{
		{in: int32(7), ctype: qdb.ColumnTypeInteger, exp: int64(7)},
		{in: int16(-7), ctype: qdb.ColumnTypeInteger, exp: int64(-7)},
		{in: "42", ctype: qdb.ColumnTypeInteger, exp: int64(42)},
		{in: int64(5), ctype: qdb.ColumnTypeUinteger, exp: uint64(5)},
		{in: int64(-5), ctype: qdb.ColumnTypeUinteger, err: true},
		{in: []byte("abc"), ctype: qdb.ColumnTypeVarchar, exp: "abc"},
		{in: [16]byte(u), ctype: qdb.ColumnTypeUUID, exp: u.String()},
		{in: 3.14, ctype: qdb.ColumnTypeInteger, err: true},
		{in: "x", ctype: "jsonb", err: true},
	} {
		got, err := hashfunction.NormalizeValue(tt.in, tt.ctype)
		if tt.err {
			assert.Error(err, "case %d", i)
			continue
		}
		assert.NoError(err, "case %d", i)
		assert.Equal(tt.exp, got, "case %d", i)
	}
}

func TestApplyHashFunctionIsDeterministic(t *testing.T) {
	assert := assert.New(t)

	for _, hf := range []hashfunction.HashFunctionType{hashfunction.HashFunctionMurmur, hashfunction.HashFunctionCity} {
		a, err := hashfunction.ApplyHashFunction(int64(100500), qdb.ColumnTypeInteger, hf)
		assert.NoError(err)
		b, err := hashfunction.ApplyHashFunction(int64(100500), qdb.ColumnTypeInteger, hf)
		assert.NoError(err)
		assert.Equal(a, b)
		assert.IsType(uint64(0), a)

		c, err := hashfunction.ApplyHashFunction("key", qdb.ColumnTypeVarcharHashed, hf)
		assert.NoError(err)
		d, err := hashfunction.ApplyHashFunction([]byte("key"), qdb.ColumnTypeVarcharHashed, hf)
		assert.NoError(err)
		assert.Equal(c, d)
	}

	_, err := hashfunction.ApplyHashFunction(uint64(1), qdb.ColumnTypeInteger, hashfunction.HashFunctionMurmur)
	assert.Error(err)
}

func TestApplyIdentity(t *testing.T) {
	assert := assert.New(t)

	v, err := hashfunction.ApplyHashFunction(int64(3), qdb.ColumnTypeInteger, hashfunction.HashFunctionIdent)
	assert.NoError(err)
	assert.Equal(int64(3), v)

	_, err = hashfunction.ApplyHashFunction("not-a-uuid", qdb.ColumnTypeUUID, hashfunction.HashFunctionIdent)
	assert.Error(err)
}

func TestHashFunctionByName(t *testing.T) {
	assert := assert.New(t)

	for name, exp := range map[string]hashfunction.HashFunctionType{
		"":         hashfunction.HashFunctionIdent,
		"identity": hashfunction.HashFunctionIdent,
		"murmur":   hashfunction.HashFunctionMurmur,
		"city":     hashfunction.HashFunctionCity,
	} {
		hf, err := hashfunction.HashFunctionByName(name)
		assert.NoError(err)
		assert.Equal(exp, hf)
	}
	_, err := hashfunction.HashFunctionByName("sha1")
	assert.Error(err)
	assert.Equal("murmur", hashfunction.ToString(hashfunction.HashFunctionMurmur))
}
