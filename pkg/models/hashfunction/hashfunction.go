package hashfunction

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/city"
	"github.com/google/uuid"
	"github.com/pg-sharding/spqr-insel/qdb"
	"github.com/spaolacci/murmur3"
)

type HashFunctionType int

/* Pre-defined hash functions */
const (
	HashFunctionIdent  = HashFunctionType(0)
	HashFunctionMurmur = HashFunctionType(1)
	HashFunctionCity   = HashFunctionType(2)
)

var (
	errUnknownColumnType = func(ctype string, hf HashFunctionType) error {
		return fmt.Errorf("unknown column type '%s' for hash function '%s'", ctype, ToString(hf))
	}
	errUnknownValueType = func(v interface{}, ctype string) error {
		return fmt.Errorf("value of type %T cannot be used as '%s' distribution key", v, ctype)
	}
)

// EncodeUInt64 encodes input as a varint padded to 8 bytes, or to
// binary.MaxVarintLen64 bytes when the value does not fit into 56 bits.
func EncodeUInt64(input uint64) []byte {
	const ENCODING_BYTES_BIG = binary.MaxVarintLen64
	const ENCODING_BYTES = 8
	const BOUND = 1 << 56 /* 72057594037927936 */

	sz := ENCODING_BYTES
	if input >= BOUND {
		sz = ENCODING_BYTES_BIG
	}

	buf := make([]byte, sz)
	binary.PutUvarint(buf, input)
	return buf
}

// NormalizeValue converts a value produced by the query executor into the
// canonical Go type of the distribution column type: int64 for integer,
// uint64 for uinteger, string for varchar and uuid columns.
func NormalizeValue(v any, ctype string) (any, error) {
	switch ctype {
	case qdb.ColumnTypeInteger:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int32:
			return int64(n), nil
		case int16:
			return int64(n), nil
		case int8:
			return int64(n), nil
		case int:
			return int64(n), nil
		case string:
			return strconv.ParseInt(n, 10, 64)
		case []byte:
			return strconv.ParseInt(string(n), 10, 64)
		}
	case qdb.ColumnTypeUinteger:
		switch n := v.(type) {
		case uint64:
			return n, nil
		case uint32:
			return uint64(n), nil
		case uint:
			return uint64(n), nil
		case int64:
			if n >= 0 {
				return uint64(n), nil
			}
		case int32:
			if n >= 0 {
				return uint64(n), nil
			}
		case int:
			if n >= 0 {
				return uint64(n), nil
			}
		case string:
			return strconv.ParseUint(n, 10, 64)
		case []byte:
			return strconv.ParseUint(string(n), 10, 64)
		}
	case qdb.ColumnTypeVarchar, qdb.ColumnTypeVarcharHashed, qdb.ColumnTypeVarcharDeprecated:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	case qdb.ColumnTypeUUID:
		switch u := v.(type) {
		case string:
			return strings.ToLower(u), nil
		case []byte:
			return strings.ToLower(string(u)), nil
		case [16]byte:
			return uuid.UUID(u).String(), nil
		case uuid.UUID:
			return u.String(), nil
		}
	default:
		return nil, fmt.Errorf("unknown column type '%s'", ctype)
	}
	return nil, errUnknownValueType(v, ctype)
}

func hashBytes(hf HashFunctionType, buf []byte) uint32 {
	if hf == HashFunctionCity {
		return city.Hash32(buf)
	}
	return murmur3.Sum32(buf)
}

// applyHash hashes a normalized value with murmur or city hash.
func applyHash(input any, ctype string, hf HashFunctionType) (uint32, error) {
	switch ctype {
	case qdb.ColumnTypeInteger:
		if res, ok := input.(int64); ok {
			return hashBytes(hf, EncodeUInt64(uint64(res))), nil
		}
		return 0, fmt.Errorf("invalid type for %s '%s'", ToString(hf), qdb.ColumnTypeInteger)
	case qdb.ColumnTypeUinteger:
		if res, ok := input.(uint64); ok {
			return hashBytes(hf, EncodeUInt64(res)), nil
		}
		return 0, fmt.Errorf("invalid type for %s '%s'", ToString(hf), qdb.ColumnTypeUinteger)
	case qdb.ColumnTypeVarcharHashed, qdb.ColumnTypeVarchar, qdb.ColumnTypeUUID:
		switch v := input.(type) {
		case []byte:
			return hashBytes(hf, v), nil
		case string:
			return hashBytes(hf, []byte(v)), nil
		default:
			return 0, errUnknownValueType(input, ctype)
		}
	default:
		return 0, errUnknownColumnType(ctype, hf)
	}
}

// ApplyHashFunction applies the specified hash function to a normalized value.
// Identity returns the value itself, murmur and city return a uint64.
func ApplyHashFunction(input any, ctype string, hf HashFunctionType) (any, error) {
	switch hf {
	case HashFunctionIdent:
		if ctype == qdb.ColumnTypeUUID {
			s, ok := input.(string)
			if !ok {
				return nil, errUnknownValueType(input, ctype)
			}
			if err := uuid.Validate(strings.ToLower(s)); err != nil {
				return nil, err
			}
		}
		return input, nil
	case HashFunctionMurmur, HashFunctionCity:
		v, err := applyHash(input, ctype, hf)
		return uint64(v), err
	default:
		return nil, fmt.Errorf("unknown hash function type: %d", hf)
	}
}

// HashFunctionByName returns the corresponding HashFunctionType based on the given hash function name.
func HashFunctionByName(hfn string) (HashFunctionType, error) {
	switch hfn {
	case "identity", "ident", "":
		return HashFunctionIdent, nil
	case "murmur":
		return HashFunctionMurmur, nil
	case "city":
		return HashFunctionCity, nil
	default:
		return 0, fmt.Errorf("unknown hash function type: %s", hfn)
	}
}

// ToString converts a HashFunctionType to its corresponding string representation.
// If the input HashFunctionType is not recognized, an empty string is returned.
func ToString(hf HashFunctionType) string {
	switch hf {
	case HashFunctionIdent:
		return "identity"
	case HashFunctionMurmur:
		return "murmur"
	case HashFunctionCity:
		return "city"
	}
	return ""
}
