package kr

import (
	"fmt"
	"strconv"

	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/qdb"
)

// KeyRangeBound is a typed, possibly multi-column, key range bound.
type KeyRangeBound []any

type ShardKey struct {
	Name string
	RW   bool
}

type KeyRange struct {
	LowerBound   KeyRangeBound
	ShardID      string
	ID           string
	Distribution string

	// ColumnTypes are the bound types, one per distribution column.
	ColumnTypes []string
}

func cmpColumn(a, b any, tp string) (int, error) {
	switch tp {
	case qdb.ColumnTypeInteger:
		l, ok1 := a.(int64)
		r, ok2 := b.(int64)
		if !ok1 || !ok2 {
			break
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	case qdb.ColumnTypeUinteger, qdb.ColumnTypeVarcharHashed:
		l, ok1 := a.(uint64)
		r, ok2 := b.(uint64)
		if !ok1 || !ok2 {
			break
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	case qdb.ColumnTypeVarchar, qdb.ColumnTypeVarcharDeprecated, qdb.ColumnTypeUUID:
		l, ok1 := a.(string)
		r, ok2 := b.(string)
		if !ok1 || !ok2 {
			break
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported key range column type %s", tp)
	}
	return 0, fmt.Errorf("cannot compare %T and %T as %s", a, b, tp)
}

// CmpBounds compares two bounds column by column.
func CmpBounds(bound KeyRangeBound, other KeyRangeBound, types []string) (int, error) {
	if len(bound) != len(types) || len(other) != len(types) {
		return 0, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION,
			"key range bound arity mismatch: %d vs %d, %d column types", len(bound), len(other), len(types))
	}
	for i, tp := range types {
		c, err := cmpColumn(bound[i], other[i], tp)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

func CmpRangesLess(bound KeyRangeBound, other KeyRangeBound, types []string) bool {
	c, err := CmpBounds(bound, other, types)
	return err == nil && c < 0
}

func CmpRangesLessEqual(bound KeyRangeBound, other KeyRangeBound, types []string) bool {
	c, err := CmpBounds(bound, other, types)
	return err == nil && c <= 0
}

func CmpRangesEqual(bound KeyRangeBound, other KeyRangeBound, types []string) bool {
	c, err := CmpBounds(bound, other, types)
	return err == nil && c == 0
}

// InFunc decodes the text representation of one bound column.
func (kr *KeyRange) InFunc(attribInd int, raw []byte) error {
	switch kr.ColumnTypes[attribInd] {
	case qdb.ColumnTypeInteger:
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return err
		}
		kr.LowerBound[attribInd] = n
	case qdb.ColumnTypeUinteger, qdb.ColumnTypeVarcharHashed:
		n, err := strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			return err
		}
		kr.LowerBound[attribInd] = n
	case qdb.ColumnTypeVarchar, qdb.ColumnTypeVarcharDeprecated, qdb.ColumnTypeUUID:
		kr.LowerBound[attribInd] = string(raw)
	default:
		return fmt.Errorf("unsupported key range column type %s", kr.ColumnTypes[attribInd])
	}
	return nil
}

// OutFunc encodes one bound column into its text representation.
func (kr *KeyRange) OutFunc(attribInd int) ([]byte, error) {
	switch v := kr.LowerBound[attribInd].(type) {
	case int64:
		return []byte(strconv.FormatInt(v, 10)), nil
	case uint64:
		return []byte(strconv.FormatUint(v, 10)), nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported key range bound value %T", v)
	}
}

// KeyRangeFromDB decodes a stored key range according to the bound column types.
func KeyRangeFromDB(krdb *qdb.KeyRange, colTypes []string) (*KeyRange, error) {
	if len(krdb.LowerBound) != len(colTypes) {
		return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION,
			"key range %s has %d bound columns, distribution has %d", krdb.KeyRangeID, len(krdb.LowerBound), len(colTypes))
	}
	ret := &KeyRange{
		LowerBound:   make(KeyRangeBound, len(colTypes)),
		ShardID:      krdb.ShardID,
		ID:           krdb.KeyRangeID,
		Distribution: krdb.DistributionId,
		ColumnTypes:  colTypes,
	}
	for i, raw := range krdb.LowerBound {
		if err := ret.InFunc(i, raw); err != nil {
			return nil, spqrerror.Newf(spqrerror.SPQR_METADATA_CORRUPTION,
				"failed to decode bound of key range %s: %w", krdb.KeyRangeID, err)
		}
	}
	return ret, nil
}

func (kr *KeyRange) ToDB() (*qdb.KeyRange, error) {
	ret := &qdb.KeyRange{
		LowerBound:     make([][]byte, len(kr.LowerBound)),
		ShardID:        kr.ShardID,
		KeyRangeID:     kr.ID,
		DistributionId: kr.Distribution,
	}
	for i := range kr.LowerBound {
		raw, err := kr.OutFunc(i)
		if err != nil {
			return nil, err
		}
		ret.LowerBound[i] = raw
	}
	return ret, nil
}
