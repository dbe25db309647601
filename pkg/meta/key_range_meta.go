package meta

import (
	"context"

	"github.com/pg-sharding/spqr-insel/pkg/models/kr"
	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
)

// ValidateKeyRangeForCreate validates key range before create
//
// Parameters:
// - ctx: the context of the operation.
// - mngr (EntityMgr): this entity manager gets data about meta for validating key range
// - keyRange (*kr.KeyRange): key range for validating
//
// Returns:
// - error: an error if validation is not passed
func ValidateKeyRangeForCreate(ctx context.Context, mngr EntityMgr, keyRange *kr.KeyRange) error {
	if _, err := mngr.GetShardInfo(ctx, keyRange.ShardID); err != nil {
		return err
	}

	ds, err := mngr.GetDistribution(ctx, keyRange.Distribution)
	if err != nil {
		return spqrerror.New(spqrerror.SPQR_OBJECT_NOT_EXIST, "try to add key range link to a nonexistent distribution")
	}
	if len(ds.ColTypes) != len(keyRange.LowerBound) {
		return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST,
			"key range %v has %d bound columns, distribution %v has %d", keyRange.ID, len(keyRange.LowerBound), ds.Id, len(ds.ColTypes))
	}

	existsKrids, err := mngr.ListKeyRanges(ctx, keyRange.Distribution)
	if err != nil {
		return err
	}

	for _, v := range existsKrids {
		if v.ID == keyRange.ID {
			return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "key range %v already present in qdb", keyRange.ID)
		}
		if kr.CmpRangesEqual(v.LowerBound, keyRange.LowerBound, keyRange.ColumnTypes) {
			return spqrerror.Newf(spqrerror.SPQR_INVALID_REQUEST, "key range %v equals key range %v in QDB", keyRange.ID, v.ID)
		}
	}

	return nil
}

// MatchKeyRange returns the key range with the greatest lower bound that
// is less than or equal to key. Only the leading len(key) bound columns are
// compared. Nil is returned when key is below every range.
func MatchKeyRange(key kr.KeyRangeBound, types []string, krs []*kr.KeyRange) *kr.KeyRange {
	var match *kr.KeyRange
	for _, krg := range krs {
		lb := krg.LowerBound[:len(key)]
		if !kr.CmpRangesLessEqual(lb, key, types) {
			continue
		}
		if match == nil || kr.CmpRangesLess(match.LowerBound[:len(key)], lb, types) {
			match = krg
		}
	}
	return match
}
