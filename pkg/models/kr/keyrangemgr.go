package kr

import "context"

type KeyRangeMgr interface {
	ListKeyRanges(ctx context.Context, distribution string) ([]*KeyRange, error)
	CreateKeyRange(ctx context.Context, kr *KeyRange) error
	DropKeyRange(ctx context.Context, krid string) error
}
