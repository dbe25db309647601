package tupleslot

import "github.com/jackc/pgx/v5/pgconn"

// TupleTableSlot buffers a result set and hands it out row by row.
type TupleTableSlot struct {
	Desc []pgconn.FieldDescription

	Rows [][]any

	cursor int
}

func (tts *TupleTableSlot) WriteDataRow(vals ...any) {
	tts.Rows = append(tts.Rows, vals)
}

// Append moves all rows of other to the end of tts. The descriptor of the
// first non-empty slot wins.
func (tts *TupleTableSlot) Append(other *TupleTableSlot) {
	if other == nil {
		return
	}
	if len(tts.Desc) == 0 {
		tts.Desc = other.Desc
	}
	tts.Rows = append(tts.Rows, other.Rows...)
}

// Next returns the next buffered row, or false when the slot is exhausted.
func (tts *TupleTableSlot) Next() ([]any, bool) {
	if tts == nil || tts.cursor >= len(tts.Rows) {
		return nil, false
	}
	row := tts.Rows[tts.cursor]
	tts.cursor++
	return row, true
}

func (tts *TupleTableSlot) Len() int {
	if tts == nil {
		return 0
	}
	return len(tts.Rows)
}

func (tts *TupleTableSlot) ColumnNames() []string {
	if tts == nil {
		return nil
	}
	ret := make([]string, len(tts.Desc))
	for i, d := range tts.Desc {
		ret[i] = d.Name
	}
	return ret
}
