package plan

import "maps"

// SelectQuery is the SELECT part of an INSERT ... SELECT statement.
type SelectQuery struct {
	Text       string         `json:"text" yaml:"text"`
	Params     []any          `json:"params,omitempty" yaml:"params,omitempty"`
	TargetList []*TargetEntry `json:"target_list,omitempty" yaml:"target_list,omitempty"`
	// Relations read by the query.
	Relations []string          `json:"relations,omitempty" yaml:"relations,omitempty"`
	Hints     map[string]string `json:"hints,omitempty" yaml:"hints,omitempty"`
}

func copyParam(p any) any {
	switch v := p.(type) {
	case []byte:
		return append([]byte(nil), v...)
	case []any:
		ret := make([]any, len(v))
		for i := range v {
			ret[i] = copyParam(v[i])
		}
		return ret
	}
	return p
}

// Copy returns a deep copy of q which shares no mutable state with it.
func (q *SelectQuery) Copy() *SelectQuery {
	if q == nil {
		return nil
	}
	ret := &SelectQuery{
		Text:      q.Text,
		Relations: append([]string(nil), q.Relations...),
		Hints:     maps.Clone(q.Hints),
	}
	if q.Params != nil {
		ret.Params = make([]any, len(q.Params))
		for i, p := range q.Params {
			ret.Params[i] = copyParam(p)
		}
	}
	for _, te := range q.TargetList {
		cp := *te
		ret.TargetList = append(ret.TargetList, &cp)
	}
	return ret
}
