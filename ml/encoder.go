package ml

import (
	"errors"
	"sort"
)

// Encoder is a fixed label -> integer code table for one categorical column.
type Encoder struct {
	Column  string         `json:"column"`
	Mapping map[string]int `json:"mapping"`
}

func (e *Encoder) Validate() error {
	if len(e.Mapping) == 0 {
		return errors.New("encoder mapping is empty")
	}
	return nil
}

func (e *Encoder) Encode(label string) (int, bool) {
	code, ok := e.Mapping[label]
	return code, ok
}

// Labels returns the encoded labels ordered by code.
func (e *Encoder) Labels() []string {
	labels := make([]string, 0, len(e.Mapping))
	for label := range e.Mapping {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := e.Mapping[labels[i]], e.Mapping[labels[j]]
		if ci != cj {
			return ci < cj
		}
		return labels[i] < labels[j]
	})
	return labels
}
