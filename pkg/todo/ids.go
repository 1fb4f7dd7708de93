package todo

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDs generates item ids.
type IDs interface {
	Next() string
}

// Sequential numbers items prefix-1, prefix-2, ...
type Sequential struct {
	prefix string
	n      atomic.Uint64
}

// NewSequential returns a Sequential generator. An empty prefix means "item".
func NewSequential(prefix string) *Sequential {
	if prefix == "" {
		prefix = "item"
	}
	return &Sequential{prefix: prefix}
}

// Next returns the next id.
func (s *Sequential) Next() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.n.Add(1))
}

// Random generates uuid-based ids, for lists shared by several clients.
type Random struct {
	Prefix string
}

// Next returns a new random id.
func (r Random) Next() string {
	if r.Prefix == "" {
		return uuid.NewString()
	}
	return r.Prefix + "-" + uuid.NewString()
}
