package common

import (
	"github.com/bwmarrin/snowflake"
)

// NewRequestIDGenerator returns a generator of time ordered request ids
// unique within the given snowflake node.
func NewRequestIDGenerator(node int64) (func() string, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return func() string {
		return n.Generate().String()
	}, nil
}
