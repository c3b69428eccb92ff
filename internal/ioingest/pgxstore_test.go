package ioingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyChunks(t *testing.T) {
	tests := []struct {
		msg       string
		n         int
		batchSize int
		res       [][2]int
	}{
		{msg: "empty table", n: 0, batchSize: 10, res: nil},
		{msg: "one partial chunk", n: 3, batchSize: 10, res: [][2]int{{0, 3}}},
		{msg: "exact multiple", n: 20, batchSize: 10,
			res: [][2]int{{0, 10}, {10, 20}}},
		{msg: "trailing remainder", n: 25, batchSize: 10,
			res: [][2]int{{0, 10}, {10, 20}, {20, 25}}},
		{
			msg: "unset batch size falls back to the default",
			n:   3, batchSize: 0,
			res: [][2]int{{0, 3}},
		},
	}

	for _, v := range tests {
		assert.Equal(t, v.res, copyChunks(v.n, v.batchSize), v.msg)
	}
}
