package experimentutils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ablab/experimentutils"
)

func TestLongest(t *testing.T) {
	tests := []struct {
		name string
		vals []string
		want string
	}{
		{name: "no arguments", vals: nil, want: ""},
		{name: "single value", vals: []string{"conversion"}, want: "conversion"},
		{name: "picks longest", vals: []string{"ctr", "revenue", "bounce"}, want: "revenue"},
		{name: "first wins ties", vals: []string{"aaa", "bbb"}, want: "aaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, experimentutils.Longest(tt.vals...))
		})
	}
}
