//go:build pixdebug

package imageutil

import "testing"

func TestBoundsChecksPanic(t *testing.T) {
	buf := CreateSolidBuffer(4, 4, 0, 0, 0, 255)

	testCases := []struct {
		name string
		fn   func()
	}{
		{"NegativeX", func() { buf.At(-1, 0, 0) }},
		{"XPastWidth", func() { buf.At(4, 0, 0) }},
		{"YPastHeight", func() { buf.Set(0, 4, 0, 1) }},
		{"ChannelPastCount", func() { buf.At(0, 0, 4) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Expected a panic")
				}
			}()
			tc.fn()
		})
	}
}
