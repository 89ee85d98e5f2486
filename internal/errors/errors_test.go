package errors

import (
	"strings"
	"testing"
)

func TestErrorFormatsTypeMessageAndLocation(t *testing.T) {
	tests := []struct {
		name string
		err  *SentraError
		want []string
	}{
		{
			name: "runtime error with location",
			err:  NewRuntimeError("boom", "a.js", 3, 7),
			want: []string{"RuntimeError: boom", "at a.js:3:7"},
		},
		{
			name: "cache error stamps the pic sentinel and site offset",
			err:  NewCacheError("getter exploded", 12),
			want: []string{"CacheError: getter exploded", "at <pic>:12:0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Fatalf("expected %q in error output, got:\n%s", w, got)
				}
			}
		})
	}
}
