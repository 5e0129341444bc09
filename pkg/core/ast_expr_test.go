package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnRef_Path(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{parts: []string{"id"}, want: "id"},
		{parts: []string{"t", "s", "f"}, want: "t.s.f"},
		{parts: []string{"t", "a.b"}, want: `t."a.b"`},
		{parts: []string{`x."y`}, want: `"x.""y"`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			path := (&ColumnRef{Parts: tt.parts}).Path()
			assert.Equal(t, tt.want, path)
			assert.Len(t, SplitPath(path), len(tt.parts))
		})
	}
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitPath("a.b.c"))
	assert.Equal(t, []string{"t", `"a.b"`}, SplitPath(`t."a.b"`))
	assert.Equal(t, []string{"id"}, SplitPath("id"))
}
