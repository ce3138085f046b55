package softgl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckShader(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantLog string
	}{
		{"valid es3", "#version 300 es\nvoid main() { }\n", ""},
		{"valid without version", "void main(void) {}", ""},
		{"empty", "  \n\t", "empty source"},
		{"bad version", "#version 450\nvoid main() {}", "'450' : version number not supported"},
		{"unclosed brace", "void main() {\n", "unexpected end of source"},
		{"stray paren", "void main() {\n  x = 1);\n}", "ERROR: 0:2: ')' : syntax error"},
		{"missing main", "void draw() {}", "Missing main()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkShader(tt.source)
			if tt.wantLog == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.wantLog)
		})
	}
}

func TestDeclaredUniforms(t *testing.T) {
	src := `#version 300 es
uniform mat4 uMVP;
uniform highp vec3 uLight;
  uniform float uWeights[4];
// uniform int uIgnored
void main() {}
`
	assert.Equal(t, map[string]string{
		"uMVP":     "mat4",
		"uLight":   "vec3",
		"uWeights": "float",
	}, declaredUniforms(src))
}
