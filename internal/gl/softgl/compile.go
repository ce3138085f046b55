package softgl

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)
	mainDecl    = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(?:void\s*)?\)`)
)

var supportedVersions = map[string]bool{
	"#version 100":    true,
	"#version 300 es": true,
}

// checkShader validates source the way a driver front end would reject it
// and returns the info log, or "" when the source compiles.
//
// This is not a GLSL parser. It catches empty sources, unsupported
// #version lines, unbalanced brackets and a missing main.
func checkShader(source string) string {
	if strings.TrimSpace(source) == "" {
		return "ERROR: 0:1: '' : syntax error: empty source\n"
	}

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#version") {
			if !supportedVersions[strings.Join(strings.Fields(line), " ")] {
				return fmt.Sprintf("ERROR: 0:%d: '%s' : version number not supported\n", i+1, strings.TrimPrefix(line, "#version "))
			}
		}
		break
	}

	var stack []rune
	line := 1
	pairs := map[rune]rune{')': '(', '}': '{', ']': '['}
	for _, r := range source {
		switch r {
		case '\n':
			line++
		case '(', '{', '[':
			stack = append(stack, r)
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Sprintf("ERROR: 0:%d: '%c' : syntax error\n", line, r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Sprintf("ERROR: 0:%d: '' : syntax error: unexpected end of source\n", line)
	}

	if !mainDecl.MatchString(source) {
		return fmt.Sprintf("ERROR: 0:%d: '' : Missing main()\n", line)
	}
	return ""
}

// declaredUniforms returns name -> type for every uniform declaration.
func declaredUniforms(source string) map[string]string {
	out := make(map[string]string)
	for _, m := range uniformDecl.FindAllStringSubmatch(source, -1) {
		out[m[2]] = m[1]
	}
	return out
}
