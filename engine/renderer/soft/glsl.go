package soft

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The soft device does not execute GLSL. It scans declarations so that
// programs expose the same uniforms, inputs and blocks a driver would, and
// runs a fixed shading model over them.

type uniformDecl struct {
	Type  string
	Name  string
	Array int
}

type attribDecl struct {
	Type     string
	Name     string
	Location int32
}

type blockMember struct {
	Type   string
	Name   string
	Offset int
}

type blockDecl struct {
	Name    string
	Members []blockMember
	Size    int
}

type declarations struct {
	uniforms []uniformDecl
	inputs   []attribDecl
	blocks   []blockDecl

	// alphaCutoff is the threshold of an `if (c.a < x) discard;` test, or
	// -1 when the stage discards nothing that way.
	alphaCutoff float32
}

var (
	lineComment   = regexp.MustCompile(`//[^\n]*`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	mainFunc      = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(void)?\s*\)`)
	uniformRe     = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?uniform\s+(?:(?:highp|mediump|lowp)\s+)?(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*(?:=[^;]*)?;`)
	inputRe       = regexp.MustCompile(`(?m)^\s*(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?in\s+(\w+)\s+(\w+)\s*;`)
	uniformBlock  = regexp.MustCompile(`(?s)(?:layout\s*\([^)]*\)\s*)?uniform\s+(\w+)\s*\{(.*?)\}\s*\w*\s*;`)
	blockMemberRe = regexp.MustCompile(`(\w+)\s+(\w+)\s*;`)
	alphaDiscard  = regexp.MustCompile(`if\s*\(\s*\w+\.(?:a|w)\s*<\s*([0-9]*\.?[0-9]+)\s*\)\s*\{?\s*discard\s*;`)
)

// std140 alignment and size of the types the renderer uses.
var std140Layout = map[string]struct{ align, size int }{
	"float": {4, 4},
	"int":   {4, 4},
	"vec2":  {8, 8},
	"vec3":  {16, 12},
	"vec4":  {16, 16},
	"mat4":  {16, 64},
}

func stripComments(src string) string {
	src = blockComment.ReplaceAllString(src, "")
	return lineComment.ReplaceAllString(src, "")
}

// scan returns the declarations of one stage, or an info log in the style
// of a driver compiler when the source is unusable.
func scan(source string) (*declarations, string) {
	src := stripComments(source)
	if strings.TrimSpace(src) == "" {
		return nil, "ERROR: 0:0: '' : empty shader source"
	}
	if open, closed := strings.Count(src, "{"), strings.Count(src, "}"); open != closed {
		return nil, fmt.Sprintf("ERROR: 0:%d: '}' : unbalanced braces (%d open, %d closed)", lineCount(src), open, closed)
	}
	if !mainFunc.MatchString(src) {
		return nil, "ERROR: 0:1: 'main' : function not defined"
	}

	decl := &declarations{alphaCutoff: -1}
	if m := alphaDiscard.FindStringSubmatch(src); m != nil {
		if v, err := strconv.ParseFloat(m[1], 32); err == nil {
			decl.alphaCutoff = float32(v)
		}
	}
	for _, m := range uniformBlock.FindAllStringSubmatch(src, -1) {
		block := blockDecl{Name: m[1]}
		offset := 0
		for _, member := range blockMemberRe.FindAllStringSubmatch(m[2], -1) {
			l, ok := std140Layout[member[1]]
			if !ok {
				return nil, fmt.Sprintf("ERROR: block %s: unsupported member type %q", m[1], member[1])
			}
			offset = alignUp(offset, l.align)
			block.Members = append(block.Members, blockMember{Type: member[1], Name: member[2], Offset: offset})
			offset += l.size
		}
		block.Size = alignUp(offset, 16)
		decl.blocks = append(decl.blocks, block)
	}
	// blocks contain no plain uniforms, drop them before scanning
	src = uniformBlock.ReplaceAllString(src, "")

	for _, m := range uniformRe.FindAllStringSubmatch(src, -1) {
		u := uniformDecl{Type: m[1], Name: m[2]}
		if m[3] != "" {
			u.Array, _ = strconv.Atoi(m[3])
		}
		decl.uniforms = append(decl.uniforms, u)
	}
	for _, m := range inputRe.FindAllStringSubmatch(src, -1) {
		a := attribDecl{Type: m[2], Name: m[3], Location: -1}
		if m[1] != "" {
			loc, _ := strconv.Atoi(m[1])
			a.Location = int32(loc)
		}
		decl.inputs = append(decl.inputs, a)
	}
	return decl, ""
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}

func lineCount(src string) int {
	return strings.Count(src, "\n") + 1
}
