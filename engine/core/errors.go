package core

import (
	"errors"
	"fmt"
)

var (
	ErrResourceCreation      = errors.New("device resource creation failed")
	ErrShaderCompile         = errors.New("shader compilation failed")
	ErrShaderLink            = errors.New("shader program link failed")
	ErrFramebufferIncomplete = errors.New("framebuffer incomplete")
	ErrInvalidLayout         = errors.New("invalid buffer layout")
	ErrInvalidFaceCount      = errors.New("cubemap requires exactly 6 faces")
	ErrInvalidImage          = errors.New("invalid image")
	ErrAssetRead             = errors.New("asset read failed")
	ErrUniformNotFound       = errors.New("uniform not found")
	ErrAttributeMismatch     = errors.New("vertex attribute not declared by program")
	ErrProgramNotBound       = errors.New("shader program is not current")
	ErrResourceReleased      = errors.New("device resource already released")
	ErrResourceLeak          = errors.New("device resources leaked")
	ErrFrameInFlight         = errors.New("frame already in flight")
)

// ShaderStage names a programmable pipeline stage.
type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	ShaderStageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	case ShaderStageCompute:
		return "compute"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

type ShaderCompileError struct {
	Stage ShaderStage
	Path  string
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("%s shader %q failed to compile: %s", e.Stage, e.Path, e.Log)
}

func (e *ShaderCompileError) Unwrap() error { return ErrShaderCompile }

type ShaderLinkError struct {
	Name string
	Log  string
}

func (e *ShaderLinkError) Error() string {
	return fmt.Sprintf("program %q failed to link: %s", e.Name, e.Log)
}

func (e *ShaderLinkError) Unwrap() error { return ErrShaderLink }

type FramebufferIncompleteError struct {
	Label  string
	Status string
}

func (e *FramebufferIncompleteError) Error() string {
	return fmt.Sprintf("framebuffer %s incomplete: %s", e.Label, e.Status)
}

func (e *FramebufferIncompleteError) Unwrap() error { return ErrFramebufferIncomplete }

type AssetReadError struct {
	Path string
	Err  error
}

func (e *AssetReadError) Error() string {
	return fmt.Sprintf("unable to read asset %q: %v", e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause, so
// errors.Is(err, fs.ErrNotExist) keeps working.
func (e *AssetReadError) Unwrap() []error { return []error{ErrAssetRead, e.Err} }

type InvalidFaceCountError struct {
	Count int
}

func (e *InvalidFaceCountError) Error() string {
	return fmt.Sprintf("cubemap requires exactly 6 faces, got %d", e.Count)
}

func (e *InvalidFaceCountError) Unwrap() error { return ErrInvalidFaceCount }

type ResourceCreationError struct {
	Kind string
}

func (e *ResourceCreationError) Error() string {
	return fmt.Sprintf("unable to allocate %s", e.Kind)
}

func (e *ResourceCreationError) Unwrap() error { return ErrResourceCreation }
