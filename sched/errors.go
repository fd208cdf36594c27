package sched

import (
	"fmt"

	"github.com/acescore/render/graph"
)

const prefix = "sched: "

// PipelineNotFoundError means the shader library has no pipeline
// (and no registered source) for a node's shader key.
type PipelineNotFoundError struct{ Shader string }

func (e *PipelineNotFoundError) Error() string {
	return prefix + "pipeline not found: " + e.Shader
}

// TextureAllocationFailedError wraps a texpool.Acquire failure.
type TextureAllocationFailedError struct {
	Node string
	Err  error
}

func (e *TextureAllocationFailedError) Error() string {
	return fmt.Sprintf(prefix+"texture allocation failed for %s: %v", e.Node, e.Err)
}
func (e *TextureAllocationFailedError) Unwrap() error { return e.Err }

// CommandBufferFailedError wraps a driver-level command buffer error.
type CommandBufferFailedError struct{ Err error }

func (e *CommandBufferFailedError) Error() string {
	return fmt.Sprintf(prefix+"command buffer failed: %v", e.Err)
}
func (e *CommandBufferFailedError) Unwrap() error { return e.Err }

// InputResolutionMismatchError is raised only under
// RequireExplicitAdapters when a mismatched edge has no safe
// clamped read.
type InputResolutionMismatchError struct {
	NodeName string
	Port     graph.PortName
}

func (e *InputResolutionMismatchError) Error() string {
	return fmt.Sprintf(prefix+"input resolution mismatch at port %s", e.Port)
}

// KernelDispatchFailedError wraps a NodeExecutor failure.
type KernelDispatchFailedError struct {
	NodeName string
	Err      error
}

func (e *KernelDispatchFailedError) Error() string {
	return fmt.Sprintf(prefix+"kernel dispatch failed for %s: %v", e.NodeName, e.Err)
}
func (e *KernelDispatchFailedError) Unwrap() error { return e.Err }

// FrameCancelledError means the frame was unwound before completion;
// all acquired pool textures and semaphore slots have been released.
type FrameCancelledError struct{ Reason string }

func (e *FrameCancelledError) Error() string { return prefix + "frame cancelled: " + e.Reason }
