// Package model defines the capability every embedding model offers, the
// descriptor it is built from, and a factory keyed on model kind.
package model

import (
	"context"
	"time"
)

// Model is one loaded embedding model. Implementations serialize inference
// internally; every method is safe for concurrent use.
type Model interface {
	Info() Info
	// Initialize loads the artifacts. The model is usable once it returns nil.
	Initialize(ctx context.Context) error
	IsReady() bool
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Shutdown waits for in-flight inference and releases runtime resources.
	Shutdown() error
}

// Descriptor is the immutable description a model is built from.
type Descriptor struct {
	// Name is the registry key.
	Name              string
	DisplayName       string
	Description       string
	Version           string
	Kind              string
	ModelPath         string
	TokenizerPath     string
	ConfigPath        string
	RuntimePath       string
	ExecutionProvider string
	Dimension         int
	MaxSequenceLength int
	BatchSize         int
	Threads           int
	Pooling           string
	UseGPU            bool
}

// Device returns "cuda" for GPU models and "cpu" otherwise.
func (d Descriptor) Device() string {
	if d.UseGPU {
		return "cuda"
	}
	return "cpu"
}

// Info is a read-only snapshot of a descriptor plus load status.
type Info struct {
	Name              string
	DisplayName       string
	Description       string
	Version           string
	Kind              string
	Dimension         int
	MaxSequenceLength int
	Pooling           string
	Device            string
	UsesGPU           bool
	ModelPath         string
	Loaded            bool
	LoadedAt          time.Time
}

// Info derives the snapshot of an unloaded model.
func (d Descriptor) Info() Info {
	return Info{
		Name:              d.Name,
		DisplayName:       d.DisplayName,
		Description:       d.Description,
		Version:           d.Version,
		Kind:              d.Kind,
		Dimension:         d.Dimension,
		MaxSequenceLength: d.MaxSequenceLength,
		Pooling:           d.Pooling,
		Device:            d.Device(),
		UsesGPU:           d.UseGPU,
		ModelPath:         d.ModelPath,
	}
}
