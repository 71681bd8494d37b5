package manager

import (
	"embedd/internal/config"
	"embedd/internal/model"
	"embedd/pkg/types"
)

// descriptorFor converts a models config entry into a model descriptor.
// The map key becomes the registry name; the display name is kept for humans.
func descriptorFor(mc config.ModelConfig) model.Descriptor {
	return model.Descriptor{
		Name:              mc.Key,
		DisplayName:       mc.Name,
		Description:       mc.Description,
		Version:           mc.Version,
		Kind:              mc.Kind,
		ModelPath:         mc.ModelPath,
		TokenizerPath:     mc.TokenizerPath,
		ConfigPath:        mc.ConfigPath,
		RuntimePath:       mc.RuntimePath,
		ExecutionProvider: mc.ExecutionProvider,
		Dimension:         mc.EmbeddingDim,
		MaxSequenceLength: mc.MaxSequenceLength,
		BatchSize:         mc.BatchSize,
		Threads:           mc.NumThreads,
		Pooling:           mc.PoolingMode,
		UseGPU:            mc.UseGPU,
	}
}

// APIModel converts a model snapshot into its API representation.
func APIModel(info model.Info) types.Model {
	out := types.Model{
		ID:                info.Name,
		Name:              info.DisplayName,
		Description:       info.Description,
		Version:           info.Version,
		Kind:              info.Kind,
		Dimension:         info.Dimension,
		MaxSequenceLength: info.MaxSequenceLength,
		Pooling:           info.Pooling,
		Device:            info.Device,
		UsesGPU:           info.UsesGPU,
		Loaded:            info.Loaded,
	}
	if out.Name == "" {
		out.Name = info.Name
	}
	if info.Loaded && !info.LoadedAt.IsZero() {
		t := info.LoadedAt
		out.LoadedAt = &t
	}
	return out
}

// APIModels converts a list of snapshots.
func APIModels(infos []model.Info) []types.Model {
	out := make([]types.Model, 0, len(infos))
	for _, info := range infos {
		out = append(out, APIModel(info))
	}
	return out
}
