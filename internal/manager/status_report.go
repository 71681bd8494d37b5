package manager

import (
	"time"

	"embedd/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	s := Snapshot{State: m.state, Err: m.err}
	m.mu.RUnlock()
	s.DefaultModel = m.DefaultModel()
	s.Loaded = m.reg.Names()
	return s
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	snap := m.Snapshot()
	_, breakers := m.parts()
	now := time.Now()
	resp := types.StatusResponse{
		State:          string(snap.State),
		DefaultModel:   snap.DefaultModel,
		LastError:      snap.Err,
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
		LoadsTotal:     m.loadsTotal.Load(),
		Metrics:        m.Metrics(),
	}
	infos := m.reg.Infos()
	resp.Models = make([]types.ModelStatus, 0, len(infos))
	for _, info := range infos {
		resp.Models = append(resp.Models, types.ModelStatus{
			ModelID:  info.Name,
			State:    string(StateReady),
			LoadedAt: info.LoadedAt.Unix(),
			Breaker:  breakers.state(info.Name),
		})
	}
	return resp
}
