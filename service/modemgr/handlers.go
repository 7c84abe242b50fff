// SPDX-License-Identifier: BSD-3-Clause

package modemgr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/micro"

	"github.com/coolerctl/coolerd/pkg/ipc"
	"github.com/coolerctl/coolerd/pkg/model"
)

// modeListResponse is the response body for mode.list.
type modeListResponse struct {
	Modes []model.Mode `json:"modes"`
}

// activeModeResponse is the response body for mode.active.
type activeModeResponse struct {
	Current  *model.UID `json:"current"`
	Previous *model.UID `json:"previous"`
}

// activateRequest is the request body for mode.activate.
type activateRequest struct {
	UID model.UID `json:"uid"`
}

// reorderRequest is the request body for mode.reorder.
type reorderRequest struct {
	Order []model.UID `json:"order"`
}

func (m *Modemgr) registerEndpoints() error {
	groups := make(map[string]micro.Group)

	endpoints := []struct {
		subject string
		handler micro.Handler
	}{
		{ipc.SubjectModeList, m.wrap(m.handleModeList)},
		{ipc.SubjectModeUpsert, m.wrap(m.handleModeUpsert)},
		{ipc.SubjectModeDelete, m.wrap(m.handleModeDelete)},
		{ipc.SubjectModeActivate, m.wrap(m.handleModeActivate)},
		{ipc.SubjectModeReorder, m.wrap(m.handleModeReorder)},
		{ipc.SubjectModeActive, m.wrap(m.handleModeActive)},
	}

	for _, e := range endpoints {
		if err := ipc.RegisterEndpointWithGroupCache(m.microService, e.subject, e.handler, groups); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEndpointRegistrationFailed, e.subject, err)
		}
	}
	return nil
}

// wrap adapts a context-aware handler to micro.HandlerFunc.
func (m *Modemgr) wrap(handler func(context.Context, micro.Request)) micro.HandlerFunc {
	return func(req micro.Request) {
		handler(context.Background(), req)
	}
}

func (m *Modemgr) handleModeList(ctx context.Context, req micro.Request) {
	resp := modeListResponse{Modes: m.store.Modes()}
	m.respondJSON(ctx, req, resp)
}

func (m *Modemgr) handleModeUpsert(ctx context.Context, req micro.Request) {
	var mode model.Mode
	if err := json.Unmarshal(req.Data(), &mode); err != nil {
		_ = req.Error("400", "invalid mode payload", nil)
		return
	}
	if mode.UID == "" {
		mode.UID = model.NewUID()
	}
	if err := m.store.UpsertMode(mode); err != nil {
		m.logger.ErrorContext(ctx, "Failed to persist mode", "error", err)
		_ = req.Error("500", "failed to persist mode", nil)
		return
	}
	m.respondJSON(ctx, req, mode)
}

func (m *Modemgr) handleModeDelete(ctx context.Context, req micro.Request) {
	var body struct {
		UID model.UID `json:"uid"`
	}
	if err := json.Unmarshal(req.Data(), &body); err != nil || body.UID == "" {
		_ = req.Error("400", "invalid delete request", nil)
		return
	}
	if err := m.store.DeleteMode(body.UID); err != nil {
		m.logger.ErrorContext(ctx, "Failed to delete mode", "error", err)
		_ = req.Error("500", "failed to delete mode", nil)
		return
	}
	_ = req.Respond([]byte(`{"ok":true}`))
}

func (m *Modemgr) handleModeActivate(ctx context.Context, req micro.Request) {
	var body activateRequest
	if err := json.Unmarshal(req.Data(), &body); err != nil || body.UID == "" {
		_ = req.Error("400", "invalid activate request", nil)
		return
	}
	if err := m.Activate(ctx, body.UID); err != nil {
		m.logger.WarnContext(ctx, "Failed to activate mode", "mode", body.UID, "error", err)
		_ = req.Error("422", err.Error(), nil)
		return
	}
	_ = req.Respond([]byte(`{"ok":true}`))
}

func (m *Modemgr) handleModeReorder(ctx context.Context, req micro.Request) {
	var body reorderRequest
	if err := json.Unmarshal(req.Data(), &body); err != nil {
		_ = req.Error("400", "invalid reorder request", nil)
		return
	}
	if err := m.store.ReorderModes(body.Order); err != nil {
		m.logger.ErrorContext(ctx, "Failed to persist mode order", "error", err)
		_ = req.Error("500", "failed to persist mode order", nil)
		return
	}
	_ = req.Respond([]byte(`{"ok":true}`))
}

func (m *Modemgr) handleModeActive(ctx context.Context, req micro.Request) {
	current, previous := m.store.ActiveMode()
	m.respondJSON(ctx, req, activeModeResponse{Current: current, Previous: previous})
}

func (m *Modemgr) respondJSON(ctx context.Context, req micro.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to marshal response", "error", err)
		_ = req.Error("500", "failed to marshal response", nil)
		return
	}
	if err := req.Respond(data); err != nil {
		m.logger.ErrorContext(ctx, "Failed to send response", "error", err)
	}
}
