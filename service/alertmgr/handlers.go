// SPDX-License-Identifier: BSD-3-Clause

package alertmgr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/micro"

	"github.com/coolerctl/coolerd/pkg/ipc"
	"github.com/coolerctl/coolerd/pkg/model"
)

// alertListResponse is the response body for alert.list.
type alertListResponse struct {
	Alerts []model.Alert `json:"alerts"`
}

// alertLogsResponse is the response body for alert.logs.
type alertLogsResponse struct {
	Logs []model.AlertLog `json:"logs"`
}

func (a *Alertmgr) registerEndpoints() error {
	groups := make(map[string]micro.Group)

	endpoints := []struct {
		subject string
		handler micro.Handler
	}{
		{ipc.SubjectAlertList, a.wrap(a.handleAlertList)},
		{ipc.SubjectAlertUpsert, a.wrap(a.handleAlertUpsert)},
		{ipc.SubjectAlertDelete, a.wrap(a.handleAlertDelete)},
		{ipc.SubjectAlertLogs, a.wrap(a.handleAlertLogs)},
	}

	for _, e := range endpoints {
		if err := ipc.RegisterEndpointWithGroupCache(a.microService, e.subject, e.handler, groups); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEndpointRegistrationFailed, e.subject, err)
		}
	}
	return nil
}

// wrap adapts a context-aware handler to micro.HandlerFunc.
func (a *Alertmgr) wrap(handler func(context.Context, micro.Request)) micro.HandlerFunc {
	return func(req micro.Request) {
		handler(context.Background(), req)
	}
}

func (a *Alertmgr) handleAlertList(ctx context.Context, req micro.Request) {
	resp := alertListResponse{Alerts: a.store.Alerts()}
	a.respondJSON(ctx, req, resp)
}

func (a *Alertmgr) handleAlertUpsert(ctx context.Context, req micro.Request) {
	var al model.Alert
	if err := json.Unmarshal(req.Data(), &al); err != nil {
		_ = req.Error("400", "invalid alert payload", nil)
		return
	}
	if al.UID == "" {
		al.UID = model.NewUID()
	}
	if err := a.store.UpsertAlert(al); err != nil {
		a.logger.ErrorContext(ctx, "Failed to persist alert", "error", err)
		_ = req.Error("500", "failed to persist alert", nil)
		return
	}
	a.loadWatchers(a.store.Alerts())
	a.respondJSON(ctx, req, al)
}

func (a *Alertmgr) handleAlertDelete(ctx context.Context, req micro.Request) {
	var body struct {
		UID model.UID `json:"uid"`
	}
	if err := json.Unmarshal(req.Data(), &body); err != nil || body.UID == "" {
		_ = req.Error("400", "invalid delete request", nil)
		return
	}
	if err := a.store.DeleteAlert(body.UID); err != nil {
		a.logger.ErrorContext(ctx, "Failed to delete alert", "error", err)
		_ = req.Error("500", "failed to delete alert", nil)
		return
	}
	a.loadWatchers(a.store.Alerts())
	_ = req.Respond([]byte(`{"ok":true}`))
}

func (a *Alertmgr) handleAlertLogs(ctx context.Context, req micro.Request) {
	resp := alertLogsResponse{Logs: a.store.AlertLogs()}
	a.respondJSON(ctx, req, resp)
}

func (a *Alertmgr) respondJSON(ctx context.Context, req micro.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to marshal response", "error", err)
		_ = req.Error("500", "failed to marshal response", nil)
		return
	}
	if err := req.Respond(data); err != nil {
		a.logger.ErrorContext(ctx, "Failed to send response", "error", err)
	}
}
