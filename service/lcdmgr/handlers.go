// SPDX-License-Identifier: BSD-3-Clause

package lcdmgr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/micro"

	"github.com/coolerctl/coolerd/pkg/ipc"
	"github.com/coolerctl/coolerd/pkg/model"
)

// scheduleRequest is the request body for lcd.schedule.
type scheduleRequest struct {
	DeviceUID   model.UID         `json:"device_uid"`
	ChannelName string            `json:"channel_name"`
	Settings    model.LcdSettings `json:"settings"`
}

// statusResponse is the response body for lcd.status.
type statusResponse struct {
	Channels []ChannelStatus `json:"channels"`
}

func (l *Lcdmgr) registerEndpoints() error {
	groups := make(map[string]micro.Group)

	endpoints := []struct {
		subject string
		handler micro.Handler
	}{
		{ipc.SubjectLCDSchedule, l.wrap(l.handleLCDSchedule)},
		{ipc.SubjectLCDStatus, l.wrap(l.handleLCDStatus)},
	}

	for _, e := range endpoints {
		if err := ipc.RegisterEndpointWithGroupCache(l.microService, e.subject, e.handler, groups); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEndpointRegistrationFailed, e.subject, err)
		}
	}
	return nil
}

// wrap adapts a context-aware handler to micro.HandlerFunc.
func (l *Lcdmgr) wrap(handler func(context.Context, micro.Request)) micro.HandlerFunc {
	return func(req micro.Request) {
		handler(context.Background(), req)
	}
}

func (l *Lcdmgr) handleLCDSchedule(ctx context.Context, req micro.Request) {
	var body scheduleRequest
	if err := json.Unmarshal(req.Data(), &body); err != nil {
		_ = req.Error("400", "invalid schedule request", nil)
		return
	}
	if err := l.Schedule(body.DeviceUID, body.ChannelName, body.Settings); err != nil {
		l.logger.WarnContext(ctx, "Failed to schedule LCD channel", "error", err)
		_ = req.Error("422", err.Error(), nil)
		return
	}
	_ = req.Respond([]byte(`{"ok":true}`))
}

func (l *Lcdmgr) handleLCDStatus(ctx context.Context, req micro.Request) {
	var body struct {
		DeviceUID model.UID `json:"device_uid"`
	}
	if err := json.Unmarshal(req.Data(), &body); err != nil || body.DeviceUID == "" {
		_ = req.Error("400", "invalid status request", nil)
		return
	}

	l.mu.Lock()
	var channels []ChannelStatus
	for binding, sched := range l.schedules {
		if binding.DeviceUID != body.DeviceUID {
			continue
		}
		channels = append(channels, ChannelStatus{
			DeviceUID:   binding.DeviceUID,
			ChannelName: binding.ChannelName,
			Mode:        sched.settings.Mode,
			ImageCount:  len(sched.prepared),
			ImageIndex:  sched.carouselIndex,
		})
	}
	l.mu.Unlock()

	l.respondJSON(ctx, req, statusResponse{Channels: channels})
}

func (l *Lcdmgr) respondJSON(ctx context.Context, req micro.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to marshal response", "error", err)
		_ = req.Error("500", "failed to marshal response", nil)
		return
	}
	if err := req.Respond(data); err != nil {
		l.logger.ErrorContext(ctx, "Failed to send response", "error", err)
	}
}
