// SPDX-License-Identifier: BSD-3-Clause

package speedmgr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/micro"

	"github.com/coolerctl/coolerd/pkg/ipc"
	"github.com/coolerctl/coolerd/pkg/model"
)

// profileListResponse is the response body for profile.list.
type profileListResponse struct {
	Profiles []model.Profile `json:"profiles"`
}

// functionListResponse is the response body for function.list.
type functionListResponse struct {
	Functions []model.Function `json:"functions"`
}

// deviceListResponse is the response body for device.list.
type deviceListResponse struct {
	Devices []*model.Device `json:"devices"`
}

// scheduleRequest is the request body for profile.schedule.
type scheduleRequest struct {
	DeviceUID   model.UID `json:"device_uid"`
	ChannelName string    `json:"channel_name"`
	ProfileUID  model.UID `json:"profile_uid"`
}

func (s *Speedmgr) registerEndpoints() error {
	groups := make(map[string]micro.Group)

	endpoints := []struct {
		subject string
		handler micro.Handler
	}{
		{ipc.SubjectProfileList, s.wrap(s.handleProfileList)},
		{ipc.SubjectProfileUpsert, s.wrap(s.handleProfileUpsert)},
		{ipc.SubjectProfileDelete, s.wrap(s.handleProfileDelete)},
		{ipc.SubjectProfileSchedule, s.wrap(s.handleProfileSchedule)},
		{ipc.SubjectFunctionList, s.wrap(s.handleFunctionList)},
		{ipc.SubjectFunctionUpsert, s.wrap(s.handleFunctionUpsert)},
		{ipc.SubjectDeviceList, s.wrap(s.handleDeviceList)},
		{ipc.SubjectDeviceStatus, s.wrap(s.handleDeviceStatus)},
	}

	for _, e := range endpoints {
		if err := ipc.RegisterEndpointWithGroupCache(s.microService, e.subject, e.handler, groups); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrEndpointRegistrationFailed, e.subject, err)
		}
	}
	return nil
}

// wrap adapts a context-aware handler to micro.HandlerFunc.
func (s *Speedmgr) wrap(handler func(context.Context, micro.Request)) micro.HandlerFunc {
	return func(req micro.Request) {
		handler(context.Background(), req)
	}
}

func (s *Speedmgr) handleProfileList(ctx context.Context, req micro.Request) {
	resp := profileListResponse{Profiles: s.store.Profiles()}
	s.respondJSON(ctx, req, resp)
}

func (s *Speedmgr) handleProfileUpsert(ctx context.Context, req micro.Request) {
	var p model.Profile
	if err := json.Unmarshal(req.Data(), &p); err != nil {
		_ = req.Error("400", "invalid profile payload", nil)
		return
	}
	if p.UID == "" {
		p.UID = model.NewUID()
	}
	if err := s.store.UpsertProfile(p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist profile", "error", err)
		_ = req.Error("500", "failed to persist profile", nil)
		return
	}
	s.scheduler.LoadDefinitions(s.store.Profiles(), s.store.Functions())
	s.respondJSON(ctx, req, p)
}

func (s *Speedmgr) handleProfileDelete(ctx context.Context, req micro.Request) {
	var body struct {
		UID model.UID `json:"uid"`
	}
	if err := json.Unmarshal(req.Data(), &body); err != nil || body.UID == "" {
		_ = req.Error("400", "invalid delete request", nil)
		return
	}
	if err := s.store.DeleteProfile(body.UID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete profile", "error", err)
		_ = req.Error("500", "failed to delete profile", nil)
		return
	}
	if err := s.store.RemoveProfileFromModes(body.UID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clean up mode references", "error", err)
	}
	s.scheduler.LoadDefinitions(s.store.Profiles(), s.store.Functions())
	_ = req.Respond([]byte(`{"ok":true}`))
}

func (s *Speedmgr) handleProfileSchedule(ctx context.Context, req micro.Request) {
	var body scheduleRequest
	if err := json.Unmarshal(req.Data(), &body); err != nil {
		_ = req.Error("400", "invalid schedule request", nil)
		return
	}
	if err := s.scheduler.ScheduleChannel(body.DeviceUID, body.ChannelName, body.ProfileUID); err != nil {
		s.logger.WarnContext(ctx, "Failed to schedule channel", "error", err)
		_ = req.Error("422", err.Error(), nil)
		return
	}
	if err := s.store.SetDeviceSetting(body.DeviceUID, body.ChannelName, model.Setting{ProfileUID: &body.ProfileUID}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist channel setting", "error", err)
	}
	_ = req.Respond([]byte(`{"ok":true}`))
}

func (s *Speedmgr) handleFunctionList(ctx context.Context, req micro.Request) {
	resp := functionListResponse{Functions: s.store.Functions()}
	s.respondJSON(ctx, req, resp)
}

func (s *Speedmgr) handleFunctionUpsert(ctx context.Context, req micro.Request) {
	var f model.Function
	if err := json.Unmarshal(req.Data(), &f); err != nil {
		_ = req.Error("400", "invalid function payload", nil)
		return
	}
	if f.UID == "" {
		f.UID = model.NewUID()
	}
	if err := s.store.UpsertFunction(f); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist function", "error", err)
		_ = req.Error("500", "failed to persist function", nil)
		return
	}
	s.scheduler.LoadDefinitions(s.store.Profiles(), s.store.Functions())
	s.respondJSON(ctx, req, f)
}

func (s *Speedmgr) handleDeviceList(ctx context.Context, req micro.Request) {
	resp := deviceListResponse{Devices: s.registry.Devices()}
	s.respondJSON(ctx, req, resp)
}

func (s *Speedmgr) handleDeviceStatus(ctx context.Context, req micro.Request) {
	var body struct {
		DeviceUID model.UID `json:"device_uid"`
	}
	if err := json.Unmarshal(req.Data(), &body); err != nil || body.DeviceUID == "" {
		_ = req.Error("400", "invalid device status request", nil)
		return
	}
	dev, ok := s.registry.Device(body.DeviceUID)
	if !ok {
		_ = req.Error("404", "device not found", nil)
		return
	}
	status, ok := dev.StatusCurrent()
	if !ok {
		_ = req.Error("404", "no status recorded yet", nil)
		return
	}
	s.respondJSON(ctx, req, status)
}

func (s *Speedmgr) respondJSON(ctx context.Context, req micro.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal response", "error", err)
		_ = req.Error("500", "failed to marshal response", nil)
		return
	}
	if err := req.Respond(data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send response", "error", err)
	}
}
