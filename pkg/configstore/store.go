// SPDX-License-Identifier: BSD-3-Clause

package configstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/coolerctl/coolerd/pkg/file"
	"github.com/coolerctl/coolerd/pkg/model"
)

const (
	modesFileName       = "modes.json"
	alertsFileName      = "alerts.json"
	definitionsFileName = "config.json"
	// AlertLogCapacity bounds the persisted alert log ring.
	AlertLogCapacity = 20
)

// Store is the single writer of the daemon's persisted configuration:
// modes, alerts and the definitions (profiles/functions/device settings)
// that back them. All mutating methods hold mu for the duration of the
// marshal-and-replace, so the store behaves as a single-actor write
// serialization point.
type Store struct {
	cfg config
	mu  sync.RWMutex

	modes       modesDocument
	alerts      alertsDocument
	definitions definitionsDocument
}

// New constructs a Store. WithDir is required.
func New(opts ...Option) (*Store, error) {
	cfg := newConfig(opts...)
	if cfg.dir == "" {
		return nil, ErrConfigDirRequired
	}
	return &Store{
		cfg:         cfg,
		definitions: definitionsDocument{DeviceSettings: make(map[model.UID]map[string]model.Setting)},
	}, nil
}

// Load reads every document present in the config directory. A missing
// file is not an error: the store starts from its zero value for that
// document, matching first-run behavior.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := loadDocument(filepath.Join(s.cfg.dir, modesFileName), &s.modes); err != nil {
		return err
	}
	if err := loadDocument(filepath.Join(s.cfg.dir, alertsFileName), &s.alerts); err != nil {
		return err
	}
	if err := loadDocument(filepath.Join(s.cfg.dir, definitionsFileName), &s.definitions); err != nil {
		return err
	}
	if s.definitions.DeviceSettings == nil {
		s.definitions.DeviceSettings = make(map[model.UID]map[string]model.Setting)
	}
	return nil
}

func loadDocument(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnmarshal, path, err)
	}
	return nil
}

func (s *Store) replace(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMarshal, name, err)
	}
	path := filepath.Join(s.cfg.dir, name)
	if err := file.ReplaceFile(path, data, s.cfg.fileMode); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, name, err)
	}
	return nil
}

// saveModesLocked persists s.modes. Callers must hold mu.
func (s *Store) saveModesLocked() error { return s.replace(modesFileName, s.modes) }

// saveAlertsLocked persists s.alerts. Callers must hold mu.
func (s *Store) saveAlertsLocked() error { return s.replace(alertsFileName, s.alerts) }

// saveDefinitionsLocked persists s.definitions. Callers must hold mu.
func (s *Store) saveDefinitionsLocked() error { return s.replace(definitionsFileName, s.definitions) }

// Modes returns a copy of every persisted mode, in their stored order.
func (s *Store) Modes() []model.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Mode, len(s.modes.Modes))
	copy(out, s.modes.Modes)
	return out
}

// ActiveMode returns the current and previous active mode UIDs, if set.
func (s *Store) ActiveMode() (current, previous *model.UID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes.CurrentActiveMode, s.modes.PreviousActiveMode
}

// SetActiveMode persists current as the active mode, shifting the prior
// current into previous. Called by the Mode Controller after a successful
// Activate.
func (s *Store) SetActiveMode(current model.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prior := s.modes.CurrentActiveMode
	s.modes.PreviousActiveMode = prior
	s.modes.CurrentActiveMode = &current
	return s.saveModesLocked()
}

// UpsertMode inserts or replaces a mode by UID, appending it to Order if new.
func (s *Store) UpsertMode(m model.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i, existing := range s.modes.Modes {
		if existing.UID == m.UID {
			s.modes.Modes[i] = m
			found = true
			break
		}
	}
	if !found {
		s.modes.Modes = append(s.modes.Modes, m)
		s.modes.Order = append(s.modes.Order, m.UID)
	}
	return s.saveModesLocked()
}

// DeleteMode removes a mode by UID and its entry from Order.
func (s *Store) DeleteMode(uid model.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes.Modes = removeMode(s.modes.Modes, uid)
	s.modes.Order = removeUID(s.modes.Order, uid)
	return s.saveModesLocked()
}

// ReorderModes persists a new Order. Every UID in order must already name
// a stored mode; callers (the IPC layer) validate this before calling.
func (s *Store) ReorderModes(order []model.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes.Order = append([]model.UID(nil), order...)
	return s.saveModesLocked()
}

// RemoveProfileFromModes scans every mode's settings for references to
// profileUID, drops them, and prunes now-empty device sub-maps.
func (s *Store) RemoveProfileFromModes(profileUID model.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for i := range s.modes.Modes {
		for deviceUID, settings := range s.modes.Modes[i].AllDeviceSettings {
			for channel, setting := range settings {
				if setting.ProfileUID != nil && *setting.ProfileUID == profileUID {
					delete(settings, channel)
					changed = true
				}
			}
			if len(settings) == 0 {
				delete(s.modes.Modes[i].AllDeviceSettings, deviceUID)
			}
		}
	}
	if !changed {
		return nil
	}
	return s.saveModesLocked()
}

// Alerts returns a copy of every persisted alert.
func (s *Store) Alerts() []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Alert, len(s.alerts.Alerts))
	copy(out, s.alerts.Alerts)
	return out
}

// AlertLogs returns a copy of the persisted alert log ring, oldest first.
func (s *Store) AlertLogs() []model.AlertLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlertLog, len(s.alerts.Logs))
	copy(out, s.alerts.Logs)
	return out
}

// UpsertAlert inserts or replaces an alert by UID.
func (s *Store) UpsertAlert(a model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.alerts.Alerts {
		if existing.UID == a.UID {
			s.alerts.Alerts[i] = a
			return s.saveAlertsLocked()
		}
	}
	s.alerts.Alerts = append(s.alerts.Alerts, a)
	return s.saveAlertsLocked()
}

// DeleteAlert removes an alert by UID.
func (s *Store) DeleteAlert(uid model.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.alerts.Alerts[:0]
	for _, a := range s.alerts.Alerts {
		if a.UID != uid {
			out = append(out, a)
		}
	}
	s.alerts.Alerts = out
	return s.saveAlertsLocked()
}

// AppendAlertLog appends a log entry, trimming the ring to AlertLogCapacity,
// and persists it.
func (s *Store) AppendAlertLog(entry model.AlertLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts.Logs = append(s.alerts.Logs, entry)
	if len(s.alerts.Logs) > AlertLogCapacity {
		s.alerts.Logs = s.alerts.Logs[len(s.alerts.Logs)-AlertLogCapacity:]
	}
	return s.saveAlertsLocked()
}

// Profiles returns a copy of every persisted profile.
func (s *Store) Profiles() []model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Profile, len(s.definitions.Profiles))
	copy(out, s.definitions.Profiles)
	return out
}

// UpsertProfile inserts or replaces a profile by UID.
func (s *Store) UpsertProfile(p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.definitions.Profiles {
		if existing.UID == p.UID {
			s.definitions.Profiles[i] = p
			return s.saveDefinitionsLocked()
		}
	}
	s.definitions.Profiles = append(s.definitions.Profiles, p)
	return s.saveDefinitionsLocked()
}

// DeleteProfile removes a profile by UID. The Mode Controller is
// responsible for calling RemoveProfileFromModes alongside this.
func (s *Store) DeleteProfile(uid model.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.definitions.Profiles[:0]
	for _, p := range s.definitions.Profiles {
		if p.UID != uid {
			out = append(out, p)
		}
	}
	s.definitions.Profiles = out
	return s.saveDefinitionsLocked()
}

// Functions returns a copy of every persisted function.
func (s *Store) Functions() []model.Function {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Function, len(s.definitions.Functions))
	copy(out, s.definitions.Functions)
	return out
}

// UpsertFunction inserts or replaces a function by UID.
func (s *Store) UpsertFunction(f model.Function) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.definitions.Functions {
		if existing.UID == f.UID {
			s.definitions.Functions[i] = f
			return s.saveDefinitionsLocked()
		}
	}
	s.definitions.Functions = append(s.definitions.Functions, f)
	return s.saveDefinitionsLocked()
}

// DeviceSettings returns the persisted per-channel settings for a device
// (notably Setting.Disabled, consulted by the Mode Controller's diff).
func (s *Store) DeviceSettings(deviceUID model.UID) map[string]model.Setting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.definitions.DeviceSettings[deviceUID]
	out := make(map[string]model.Setting, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// SetDeviceSetting persists the setting for one (device, channel) pair.
func (s *Store) SetDeviceSetting(deviceUID model.UID, channel string, setting model.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.definitions.DeviceSettings[deviceUID] == nil {
		s.definitions.DeviceSettings[deviceUID] = make(map[string]model.Setting)
	}
	s.definitions.DeviceSettings[deviceUID][channel] = setting
	return s.saveDefinitionsLocked()
}

func removeMode(modes []model.Mode, uid model.UID) []model.Mode {
	out := modes[:0]
	for _, m := range modes {
		if m.UID != uid {
			out = append(out, m)
		}
	}
	return out
}

func removeUID(uids []model.UID, uid model.UID) []model.UID {
	out := uids[:0]
	for _, u := range uids {
		if u != uid {
			out = append(out, u)
		}
	}
	return out
}
