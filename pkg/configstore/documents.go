// SPDX-License-Identifier: BSD-3-Clause

package configstore

import "github.com/coolerctl/coolerd/pkg/model"

// modesDocument is the on-disk shape of modes.json.
type modesDocument struct {
	Modes              []model.Mode `json:"modes"`
	Order              []model.UID  `json:"order"`
	CurrentActiveMode  *model.UID   `json:"current_active_mode,omitempty"`
	PreviousActiveMode *model.UID   `json:"previous_active_mode,omitempty"`
}

// alertsDocument is the on-disk shape of alerts.json: the alert definitions
// and the alert log ring.
type alertsDocument struct {
	Alerts []model.Alert    `json:"alerts"`
	Logs   []model.AlertLog `json:"logs"`
}

// definitionsDocument holds the config-store-owned definitions that sit
// alongside modes and alerts but have no dedicated file of their own:
// profiles, functions, and the per-device channel settings (notably the
// Disabled flag the Mode Controller's diff step consults).
type definitionsDocument struct {
	Profiles       []model.Profile                        `json:"profiles"`
	Functions      []model.Function                       `json:"functions"`
	DeviceSettings map[model.UID]map[string]model.Setting `json:"device_settings"`
}
