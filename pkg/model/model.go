// SPDX-License-Identifier: BSD-3-Clause

package model

import (
	"time"

	"github.com/google/uuid"
)

// UID is an opaque, immutable identifier shared by devices, profiles,
// functions, modes and alerts.
type UID string

// NewUID generates a new random UID.
func NewUID() UID {
	return UID(uuid.NewString())
}

// deviceNamespace scopes NewDeterministicUID so it never collides with a
// random NewUID value.
var deviceNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("coolerd.device"))

// NewDeterministicUID derives a stable UID from key, a backend-specific
// identity string (e.g. a hwmon chip name and index). Every
// devicerepo.Repository that rediscovers the same physical device across
// restarts, or a separate process, must assign it the same UID so that
// persisted profiles, modes and alerts keyed by device UID keep resolving
// to it; a random NewUID would not survive a re-scan.
func NewDeterministicUID(key string) UID {
	return UID(uuid.NewSHA1(deviceNamespace, []byte(key)).String())
}

// Duty is an integer percentage commanded to a PWM output, 0..=100.
type Duty uint8

// Offset is a signed percentage added to a base duty, -100..=+100.
type Offset int8

// DeviceType enumerates the supported device backends.
type DeviceType string

const (
	DeviceTypeCPU           DeviceType = "CPU"
	DeviceTypeGPU           DeviceType = "GPU"
	DeviceTypeHwmon         DeviceType = "Hwmon"
	DeviceTypeLiquidctl     DeviceType = "Liquidctl"
	DeviceTypeComposite     DeviceType = "Composite"
	DeviceTypeCustomSensors DeviceType = "CustomSensors"
	DeviceTypeServicePlugin DeviceType = "ServicePlugin"
)

// DefaultTempMax is the default device.info.temp_max when unspecified.
const DefaultTempMax int16 = 100

// SpeedOptions describes a channel's PWM capabilities.
type SpeedOptions struct {
	MinDuty      Duty
	MaxDuty      Duty
	ProfilesEnabled bool
	FixedEnabled    bool
	ManualControl   bool
}

// LcdInfo describes a channel's LCD screen capabilities.
type LcdInfo struct {
	Width        int
	Height       int
	MaxImageSize int
	ModesSupport []string
}

// ChannelInfo describes the static capabilities of a device channel.
type ChannelInfo struct {
	SpeedOptions *SpeedOptions
	LcdInfo      *LcdInfo
	Label        string
}

// TempInfo describes the static metadata of a device temperature source.
type TempInfo struct {
	Label string
}

// DeviceInfo is the static, rarely-changing description of a Device.
type DeviceInfo struct {
	Channels map[string]ChannelInfo
	Temps    map[string]TempInfo
	TempMax  int16
}

// ChannelStatus is one channel's reading at a point in time.
type ChannelStatus struct {
	Name    string
	RPM     *int32
	Duty    *Duty
	Freq    *int32
	PwmMode *int32
}

// TempStatus is one temperature source's reading at a point in time.
type TempStatus struct {
	Name string
	Temp float64
}

// Status is a single snapshot of a device's channels and temperatures.
type Status struct {
	Timestamp       time.Time
	Channels        []ChannelStatus
	Temps           []TempStatus
	FirmwareVersion string
}

// ChannelStatus returns the status of the named channel, if present.
func (s Status) ChannelStatus(name string) (ChannelStatus, bool) {
	for _, c := range s.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return ChannelStatus{}, false
}

// TempStatus returns the status of the named temperature source, if present.
func (s Status) TempStatus(name string) (TempStatus, bool) {
	for _, t := range s.Temps {
		if t.Name == name {
			return t, true
		}
	}
	return TempStatus{}, false
}

// Device is a physical or virtual cooling-relevant device: CPU/GPU package,
// hwmon chip, AIO pump/fan controller, composite grouping or plugin-backed
// sensor source. It is created once during repository initialization and is
// thereafter mutated only by its owning repository (status history) and, for
// the liquidctl "asetek" disambiguation case, the settings applier.
type Device struct {
	UID        UID
	Name       string
	Type       DeviceType
	TypeIndex  uint8
	Info       DeviceInfo
	statusHist []Status
	// maxHistory bounds the length of statusHist; 0 means DefaultStatusHistory.
	maxHistory int
}

// DefaultStatusHistory bounds the number of retained Status snapshots.
const DefaultStatusHistory = 300

// NewDevice constructs a Device with an empty status history.
func NewDevice(uid UID, name string, typ DeviceType, typeIndex uint8, info DeviceInfo) *Device {
	if info.TempMax == 0 {
		info.TempMax = DefaultTempMax
	}
	return &Device{
		UID:        uid,
		Name:       name,
		Type:       typ,
		TypeIndex:  typeIndex,
		Info:       info,
		maxHistory: DefaultStatusHistory,
	}
}

// PushStatus appends a new status snapshot, trimming the history to its
// bound. Only the owning repository should call this.
func (d *Device) PushStatus(s Status) {
	max := d.maxHistory
	if max <= 0 {
		max = DefaultStatusHistory
	}
	d.statusHist = append(d.statusHist, s)
	if len(d.statusHist) > max {
		d.statusHist = d.statusHist[len(d.statusHist)-max:]
	}
}

// StatusCurrent returns the latest Status, or the zero value and false if
// none has been recorded yet.
func (d *Device) StatusCurrent() (Status, bool) {
	if len(d.statusHist) == 0 {
		return Status{}, false
	}
	return d.statusHist[len(d.statusHist)-1], true
}

// StatusHistory returns an immutable snapshot slice of the retained history,
// oldest first.
func (d *Device) StatusHistory() []Status {
	out := make([]Status, len(d.statusHist))
	copy(out, d.statusHist)
	return out
}

// RecentTemps returns up to n of the most recent temperature readings for
// the named temp source, oldest first.
func (d *Device) RecentTemps(tempName string, n int) []float64 {
	var out []float64
	for i := len(d.statusHist) - 1; i >= 0 && len(out) < n; i-- {
		if ts, ok := d.statusHist[i].TempStatus(tempName); ok {
			out = append([]float64{ts.Temp}, out...)
		}
	}
	return out
}

// ProfileType enumerates the kinds of evaluable profiles.
type ProfileType string

const (
	ProfileTypeDefault ProfileType = "Default"
	ProfileTypeGraph   ProfileType = "Graph"
	ProfileTypeMix     ProfileType = "Mix"
	ProfileTypeOverlay ProfileType = "Overlay"
)

// MixFunctionType enumerates how a Mix profile reduces its members.
type MixFunctionType string

const (
	MixFunctionMin MixFunctionType = "Min"
	MixFunctionMax MixFunctionType = "Max"
	MixFunctionAvg MixFunctionType = "Avg"
)

// TempSource identifies a temperature stream by device and temp name.
type TempSource struct {
	DeviceUID UID
	TempName  string
}

// TempPoint is one (temperature, duty) point of a graph profile's speed
// curve, prior to normalization.
type TempPoint struct {
	Temp float64
	Duty Duty
}

// OffsetPoint is one (duty, offset) point of an overlay's offset curve,
// prior to normalization.
type OffsetPoint struct {
	Duty   Duty
	Offset Offset
}

// Profile is the persisted definition of a graph, mix, overlay or default
// profile. Exactly one of the type-specific field groups below is
// populated for an active profile of each ProfileType.
type Profile struct {
	UID              UID
	Name             string
	PType            ProfileType
	TempSource       *TempSource
	SpeedProfile     []TempPoint
	FunctionUID      UID
	MemberProfileUID []UID
	MixFunctionType  MixFunctionType
	OffsetProfile    []OffsetPoint
}

// FunctionType enumerates the available temperature-to-duty preprocessors.
type FunctionType string

const (
	FunctionTypeIdentity FunctionType = "Identity"
	FunctionTypeStandard FunctionType = "Standard"
	FunctionTypeEMA      FunctionType = "ExponentialMovingAvg"
)

// DefaultSampleWindow is the EMA processor's default triangular-average
// window size, in samples.
const DefaultSampleWindow uint8 = 8

// Function holds the tuning parameters for a function processor.
type Function struct {
	UID            UID
	FType          FunctionType
	DutyMinimum    uint8
	DutyMaximum    uint8
	ResponseDelay  uint8 // seconds
	Deviance       float64
	OnlyDownward   bool
	SampleWindow   uint8
}

// Mode is a named, atomically restorable snapshot of per-device/channel
// settings.
type Mode struct {
	UID               UID
	Name              string
	AllDeviceSettings map[UID]map[string]Setting
}

// Setting is the requested policy for a single (device, channel) pair.
// Exactly one of the fields below is populated.
type Setting struct {
	SpeedFixed     *Duty
	ProfileUID     *UID
	Lcd            *LcdSettings
	Lighting       *LightingSettings
	PwmMode        *int32
	ResetToDefault bool
	// Disabled marks a channel excluded from Mode Controller diffing, per
	// the per-device settings table in the Config Store.
	Disabled bool
}

// LcdSettings is the requested LCD configuration for a channel.
type LcdSettings struct {
	Mode        string // "single_temp" or "carousel"
	TempSource  *TempSource
	Brightness  *uint8
	Orientation *uint16
	ImagesDir   string
	Interval    time.Duration
	Label       string
}

// LightingSettings is the requested lighting configuration for a channel.
type LightingSettings struct {
	Mode  string
	Color string
}

// Metric enumerates the channel values an Alert can watch.
type Metric string

const (
	MetricTemp Metric = "Temp"
	MetricDuty Metric = "Duty"
	MetricLoad Metric = "Load"
	MetricRPM  Metric = "RPM"
	MetricFreq Metric = "Freq"
)

// ChannelSource identifies the (device, channel, metric) an Alert watches.
type ChannelSource struct {
	DeviceUID   UID
	ChannelName string
	Metric      Metric
}

// AlertState enumerates the externally visible alert states. WarmUp(t) is
// represented separately (see service/alertmgr) but serializes as Inactive.
type AlertState string

const (
	AlertStateActive   AlertState = "Active"
	AlertStateInactive AlertState = "Inactive"
	AlertStateError    AlertState = "Error"
)

// Alert is a watchdog over a single measured channel value.
type Alert struct {
	UID            UID
	Name           string
	ChannelSource  ChannelSource
	Min            float64
	Max            float64
	WarmupDuration time.Duration
}

// AlertLog is one ring-buffer entry recording an alert state transition.
type AlertLog struct {
	UID       UID
	Name      string
	State     AlertState
	Message   string
	Timestamp time.Time
}

// NormalizedGraphProfile is the per-tick evaluable form of a Graph profile,
// produced once when the profile is scheduled (see pkg/profile.Normalize).
type NormalizedGraphProfile struct {
	ProfileUID   UID
	ProfileName  string
	SpeedProfile []TempPoint // normalized: see pkg/profile.Normalize
	TempSource   TempSource
	Function     Function
	PollRate     time.Duration
}

// Key returns the equality key used when NormalizedGraphProfile is used as
// a scheduling map key: equality is by profile UID only.
func (p NormalizedGraphProfile) Key() UID {
	return p.ProfileUID
}

// Binding identifies a (device, channel) pair a profile's output is fanned
// out to, tagged with the commander path it was scheduled through so that
// intermediate (Mix/Overlay member) evaluations are not themselves applied
// to hardware.
type Binding struct {
	DeviceUID   UID
	ChannelName string
	Via         BindingVia
}

// BindingVia distinguishes a direct graph schedule from one reached as a
// Mix or Overlay member, so the owning commander knows whether to fan the
// evaluated duty out to the device repository.
type BindingVia string

const (
	BindingDirect  BindingVia = "Direct"
	BindingMix     BindingVia = "Mix"
	BindingOverlay BindingVia = "Overlay"
)
