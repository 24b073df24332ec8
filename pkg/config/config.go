// Package config holds the automation profile: the host console's selectors,
// the page patterns, and the timing constants the engine relies on.
//
// Everything here describes the external application's markup and rendering
// behavior, so it is data, not code: a YAML profile can override any of it
// when the console's markup drifts.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the full automation profile.
type Profile struct {
	Browser   Browser   `yaml:"browser"`
	Redis     Redis     `yaml:"redis"`
	Pages     Pages     `yaml:"pages"`
	Selectors Selectors `yaml:"selectors"`
	Timing    Timing    `yaml:"timing"`
	Labels    Labels    `yaml:"labels"`
}

// Browser configures the automation session.
type Browser struct {
	// BaseURL is the host console origin, e.g. "https://console.example.com".
	BaseURL string `yaml:"base_url"`

	// Headless controls whether the browser runs without a visible window.
	// The affordance menus are meant to be clicked by a person, so the
	// default is headed.
	Headless bool `yaml:"headless"`
}

// Redis configures the relay slot backend. An empty Addr selects the
// in-process store.
type Redis struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// Pages holds the glob patterns that classify the URL fragment.
type Pages struct {
	ScheduledPattern   string `yaml:"scheduled"`
	ProcessesPattern   string `yaml:"processes"`
	ScreenshotsPattern string `yaml:"screenshots"`

	// ScheduledPath is the capture page the session opens on startup.
	ScheduledPath string `yaml:"scheduled_path"`

	// ProcessesPath and ScreenshotsPath are the fragments opened in a new
	// tab when a menu action fires.
	ProcessesPath   string `yaml:"processes_path"`
	ScreenshotsPath string `yaml:"screenshots_path"`
}

// Selectors is the host console's DOM contract. These must match the
// external application's markup exactly.
type Selectors struct {
	ScheduledRows string `yaml:"scheduled_rows"`
	InstanceRows  string `yaml:"instance_rows"`

	FilterHeader   string `yaml:"filter_header"`
	StartDateInput string `yaml:"start_date_input"`
	EndDateInput   string `yaml:"end_date_input"`

	DateRangeInput string `yaml:"daterange_input"`
	DateRangeOpen  string `yaml:"daterange_open"`
	DateRangeApply string `yaml:"daterange_apply"`

	WorkerSelect string `yaml:"worker_select"`

	ToggleButtons      string `yaml:"toggle_buttons"`
	ToggleActiveTarget string `yaml:"toggle_active_target"`
	ToggleActiveClass  string `yaml:"toggle_active_class"`

	SubmitByAction    string `yaml:"submit_by_action"`
	SubmitByTranslate string `yaml:"submit_by_translate"`
	SubmitByClass     string `yaml:"submit_by_class"`

	ScreenshotsFilterButton string `yaml:"screenshots_filter_button"`
}

// Timing holds the settle delays and wait bounds. Settle delays are
// heuristic pauses for render steps with no observable completion signal;
// anything with an observable condition goes through waitfor instead.
type Timing struct {
	ElementWait    time.Duration `yaml:"element_wait"`
	RouteSettle    time.Duration `yaml:"route_settle"`
	PanelSettle    time.Duration `yaml:"panel_settle"`
	PickerSettle   time.Duration `yaml:"picker_settle"`
	CalendarSettle time.Duration `yaml:"calendar_settle"`
	SelectSettle   time.Duration `yaml:"select_settle"`
	ToggleSettle   time.Duration `yaml:"toggle_settle"`
	SubmitSettle   time.Duration `yaml:"submit_settle"`
}

// UnmarshalYAML decodes the delays from duration strings ("500ms", "10s").
// Absent keys leave the current values, so a partial profile merges over the
// defaults like every other section.
func (t *Timing) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ElementWait    string `yaml:"element_wait"`
		RouteSettle    string `yaml:"route_settle"`
		PanelSettle    string `yaml:"panel_settle"`
		PickerSettle   string `yaml:"picker_settle"`
		CalendarSettle string `yaml:"calendar_settle"`
		SelectSettle   string `yaml:"select_settle"`
		ToggleSettle   string `yaml:"toggle_settle"`
		SubmitSettle   string `yaml:"submit_settle"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	fields := []struct {
		key string
		src string
		dst *time.Duration
	}{
		{"element_wait", raw.ElementWait, &t.ElementWait},
		{"route_settle", raw.RouteSettle, &t.RouteSettle},
		{"panel_settle", raw.PanelSettle, &t.PanelSettle},
		{"picker_settle", raw.PickerSettle, &t.PickerSettle},
		{"calendar_settle", raw.CalendarSettle, &t.CalendarSettle},
		{"select_settle", raw.SelectSettle, &t.SelectSettle},
		{"toggle_settle", raw.ToggleSettle, &t.ToggleSettle},
		{"submit_settle", raw.SubmitSettle, &t.SubmitSettle},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		d, err := time.ParseDuration(f.src)
		if err != nil {
			return fmt.Errorf("timing.%s: %w", f.key, err)
		}
		*f.dst = d
	}
	return nil
}

// Labels holds the UI text the engine matches against. Label matching is
// case-insensitive and inherently fragile to upstream text changes; a miss
// is logged, nothing more.
type Labels struct {
	StateToggle  string   `yaml:"state_toggle"`
	SubmitLabels []string `yaml:"submit_labels"`
}

// Default returns the profile matching the current host console markup.
func Default() *Profile {
	return &Profile{
		Browser: Browser{
			Headless: false,
		},
		Pages: Pages{
			ScheduledPattern:   "*/scheduled-processes*",
			ProcessesPattern:   "*/processes*",
			ScreenshotsPattern: "*/worker-mgmt-screenshot*",
			ScheduledPath:      "/scheduler/workflow/#/scheduled-processes",
			ProcessesPath:      "/scheduler/workflow/#/processes",
			ScreenshotsPath:    "/rpa-admin/#/worker-mgmt-screenshot",
		},
		Selectors: Selectors{
			ScheduledRows: `tr[ng-repeat*="scheduledProcess"]`,
			InstanceRows:  `tr[ng-repeat*="processInstance"]`,

			FilterHeader:   `#process-collapse-header`,
			StartDateInput: `input[ng-model="model.filter.param.startDateLowerBound"]`,
			EndDateInput:   `input[ng-model="model.filter.param.endDateUpperBound"]`,

			DateRangeInput: `input[type="text"][name="datetimes"]`,
			DateRangeOpen:  `.daterangepicker.show-calendar`,
			DateRangeApply: `button.applyBtn`,

			WorkerSelect: `select[ng-model="screenshottingModel"]`,

			ToggleButtons:      `.selection.toggle button`,
			ToggleActiveTarget: `.toggle-3`,
			ToggleActiveClass:  `active`,

			SubmitByAction:    `button[ng-click="searchButtonClicked(true)"]`,
			SubmitByTranslate: `button[translate="SEARCH"]`,
			SubmitByClass:     `button.btn.btn-block`,

			ScreenshotsFilterButton: `button[ng-click="showScreenshots()"]`,
		},
		Timing: Timing{
			ElementWait:    10 * time.Second,
			RouteSettle:    500 * time.Millisecond,
			PanelSettle:    300 * time.Millisecond,
			PickerSettle:   500 * time.Millisecond,
			CalendarSettle: 300 * time.Millisecond,
			SelectSettle:   200 * time.Millisecond,
			ToggleSettle:   300 * time.Millisecond,
			SubmitSettle:   200 * time.Millisecond,
		},
		Labels: Labels{
			StateToggle:  "all",
			SubmitLabels: []string{"SEARCH", "ARA"},
		},
	}
}

// Load reads a YAML profile from path and merges it over the defaults.
// A missing file is not an error; the defaults apply.
func Load(path string) (*Profile, error) {
	profile := Default()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return profile, nil
}
