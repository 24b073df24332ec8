package formsync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpaops/filterrelay/pkg/browser/drivertest"
	"github.com/rpaops/filterrelay/pkg/config"
	"github.com/rpaops/filterrelay/pkg/logging"
)

// stubBridge records bridge traffic; succeed controls what it reports back.
type stubBridge struct {
	mu      sync.Mutex
	writes  []string
	applies []string
	invokes []string
	succeed bool

	// onWrite observes WriteModel calls as they happen.
	onWrite func()
}

func (b *stubBridge) WriteModel(selector, value string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, selector+"="+value)
	if b.onWrite != nil {
		b.onWrite()
	}
	return b.succeed
}

func (b *stubBridge) Apply(selector string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applies = append(b.applies, selector)
	return b.succeed
}

func (b *stubBridge) Invoke(selector, fn string, arg interface{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invokes = append(b.invokes, fmt.Sprintf("%s:%s(%v)", selector, fn, arg))
	return b.succeed
}

func testProfile() *config.Profile {
	p := config.Default()
	p.Timing.ElementWait = 300 * time.Millisecond
	p.Timing.PanelSettle = time.Millisecond
	p.Timing.PickerSettle = time.Millisecond
	p.Timing.CalendarSettle = time.Millisecond
	p.Timing.SelectSettle = time.Millisecond
	p.Timing.ToggleSettle = time.Millisecond
	p.Timing.SubmitSettle = time.Millisecond
	return p
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.NewLogger("formsync-test")
	if err != nil {
		t.Logf("file logging unavailable, using fallback: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func newEngine(t *testing.T, driver *drivertest.Driver, bridge Bridge) *Engine {
	t.Helper()
	return New(driver, bridge, testProfile(), testLogger(t))
}

func TestSetInputValueWritesNativeChannelsThenBridge(t *testing.T) {
	driver := drivertest.New()
	bridge := &stubBridge{succeed: true}

	// The bridge write must be the last, authoritative overwrite: by the
	// time it runs, the layered native write has already been evaluated.
	bridge.onWrite = func() {
		found := false
		for _, call := range driver.Evals {
			if strings.Contains(call.JS, "dispatchEvent(new Event('input'") {
				found = true
			}
		}
		assert.True(t, found, "bridge write ran before the native layered write")
	}

	engine := newEngine(t, driver, bridge)
	sel := `input[ng-model="model.filter.param.startDateLowerBound"]`

	err := engine.SetInputValue(context.Background(), sel, "2026-01-28 08:02")
	require.NoError(t, err)
	assert.Equal(t, []string{sel + "=2026-01-28 08:02"}, bridge.writes)
}

func TestSetInputValueFailsWhenInputMissing(t *testing.T) {
	driver := drivertest.New()
	driver.EvalHandler = func(js string, args []interface{}) (interface{}, bool) {
		if strings.Contains(js, "dispatchEvent(new Event('input'") {
			return false, true // input not found
		}
		return nil, false
	}

	engine := newEngine(t, driver, &stubBridge{})
	err := engine.SetInputValue(context.Background(), "input#gone", "x")
	assert.Error(t, err)
	assert.Empty(t, driver.Fills)
}

func TestSetInputValueSucceedsWithoutBridge(t *testing.T) {
	driver := drivertest.New()
	engine := newEngine(t, driver, NoBridge{})

	err := engine.SetInputValue(context.Background(), "input#a", "2026-01-28 08:16")
	assert.NoError(t, err, "native events alone must be sufficient")
}

func TestEnsureVisibleSkipsOpeningWhenAlreadyVisible(t *testing.T) {
	driver := drivertest.New()
	engine := newEngine(t, driver, &stubBridge{})

	err := engine.EnsureVisible(context.Background(), "input#target", "#opener", "openProcessFilters")
	require.NoError(t, err)
	assert.Empty(t, driver.Clicks, "visible target needs no panel opening")
}

func TestEnsureVisibleOpensPanelAndWaits(t *testing.T) {
	driver := drivertest.New()
	driver.SetVisible("input#target", false)
	bridge := &stubBridge{succeed: true}
	engine := newEngine(t, driver, bridge)

	go func() {
		time.Sleep(30 * time.Millisecond)
		driver.SetVisible("input#target", true)
	}()

	err := engine.EnsureVisible(context.Background(), "input#target", "#opener", "openProcessFilters")
	require.NoError(t, err)
	assert.Equal(t, 1, driver.ClickedCount("#opener"))
	assert.Contains(t, bridge.invokes, "#opener:openProcessFilters(<nil>)")
}

func TestEnsureVisibleTimesOut(t *testing.T) {
	driver := drivertest.New()
	driver.SetVisible("input#target", false)
	engine := newEngine(t, driver, &stubBridge{})

	err := engine.EnsureVisible(context.Background(), "input#target", "#opener", "")
	assert.Error(t, err)
}

func TestSelectByLabel(t *testing.T) {
	tests := []struct {
		name      string
		outcome   string
		found     bool
		expectErr bool
	}{
		{"label selected", "selected", true, false},
		{"label absent", "not-found", false, false},
		{"element missing", "missing", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := drivertest.New()
			driver.EvalHandler = func(js string, args []interface{}) (interface{}, bool) {
				if strings.Contains(js, "selectedIndex") {
					return tt.outcome, true
				}
				return nil, false
			}
			bridge := &stubBridge{succeed: true}
			engine := newEngine(t, driver, bridge)

			found, err := engine.SelectByLabel(context.Background(), "select#worker", "worker-03")
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.NotEmpty(t, bridge.applies, "framework notified after selection")
			}
		})
	}
}

func TestClickToggleOnlyWhenInactive(t *testing.T) {
	tests := []struct {
		name        string
		outcome     string
		expectApply bool
	}{
		{"inactive toggle clicked", "clicked", true},
		{"active toggle untouched", "already-active", false},
		{"missing toggle swallowed", "not-found", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := drivertest.New()
			driver.EvalHandler = func(js string, args []interface{}) (interface{}, bool) {
				if strings.Contains(js, "already-active") {
					return tt.outcome, true
				}
				return nil, false
			}
			bridge := &stubBridge{succeed: true}
			engine := newEngine(t, driver, bridge)

			engine.ClickToggleIfInactive(context.Background(), "all")
			if tt.expectApply {
				assert.NotEmpty(t, bridge.applies)
			} else {
				assert.Empty(t, bridge.applies)
			}
		})
	}
}

func TestClickSubmitFallbackChain(t *testing.T) {
	driver := drivertest.New()
	driver.EvalHandler = func(js string, args []interface{}) (interface{}, bool) {
		if strings.Contains(js, "return 'action'") {
			return "translate", true
		}
		if strings.Contains(js, "button.click()") {
			return true, true
		}
		return nil, false
	}
	bridge := &stubBridge{succeed: true}
	engine := newEngine(t, driver, bridge)

	engine.ClickSubmit(context.Background(), "searchButtonClicked", true)
	require.Len(t, bridge.invokes, 1)
	assert.Contains(t, bridge.invokes[0], "searchButtonClicked(true)")
}

func TestClickSubmitMissingIsSwallowed(t *testing.T) {
	driver := drivertest.New()
	driver.EvalHandler = func(js string, args []interface{}) (interface{}, bool) {
		if strings.Contains(js, "return 'action'") {
			return "not-found", true
		}
		return nil, false
	}
	bridge := &stubBridge{succeed: true}
	engine := newEngine(t, driver, bridge)

	engine.ClickSubmit(context.Background(), "searchButtonClicked", true)
	assert.Empty(t, bridge.invokes, "no bridge invocation without a control")
}

func TestClickActionButtonInvokesBoundFunction(t *testing.T) {
	driver := drivertest.New()
	bridge := &stubBridge{succeed: true}
	engine := newEngine(t, driver, bridge)

	engine.ClickActionButton(context.Background(), `button[ng-click="showScreenshots()"]`, "showScreenshots")
	require.Len(t, bridge.invokes, 1)
	assert.Contains(t, bridge.invokes[0], "showScreenshots(<nil>)")
}

func TestClickActionButtonDisabledIsSwallowed(t *testing.T) {
	driver := drivertest.New()
	driver.EvalHandler = func(js string, args []interface{}) (interface{}, bool) {
		if strings.Contains(js, "button.disabled") {
			return false, true
		}
		return nil, false
	}
	bridge := &stubBridge{succeed: true}
	engine := newEngine(t, driver, bridge)

	engine.ClickActionButton(context.Background(), "button#filter", "showScreenshots")
	assert.Empty(t, bridge.invokes)
}
