package formsync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpaops/filterrelay/pkg/browser/drivertest"
	"github.com/rpaops/filterrelay/pkg/config"
)

// paneSelections digs the (side, selector, value) triples of calendar select
// writes out of the recorded Evaluate calls.
func paneSelections(driver *drivertest.Driver) []string {
	var out []string
	for _, call := range driver.Evals {
		if strings.Contains(call.JS, "pane.querySelector(selector)") && len(call.Args) == 3 {
			out = append(out, call.Args[0].(string)+" "+call.Args[1].(string)+"="+call.Args[2].(string))
		}
	}
	return out
}

func TestFillDateRangeSameMonthUsesLeftPaneTwice(t *testing.T) {
	driver := drivertest.New()
	engine := newEngine(t, driver, &stubBridge{})
	cfg := config.Default()

	err := engine.FillDateRange(context.Background(), "2026-01-28 08:02", "2026-01-28 08:16")
	require.NoError(t, err)

	// Picker opened from its bound input, then applied.
	assert.Equal(t, 1, driver.ClickedCount(cfg.Selectors.DateRangeInput))
	assert.Equal(t, 1, driver.ClickedCount(cfg.Selectors.DateRangeApply))

	selections := paneSelections(driver)
	require.NotEmpty(t, selections)
	for _, s := range selections {
		assert.True(t, strings.HasPrefix(s, "left "), "same month keeps both bounds on the left pane: %s", s)
	}

	// Year select gets the year, month select is zero-based.
	assert.Contains(t, selections, "left select.yearselect=2026")
	assert.Contains(t, selections, "left select.monthselect=0")
	assert.Contains(t, selections, "left select.hourselect=8")
	assert.Contains(t, selections, "left select.minuteselect=2")
	assert.Contains(t, selections, "left select.minuteselect=16")
}

func TestFillDateRangeCrossMonthUsesRightPane(t *testing.T) {
	driver := drivertest.New()
	engine := newEngine(t, driver, &stubBridge{})

	err := engine.FillDateRange(context.Background(), "2026-01-31 23:50", "2026-02-01 00:10")
	require.NoError(t, err)

	selections := paneSelections(driver)
	assert.Contains(t, selections, "left select.monthselect=0")
	assert.Contains(t, selections, "right select.monthselect=1")
}

func TestFillDateRangeRejectsBadBounds(t *testing.T) {
	driver := drivertest.New()
	engine := newEngine(t, driver, &stubBridge{})

	err := engine.FillDateRange(context.Background(), "not a date", "2026-02-01 00:10")
	assert.Error(t, err)
	assert.Empty(t, driver.Clicks, "nothing clicked for unparsable bounds")
}

func TestFillDateRangeAbortsWhenPickerNeverOpens(t *testing.T) {
	driver := drivertest.New()
	cfg := config.Default()
	driver.SetVisible(cfg.Selectors.DateRangeOpen, false)
	engine := newEngine(t, driver, &stubBridge{})

	err := engine.FillDateRange(context.Background(), "2026-01-28 08:02", "2026-01-28 08:16")
	assert.Error(t, err)
	assert.Zero(t, driver.ClickedCount(cfg.Selectors.DateRangeApply), "apply must not run on an unopened picker")
}

func TestFillDateRangeAbortsWithoutApplyControl(t *testing.T) {
	driver := drivertest.New()
	cfg := config.Default()
	driver.SetVisible(cfg.Selectors.DateRangeApply, false)
	engine := newEngine(t, driver, &stubBridge{})

	err := engine.FillDateRange(context.Background(), "2026-01-28 08:02", "2026-01-28 08:16")
	assert.Error(t, err)
}

func TestFillDateRangeAbortsWhenInputNeverAppears(t *testing.T) {
	driver := drivertest.New()
	cfg := config.Default()
	driver.SetVisible(cfg.Selectors.DateRangeInput, false)
	engine := newEngine(t, driver, &stubBridge{})

	start := time.Now()
	err := engine.FillDateRange(context.Background(), "2026-01-28 08:02", "2026-01-28 08:16")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "bounded by the shortened element wait")
	assert.Empty(t, driver.Clicks)
}
