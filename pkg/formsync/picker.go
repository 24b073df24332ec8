package formsync

import (
	"context"
	"fmt"
	"time"

	"github.com/rpaops/filterrelay/pkg/datefmt"
	"github.com/rpaops/filterrelay/pkg/waitfor"
)

// The range picker is a third-party calendar widget; value injection into
// its bound input does not survive the widget's own state, so the engine
// simulates the full user interaction instead. Pane structure selectors are
// the widget's, not the host app's, and are stable across deployments.
const (
	paneLeft  = "left"
	paneRight = "right"

	calendarPane = ".drp-calendar"
	yearSelect   = "select.yearselect"
	monthSelect  = "select.monthselect"
	hourSelect   = "select.hourselect"
	minuteSelect = "select.minuteselect"
	secondSelect = "select.secondselect"
)

// setCalendarSelect drives one of a pane's native selects by value.
const setCalendarSelect = `([side, selector, value]) => {
	const pane = document.querySelector('.drp-calendar.' + side);
	if (!pane) return false;
	const select = pane.querySelector(selector);
	if (!select) return false;
	select.value = value;
	select.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

// dayCellPresent reports whether the pane currently renders the day number.
const dayCellPresent = `([side, day]) => {
	const pane = document.querySelector('.drp-calendar.' + side);
	if (!pane) return false;
	const cells = pane.querySelectorAll('td.available');
	for (const cell of cells) {
		if (cell.textContent.trim() === String(day)) return true;
	}
	return false;
}`

// clickDayCell clicks the pane's cell for the day number, preferring a cell
// of the displayed month (not marked 'off') and falling back to any match.
const clickDayCell = `([side, day]) => {
	const pane = document.querySelector('.drp-calendar.' + side);
	if (!pane) return false;
	const cells = pane.querySelectorAll('td.available');
	let fallback = null;
	for (const cell of cells) {
		if (cell.textContent.trim() !== String(day)) continue;
		if (!cell.classList.contains('off')) {
			cell.click();
			return true;
		}
		if (!fallback) fallback = cell;
	}
	if (fallback) {
		fallback.click();
		return true;
	}
	return false;
}`

// FillDateRange drives the range picker through the full user interaction:
// open it from its bound input, select the start on the left pane, the end
// on the left or right pane depending on whether the bounds share a month,
// then apply. Load-bearing: any failure here aborts the sequence.
func (e *Engine) FillDateRange(ctx context.Context, start, end string) error {
	startAt, err := datefmt.ParseCanonical(start)
	if err != nil {
		return fmt.Errorf("start bound: %w", err)
	}
	endAt, err := datefmt.ParseCanonical(end)
	if err != nil {
		return fmt.Errorf("end bound: %w", err)
	}

	err = waitfor.For(ctx, func() bool {
		visible, probeErr := e.driver.IsVisible(e.sel.DateRangeInput)
		return probeErr == nil && visible
	}, waitfor.Timeout(e.timing.ElementWait))
	if err != nil {
		return fmt.Errorf("range input never appeared: %w", err)
	}

	if err := e.driver.Click(e.sel.DateRangeInput); err != nil {
		return fmt.Errorf("open range picker: %w", err)
	}
	e.settle(ctx, e.timing.PickerSettle)

	err = waitfor.For(ctx, func() bool {
		visible, probeErr := e.driver.IsVisible(e.sel.DateRangeOpen)
		return probeErr == nil && visible
	}, waitfor.Timeout(e.timing.ElementWait))
	if err != nil {
		return fmt.Errorf("range picker never opened: %w", err)
	}
	e.log.Infof("range picker open, selecting %s .. %s", start, end)

	if err := e.selectCalendarDate(ctx, paneLeft, startAt); err != nil {
		return fmt.Errorf("start selection: %w", err)
	}
	e.settle(ctx, e.timing.CalendarSettle)

	// Both bounds fit on one pane when they share year and month.
	endSide := paneRight
	if startAt.Year() == endAt.Year() && startAt.Month() == endAt.Month() {
		endSide = paneLeft
	}
	if err := e.selectCalendarDate(ctx, endSide, endAt); err != nil {
		return fmt.Errorf("end selection: %w", err)
	}
	e.settle(ctx, e.timing.PickerSettle)

	visible, err := e.driver.IsVisible(e.sel.DateRangeApply)
	if err != nil || !visible {
		return fmt.Errorf("apply control not available (err=%v)", err)
	}
	if err := e.driver.Click(e.sel.DateRangeApply); err != nil {
		return fmt.Errorf("apply click: %w", err)
	}
	e.settle(ctx, e.timing.PickerSettle)

	e.log.Infof("range applied on picker")
	return nil
}

// selectCalendarDate walks one pane: year, month, day grid, then the time
// selects. The day grid re-renders after the month change, so the day cell
// is awaited before clicking.
func (e *Engine) selectCalendarDate(ctx context.Context, side string, at time.Time) error {
	present, err := e.driver.Evaluate(`(side) => !!document.querySelector('.drp-calendar.' + side)`, side)
	if err != nil {
		return fmt.Errorf("probe %s pane: %w", side, err)
	}
	if ok, _ := present.(bool); !ok {
		return fmt.Errorf("calendar pane %s not found", side)
	}

	// Year and month dropdowns are a widget configuration; panes without
	// them already show the wanted month or navigate by arrows.
	if err := e.setPaneSelect(side, yearSelect, fmt.Sprintf("%d", at.Year())); err != nil {
		e.log.Debugf("%v", err)
	}
	e.settle(ctx, e.timing.SelectSettle)

	// The widget's month select is zero-based.
	if err := e.setPaneSelect(side, monthSelect, fmt.Sprintf("%d", int(at.Month())-1)); err != nil {
		e.log.Debugf("%v", err)
	}
	e.settle(ctx, e.timing.CalendarSettle)

	day := at.Day()
	waitErr := waitfor.For(ctx, func() bool {
		present, err := e.driver.Evaluate(dayCellPresent, side, day)
		if err != nil {
			return false
		}
		ok, _ := present.(bool)
		return ok
	}, waitfor.Timeout(2*time.Second))
	if waitErr != nil {
		// Grid may already be rendered; the click below decides.
		e.log.Debugf("day grid wait on %s pane: %v", side, waitErr)
	}

	clicked, err := e.driver.Evaluate(clickDayCell, side, day)
	if err != nil {
		return fmt.Errorf("day cell click on %s pane: %w", side, err)
	}
	if ok, _ := clicked.(bool); !ok {
		e.log.Warnf("day %d not present on %s pane", day, side)
	} else {
		e.settle(ctx, e.timing.SelectSettle)
	}

	for _, sel := range []struct {
		selector string
		value    int
	}{
		{hourSelect, at.Hour()},
		{minuteSelect, at.Minute()},
		{secondSelect, at.Second()},
	} {
		if err := e.setPaneSelect(side, sel.selector, fmt.Sprintf("%d", sel.value)); err != nil {
			// Time selects are optional widget features; skip when absent.
			e.log.Debugf("time select %s missing on %s pane", sel.selector, side)
		}
	}

	e.log.Infof("%s pane set to %s", side, at.Format(datefmt.CanonicalSecond))
	return nil
}

// setPaneSelect sets a native select inside a calendar pane and fires its
// change event.
func (e *Engine) setPaneSelect(side, selector, value string) error {
	result, err := e.driver.Evaluate(setCalendarSelect, side, selector, value)
	if err != nil {
		return fmt.Errorf("set %s on %s pane: %w", selector, side, err)
	}
	if ok, _ := result.(bool); !ok {
		return fmt.Errorf("select %s not found on %s pane", selector, side)
	}
	return nil
}
