// Package formsync writes filter values into the host console's
// framework-bound form controls.
//
// The console's reactive framework keeps its own model of every control, and
// a plain value assignment is silently reverted on the next digest. Each
// write therefore goes through every applicable channel: the native value
// property, the synthetic input/change/keyup events, a blur, and finally the
// framework bridge as the last authoritative overwrite. The bridge is an
// optimization, never a dependency: the native-event path alone must be
// enough on pages where the bridge is absent.
package formsync

import (
	"context"
	"fmt"
	"time"

	"github.com/rpaops/filterrelay/pkg/browser"
	"github.com/rpaops/filterrelay/pkg/config"
	"github.com/rpaops/filterrelay/pkg/logging"
	"github.com/rpaops/filterrelay/pkg/waitfor"
)

// layeredWrite pushes a value through the native channels in an order where
// later writes cannot be clobbered by earlier events firing asynchronously:
// value first, then input, change, keyup, then blur.
const layeredWrite = `([selector, value]) => {
	const input = document.querySelector(selector);
	if (!input) return false;
	input.value = value;
	input.setAttribute('value', value);
	input.focus();
	input.dispatchEvent(new Event('input', { bubbles: true, cancelable: true }));
	input.dispatchEvent(new Event('change', { bubbles: true, cancelable: true }));
	input.dispatchEvent(new KeyboardEvent('keyup', { bubbles: true }));
	input.blur();
	return true;
}`

// selectByLabel picks the option whose trimmed visible text equals the label.
const selectByLabel = `([selector, label]) => {
	const select = document.querySelector(selector);
	if (!select) return 'missing';
	const options = select.querySelectorAll('option');
	for (let i = 0; i < options.length; i++) {
		if (options[i].textContent.trim() === label) {
			select.selectedIndex = i;
			select.value = options[i].value;
			select.dispatchEvent(new Event('input', { bubbles: true }));
			select.dispatchEvent(new Event('change', { bubbles: true }));
			return 'selected';
		}
	}
	return 'not-found';
}`

// toggleIfInactive clicks the toggle whose label matches case-insensitively,
// unless its container already carries the active state class.
const toggleIfInactive = `([buttonsSelector, label, activeTarget, activeClass]) => {
	const buttons = Array.from(document.querySelectorAll(buttonsSelector));
	const wanted = label.trim().toLowerCase();
	const button = buttons.find(b => b.textContent.trim().toLowerCase() === wanted);
	if (!button) return 'not-found';
	const container = button.closest(activeTarget);
	if (container && container.classList.contains(activeClass)) return 'already-active';
	button.click();
	return 'clicked';
}`

// findSubmit locates the search control by, in order: the action-binding
// attribute, the translation-key attribute, then a text match against the
// accepted labels. Returns the winning strategy or 'not-found'.
const findSubmit = `([byAction, byTranslate, byClass, labels]) => {
	let button = document.querySelector(byAction);
	if (button) return 'action';
	button = document.querySelector(byTranslate);
	if (button) return 'translate';
	const accepted = labels.map(l => l.toUpperCase());
	const candidates = Array.from(document.querySelectorAll(byClass));
	button = candidates.find(b => {
		const text = b.textContent.trim().toUpperCase();
		return accepted.includes(text) || text.includes('SEARCH');
	});
	return button ? 'text' : 'not-found';
}`

const clickSubmit = `([byAction, byTranslate, byClass, labels]) => {
	let button = document.querySelector(byAction) || document.querySelector(byTranslate);
	if (!button) {
		const accepted = labels.map(l => l.toUpperCase());
		const candidates = Array.from(document.querySelectorAll(byClass));
		button = candidates.find(b => {
			const text = b.textContent.trim().toUpperCase();
			return accepted.includes(text) || text.includes('SEARCH');
		});
	}
	if (!button) return false;
	const style = window.getComputedStyle(button);
	if (style.display === 'none' || style.visibility === 'hidden' || button.offsetParent === null) {
		return false;
	}
	button.click();
	return true;
}`

// clickEnabled clicks a button only when present, enabled and rendered.
const clickEnabled = `(selector) => {
	const button = document.querySelector(selector);
	if (!button || button.disabled) return false;
	const style = window.getComputedStyle(button);
	if (style.display === 'none' || style.visibility === 'hidden' || button.offsetParent === null) {
		return false;
	}
	button.click();
	return true;
}`

// highlight flashes the visual feedback class on a filled input.
const highlight = `([selector, cls, ms]) => {
	const el = document.querySelector(selector);
	if (!el) return false;
	el.classList.add(cls);
	setTimeout(() => el.classList.remove(cls), ms);
	return true;
}`

// HighlightClass marks inputs the engine just wrote, for visual feedback.
const HighlightClass = "filterrelay-highlight-input"

// Engine synchronizes form controls on one page.
type Engine struct {
	driver browser.Driver
	bridge Bridge
	sel    config.Selectors
	timing config.Timing
	labels config.Labels
	log    *logging.Logger
}

// New creates an engine over the given driver and bridge.
func New(driver browser.Driver, bridge Bridge, profile *config.Profile, log *logging.Logger) *Engine {
	return &Engine{
		driver: driver,
		bridge: bridge,
		sel:    profile.Selectors,
		timing: profile.Timing,
		labels: profile.Labels,
		log:    log,
	}
}

// settle pauses for a render step that has no observable completion signal.
func (e *Engine) settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// EnsureVisible makes the target input reachable. If it is absent or not
// rendered, the opener element is clicked (plus an opportunistic bridge call
// to openerFn), then the target is awaited. Load-bearing: an error means the
// sequence cannot continue.
func (e *Engine) EnsureVisible(ctx context.Context, target, opener, openerFn string) error {
	visible, err := e.driver.IsVisible(target)
	if err != nil {
		return fmt.Errorf("probe %s: %w", target, err)
	}
	if visible {
		return nil
	}

	e.log.Infof("opening panel for %s", target)
	if err := e.driver.Click(opener); err != nil {
		e.log.Warnf("panel opener click failed: %v", err)
	}
	if openerFn != "" && e.bridge.Invoke(opener, openerFn, nil) {
		e.log.Debugf("panel opener %s invoked through bridge", openerFn)
	}

	err = waitfor.For(ctx, func() bool {
		visible, probeErr := e.driver.IsVisible(target)
		return probeErr == nil && visible
	}, waitfor.Timeout(e.timing.ElementWait))
	if err != nil {
		return fmt.Errorf("target %s never became visible: %w", target, err)
	}
	return nil
}

// SetInputValue writes a value into a framework-bound input through every
// applicable channel. The bridge write runs last so nothing can clobber it.
// Load-bearing: a missing input is an error.
func (e *Engine) SetInputValue(ctx context.Context, selector, value string) error {
	result, err := e.driver.Evaluate(layeredWrite, selector, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", selector, err)
	}
	if ok, _ := result.(bool); !ok {
		return fmt.Errorf("input %s not found", selector)
	}

	if e.bridge.WriteModel(selector, value) {
		e.log.Debugf("model write confirmed for %s", selector)
	} else {
		e.log.Debugf("bridge unavailable for %s, native events only", selector)
	}

	e.Highlight(selector)
	return nil
}

// Highlight flashes the written input for visual feedback. Best-effort.
func (e *Engine) Highlight(selector string) {
	if _, err := e.driver.Evaluate(highlight, selector, HighlightClass, 2000); err != nil {
		e.log.Debugf("highlight failed for %s: %v", selector, err)
	}
}

// SelectByLabel selects the option whose visible text matches label exactly,
// then notifies the framework. Returns false when the label is absent; a
// missing select element is an error.
func (e *Engine) SelectByLabel(ctx context.Context, selector, label string) (bool, error) {
	result, err := e.driver.Evaluate(selectByLabel, selector, label)
	if err != nil {
		return false, fmt.Errorf("select %s: %w", selector, err)
	}
	switch result {
	case "selected":
		if !e.bridge.Apply(selector) {
			e.log.Debugf("bridge apply unavailable for %s", selector)
		}
		return true, nil
	case "not-found":
		return false, nil
	default:
		return false, fmt.Errorf("select element %s not found", selector)
	}
}

// ClickToggleIfInactive clicks the state toggle matching the configured
// label case-insensitively, only when not already active. Best-effort: a
// missing toggle is logged and swallowed.
func (e *Engine) ClickToggleIfInactive(ctx context.Context, label string) {
	e.settle(ctx, e.timing.ToggleSettle)

	result, err := e.driver.Evaluate(toggleIfInactive,
		e.sel.ToggleButtons, label, e.sel.ToggleActiveTarget, e.sel.ToggleActiveClass)
	if err != nil {
		e.log.Warnf("state toggle %q failed: %v", label, err)
		return
	}

	switch result {
	case "clicked":
		if !e.bridge.Apply(e.sel.ToggleButtons) {
			e.log.Debugf("bridge apply unavailable after toggle")
		}
		e.log.Infof("state toggle %q activated", label)
	case "already-active":
		e.log.Infof("state toggle %q already active", label)
	default:
		e.log.Warnf("state toggle %q not found", label)
	}
}

// ClickSubmit locates and clicks the search control through its fallback
// chain, then best-effort invokes the bound action through the bridge.
// Best-effort: a missing control is logged and swallowed.
func (e *Engine) ClickSubmit(ctx context.Context, actionFn string, actionArg interface{}) {
	e.settle(ctx, e.timing.SubmitSettle)

	found, err := e.driver.Evaluate(findSubmit,
		e.sel.SubmitByAction, e.sel.SubmitByTranslate, e.sel.SubmitByClass, e.labels.SubmitLabels)
	if err != nil || found == "not-found" {
		e.log.Warnf("submit control not found (err=%v)", err)
		return
	}

	clicked, err := e.driver.Evaluate(clickSubmit,
		e.sel.SubmitByAction, e.sel.SubmitByTranslate, e.sel.SubmitByClass, e.labels.SubmitLabels)
	if err != nil {
		e.log.Warnf("submit click failed: %v", err)
		return
	}
	if ok, _ := clicked.(bool); !ok {
		e.log.Warnf("submit control vanished before click")
		return
	}

	e.log.Infof("submit clicked via %v strategy", found)
	if actionFn != "" && e.bridge.Invoke(e.sel.SubmitByAction, actionFn, actionArg) {
		e.log.Debugf("submit action %s invoked through bridge", actionFn)
	}
}

// ClickActionButton clicks a plain action button when it is present, enabled
// and rendered, then best-effort invokes its bound function through the
// bridge. Best-effort: an unusable button is logged and swallowed.
func (e *Engine) ClickActionButton(ctx context.Context, selector, actionFn string) {
	e.settle(ctx, e.timing.SubmitSettle)

	result, err := e.driver.Evaluate(clickEnabled, selector)
	if err != nil {
		e.log.Warnf("action button %s click failed: %v", selector, err)
		return
	}
	if ok, _ := result.(bool); !ok {
		e.log.Warnf("action button %s missing, disabled or hidden", selector)
		return
	}

	e.log.Infof("action button %s clicked", selector)
	if actionFn != "" && e.bridge.Invoke(selector, actionFn, nil) {
		e.log.Debugf("action %s invoked through bridge", actionFn)
	}
}
