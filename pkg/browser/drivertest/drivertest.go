// Package drivertest provides a scripted in-memory browser.Driver for
// exercising the automation engine without a real browser.
package drivertest

import (
	"fmt"
	"sync"

	"github.com/rpaops/filterrelay/pkg/browser"
)

// Call records one Evaluate invocation.
type Call struct {
	JS   string
	Args []interface{}
}

// Driver is a scriptable browser.Driver. Zero value behavior: every element
// is visible, every click and fill succeeds, and Evaluate returns true.
// Tests tighten behavior through Visible and EvalHandler.
type Driver struct {
	mu sync.Mutex

	// CurrentURL is returned by URL.
	CurrentURL string

	// Visible overrides visibility per selector; selectors not present
	// are treated as visible.
	Visible map[string]bool

	// EvalHandler, when set, answers Evaluate calls. Returning handled =
	// false falls through to the default (true, nil).
	EvalHandler func(js string, args []interface{}) (result interface{}, handled bool)

	// FailClicks lists selectors whose Click errors.
	FailClicks map[string]bool

	Clicks      []string
	Fills       map[string]string
	Navigations []string
	Tabs        []string
	Evals       []Call

	bindings map[string]func(args ...interface{}) interface{}
}

var _ browser.Driver = (*Driver)(nil)

// New creates an empty scripted driver.
func New() *Driver {
	return &Driver{
		Visible:    map[string]bool{},
		FailClicks: map[string]bool{},
		Fills:      map[string]string{},
		bindings:   map[string]func(args ...interface{}) interface{}{},
	}
}

// URL implements browser.Driver.
func (d *Driver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.CurrentURL
}

// SetURL moves the fake page to a new URL.
func (d *Driver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CurrentURL = url
}

// Navigate implements browser.Driver.
func (d *Driver) Navigate(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Navigations = append(d.Navigations, url)
	d.CurrentURL = url
	return nil
}

// OpenTab implements browser.Driver.
func (d *Driver) OpenTab(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Tabs = append(d.Tabs, url)
	return nil
}

// Click implements browser.Driver.
func (d *Driver) Click(selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailClicks[selector] {
		return fmt.Errorf("click failed: %s", selector)
	}
	d.Clicks = append(d.Clicks, selector)
	return nil
}

// Fill implements browser.Driver.
func (d *Driver) Fill(selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Fills[selector] = value
	return nil
}

// Evaluate implements browser.Driver.
func (d *Driver) Evaluate(js string, args ...interface{}) (interface{}, error) {
	d.mu.Lock()
	d.Evals = append(d.Evals, Call{JS: js, Args: args})
	handler := d.EvalHandler
	d.mu.Unlock()

	if handler != nil {
		if result, handled := handler(js, args); handled {
			return result, nil
		}
	}
	return true, nil
}

// IsVisible implements browser.Driver.
func (d *Driver) IsVisible(selector string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if visible, ok := d.Visible[selector]; ok {
		return visible, nil
	}
	return true, nil
}

// SetVisible scripts a selector's visibility.
func (d *Driver) SetVisible(selector string, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Visible[selector] = visible
}

// ExposeFunction implements browser.Driver.
func (d *Driver) ExposeFunction(name string, fn func(args ...interface{}) interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.bindings[name]; exists {
		return fmt.Errorf("binding %s already exposed", name)
	}
	d.bindings[name] = fn
	return nil
}

// Trigger invokes an exposed binding as the page would.
func (d *Driver) Trigger(name string, args ...interface{}) (interface{}, error) {
	d.mu.Lock()
	fn, ok := d.bindings[name]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no binding %s", name)
	}
	return fn(args...), nil
}

// ClickedCount returns how many times the selector was clicked.
func (d *Driver) ClickedCount(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.Clicks {
		if c == selector {
			n++
		}
	}
	return n
}
