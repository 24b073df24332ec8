package browser

import (
	"fmt"
	"time"
)

// visibilityProbe mirrors the layout checks a user-facing element must pass:
// rendered, not display:none, not visibility:hidden, not fully transparent,
// and participating in layout (offsetParent set).
const visibilityProbe = `(selector) => {
	const el = document.querySelector(selector);
	if (!el) return false;
	const style = window.getComputedStyle(el);
	return style.display !== 'none' &&
		style.visibility !== 'hidden' &&
		style.opacity !== '0' &&
		el.offsetParent !== null;
}`

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// URL returns the current page URL including the fragment.
func (s *Session) URL() string {
	return s.Page.URL()
}

// Navigate loads the given URL in the active page.
func (s *Session) Navigate(url string) error {
	s.UpdateLastUsed()

	if _, err := s.Page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// OpenTab opens url in a new tab of the same context. The active page stays
// the console page this session drives; the tab is left for the user.
func (s *Session) OpenTab(url string) error {
	s.UpdateLastUsed()

	page, err := s.Context.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	if _, err := page.Goto(url); err != nil {
		return fmt.Errorf("failed to load tab: %w", err)
	}
	return nil
}

// Click clicks the first element matching the selector.
func (s *Session) Click(selector string) error {
	s.UpdateLastUsed()

	if err := s.Page.Click(selector); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Fill sets an input's value through Playwright's native fill.
func (s *Session) Fill(selector, value string) error {
	s.UpdateLastUsed()

	if err := s.Page.Fill(selector, value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// Evaluate runs JavaScript in the page and returns its result.
func (s *Session) Evaluate(js string, args ...interface{}) (interface{}, error) {
	s.UpdateLastUsed()

	var result interface{}
	var err error
	switch len(args) {
	case 0:
		result, err = s.Page.Evaluate(js)
	case 1:
		result, err = s.Page.Evaluate(js, args[0])
	default:
		result, err = s.Page.Evaluate(js, args)
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate failed: %w", err)
	}
	return result, nil
}

// IsVisible probes whether the first matching element is actually rendered.
// A missing element is simply not visible; probe errors are real failures.
func (s *Session) IsVisible(selector string) (bool, error) {
	result, err := s.Evaluate(visibilityProbe, selector)
	if err != nil {
		return false, err
	}
	visible, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("visibility probe returned %T", result)
	}
	return visible, nil
}

// ExposeFunction makes fn callable from page JavaScript under the given
// global name. The binding survives navigations within the session.
func (s *Session) ExposeFunction(name string, fn func(args ...interface{}) interface{}) error {
	s.UpdateLastUsed()

	err := s.Page.ExposeFunction(name, func(args ...interface{}) interface{} {
		return fn(args...)
	})
	if err != nil {
		return fmt.Errorf("expose function %s: %w", name, err)
	}
	return nil
}

var _ Driver = (*Session)(nil)
