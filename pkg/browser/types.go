package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is the automation session attached to the host console: one
// browser, one context, one active page.
type Session struct {
	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context (isolated session)
	Context playwright.BrowserContext

	// Page is the current active page
	Page playwright.Page

	// Headless indicates if the browser is running in headless mode
	Headless bool

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this session
	LastUsedAt time.Time
}

// SessionOptions configures a new automation session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Default session settings.
const (
	DefaultViewportWidth  = 1440
	DefaultViewportHeight = 900
	DefaultTimeout        = 30000 // milliseconds
)

// Driver is the DOM surface the engine's components consume. *Session
// implements it against Playwright; tests substitute scripted fakes.
type Driver interface {
	// URL returns the page's current URL including the fragment.
	URL() string

	// Navigate loads the given URL in the active page.
	Navigate(url string) error

	// OpenTab opens url in a new tab of the same context, leaving the
	// active page untouched.
	OpenTab(url string) error

	// Click clicks the first element matching the selector.
	Click(selector string) error

	// Fill sets an input's value through Playwright's native fill.
	Fill(selector, value string) error

	// Evaluate runs JavaScript in the page and returns its result.
	Evaluate(js string, args ...interface{}) (interface{}, error)

	// IsVisible probes whether the first matching element is rendered:
	// present, not display:none, not visibility:hidden, not zero-opacity,
	// and participating in layout.
	IsVisible(selector string) (bool, error)

	// ExposeFunction makes fn callable from page JavaScript under the
	// given global name.
	ExposeFunction(name string, fn func(args ...interface{}) interface{}) error
}
