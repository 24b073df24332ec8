// Package pages classifies the host console's hash-routed pages and runs the
// page sequence each one needs: capture on the scheduled-processes page,
// replay on the processes and screenshots pages.
package pages

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/rpaops/filterrelay/pkg/browser"
	"github.com/rpaops/filterrelay/pkg/config"
	"github.com/rpaops/filterrelay/pkg/logging"
)

// Kind identifies one of the console pages the engine cares about.
type Kind string

const (
	// PageUnknown is any page without a sequence. Ignored.
	PageUnknown Kind = ""

	// PageScheduled is the capture page listing scheduled process runs.
	PageScheduled Kind = "scheduled"

	// PageProcesses is the replay page with the bound date inputs.
	PageProcesses Kind = "processes"

	// PageScreenshots is the replay page with the date-range picker.
	PageScreenshots Kind = "screenshots"
)

const bindingRouteChanged = "__filterRelayRouteChanged"

// routeScript hooks the SPA's hash navigation. Self-guarding, so re-injection
// after a dispatch is harmless.
const routeScript = `() => {
	if (window.__filterRelayRouted) return false;
	window.__filterRelayRouted = true;
	window.addEventListener('hashchange', () => {
		window.` + bindingRouteChanged + `();
	});
	return true;
}`

// Router watches the session URL and dispatches the page sequence matching
// it. The console is a single-page app, so navigation arrives as hashchange
// events rather than page loads; an injected listener forwards them.
type Router struct {
	driver browser.Driver
	log    *logging.Logger
	settle time.Duration

	scheduled   glob.Glob
	processes   glob.Glob
	screenshots glob.Glob

	mu       sync.Mutex
	handlers map[Kind]func(context.Context)
	ctx      context.Context
}

// NewRouter compiles the page patterns from the profile.
func NewRouter(driver browser.Driver, profile *config.Profile, log *logging.Logger) (*Router, error) {
	scheduled, err := glob.Compile(profile.Pages.ScheduledPattern)
	if err != nil {
		return nil, fmt.Errorf("compile scheduled pattern: %w", err)
	}
	processes, err := glob.Compile(profile.Pages.ProcessesPattern)
	if err != nil {
		return nil, fmt.Errorf("compile processes pattern: %w", err)
	}
	screenshots, err := glob.Compile(profile.Pages.ScreenshotsPattern)
	if err != nil {
		return nil, fmt.Errorf("compile screenshots pattern: %w", err)
	}

	return &Router{
		driver:      driver,
		log:         log,
		settle:      profile.Timing.RouteSettle,
		scheduled:   scheduled,
		processes:   processes,
		screenshots: screenshots,
		handlers:    map[Kind]func(context.Context){},
	}, nil
}

// Handle registers the sequence for a page kind.
func (r *Router) Handle(kind Kind, fn func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = fn
}

// Classify maps a URL to a page kind. The scheduled pattern is checked first
// because the processes pattern also matches scheduled-processes URLs.
func (r *Router) Classify(url string) Kind {
	switch {
	case r.scheduled.Match(url):
		return PageScheduled
	case r.processes.Match(url):
		return PageProcesses
	case r.screenshots.Match(url):
		return PageScreenshots
	default:
		return PageUnknown
	}
}

// Start injects the navigation listener, exposes its binding, and dispatches
// the current page once.
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	if err := r.driver.ExposeFunction(bindingRouteChanged, r.onRouteChanged); err != nil {
		return fmt.Errorf("expose route binding: %w", err)
	}
	if _, err := r.driver.Evaluate(routeScript); err != nil {
		return fmt.Errorf("inject route listener: %w", err)
	}

	r.Dispatch(ctx)
	return nil
}

// Dispatch classifies the current URL and, after the route settle delay, runs
// the registered sequence. Unknown pages are ignored.
func (r *Router) Dispatch(ctx context.Context) {
	url := r.driver.URL()
	kind := r.Classify(url)
	if kind == PageUnknown {
		r.log.Debugf("no sequence for %s", url)
		return
	}

	// Let the SPA finish rendering the incoming view.
	if r.settle > 0 {
		t := time.NewTimer(r.settle)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}

	r.mu.Lock()
	fn := r.handlers[kind]
	r.mu.Unlock()
	if fn == nil {
		return
	}

	r.log.Infof("dispatching %s page at %s", kind, url)
	fn(ctx)
}

func (r *Router) onRouteChanged(args ...interface{}) interface{} {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return nil
	}

	// The navigation listener must not block on the dispatched sequence.
	go r.Dispatch(ctx)
	return nil
}
