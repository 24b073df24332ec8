// Package inject decorates the host console's table rows with an action
// affordance and owns the dropdown menu state.
//
// The page side is deliberately dumb: a MutationObserver and the affordance
// DOM. Row-set changes, menu toggling, and outside clicks all come back
// through exposed bindings, so the debounce timer and the single-open-menu
// slot live in this controller, not in ambient page globals.
package inject

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rpaops/filterrelay/pkg/browser"
	"github.com/rpaops/filterrelay/pkg/logging"
)

// DebounceDelay coalesces mutation bursts into one rescan; a newly arrived
// burst cancels the pending one.
const DebounceDelay = 100 * time.Millisecond

// Action identifies a menu entry.
type Action string

const (
	// ActionProcesses relays the row's bounds to the processes page.
	ActionProcesses Action = "processes"

	// ActionScreenshots relays bounds plus worker to the screenshots page.
	ActionScreenshots Action = "screenshots"
)

// ActionHandler consumes a menu action. rowHTML is the outer HTML of the
// row the menu belonged to; by the time the handler runs, the menu is
// already closed.
type ActionHandler func(ctx context.Context, action Action, rowHTML string)

// Controller attaches affordances to rows and runs the dropdown state
// machine. One controller exists per page context.
type Controller struct {
	driver      browser.Driver
	rowSelector string
	handler     ActionHandler
	log         *logging.Logger

	mu       sync.Mutex
	ctx      context.Context
	started  bool
	debounce *time.Timer
	openRow  string
}

// NewController creates a controller decorating rows matched by rowSelector.
func NewController(driver browser.Driver, rowSelector string, handler ActionHandler, log *logging.Logger) *Controller {
	return &Controller{
		driver:      driver,
		rowSelector: rowSelector,
		handler:     handler,
		log:         log,
	}
}

// Start injects the page-side assets, exposes the bindings, and performs the
// initial attach pass. Calling Start again after an in-document route change
// re-injects the (self-guarding) scripts and rescans instead of re-exposing.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	alreadyStarted := c.started
	c.ctx = ctx
	c.mu.Unlock()

	if !alreadyStarted {
		if err := c.driver.ExposeFunction(bindingRowsChanged, c.onRowsChanged); err != nil {
			return fmt.Errorf("expose rows-changed: %w", err)
		}
		if err := c.driver.ExposeFunction(bindingToggleMenu, c.onToggleMenu); err != nil {
			return fmt.Errorf("expose toggle-menu: %w", err)
		}
		if err := c.driver.ExposeFunction(bindingOutsideClick, c.onOutsideClick); err != nil {
			return fmt.Errorf("expose outside-click: %w", err)
		}
		if err := c.driver.ExposeFunction(bindingMenuAction, c.onMenuAction); err != nil {
			return fmt.Errorf("expose menu-action: %w", err)
		}
		c.mu.Lock()
		c.started = true
		c.mu.Unlock()
	}

	if _, err := c.driver.Evaluate(stylesheet); err != nil {
		return fmt.Errorf("inject stylesheet: %w", err)
	}
	if _, err := c.driver.Evaluate(observerScript, c.rowSelector); err != nil {
		return fmt.Errorf("inject observer: %w", err)
	}

	attached, err := c.Rescan()
	if err != nil {
		return err
	}
	c.log.Infof("injection controller started, %d rows decorated", attached)
	return nil
}

// Stop cancels any pending debounced rescan.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

// Rescan decorates every matching row currently lacking an affordance.
// Attach is monotonic: a decorated row is never touched again.
func (c *Controller) Rescan() (int, error) {
	result, err := c.driver.Evaluate(attachScript, c.rowSelector)
	if err != nil {
		return 0, fmt.Errorf("attach pass: %w", err)
	}
	switch n := result.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, nil
	}
}

// OpenMenuRow returns the id of the row whose menu is open, or "".
func (c *Controller) OpenMenuRow() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openRow
}

// onRowsChanged handles the mutation notification: schedule a debounced
// rescan, replacing any pending one.
func (c *Controller) onRowsChanged(_ ...interface{}) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(DebounceDelay, func() {
		attached, err := c.Rescan()
		if err != nil {
			c.log.Warnf("debounced rescan failed: %v", err)
			return
		}
		if attached > 0 {
			c.log.Infof("decorated %d new rows", attached)
		}
	})
	return nil
}

// onToggleMenu opens the menu for the given row, closing any other open
// menu first; toggling the already-open row closes it.
func (c *Controller) onToggleMenu(args ...interface{}) interface{} {
	rowID, _ := firstString(args)
	if rowID == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.driver.Evaluate(closeMenusScript); err != nil {
		c.log.Warnf("menu close failed: %v", err)
		return nil
	}

	if c.openRow == rowID {
		// Second click on the same affordance closes.
		c.openRow = ""
		return nil
	}

	result, err := c.driver.Evaluate(openMenuScript, rowID)
	if err != nil {
		c.log.Warnf("menu open failed for %s: %v", rowID, err)
		return nil
	}
	if ok, _ := result.(bool); !ok {
		c.log.Warnf("menu target row %s vanished", rowID)
		c.openRow = ""
		return nil
	}
	c.openRow = rowID
	return nil
}

// onOutsideClick closes any open menu; fired by the capture-phase page
// listener for clicks outside every affordance container.
func (c *Controller) onOutsideClick(_ ...interface{}) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openRow == "" {
		return nil
	}
	if _, err := c.driver.Evaluate(closeMenusScript); err != nil {
		c.log.Warnf("menu close failed: %v", err)
		return nil
	}
	c.openRow = ""
	return nil
}

// onMenuAction closes the menu, then hands the action to the handler. The
// close happens first so the action never observes stale open-menu DOM.
func (c *Controller) onMenuAction(args ...interface{}) interface{} {
	if len(args) < 3 {
		c.log.Warnf("menu action with %d args ignored", len(args))
		return nil
	}
	action, _ := args[0].(string)
	rowHTML, _ := args[2].(string)

	c.mu.Lock()
	if _, err := c.driver.Evaluate(closeMenusScript); err != nil {
		c.log.Warnf("menu close failed: %v", err)
	}
	c.openRow = ""
	ctx := c.ctx
	c.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if c.handler != nil {
		c.handler(ctx, Action(action), rowHTML)
	}
	return nil
}

func firstString(args []interface{}) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok
}
