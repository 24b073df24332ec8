package inject

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpaops/filterrelay/pkg/browser/drivertest"
	"github.com/rpaops/filterrelay/pkg/logging"
)

// fakePage simulates just enough of the decorated table: a set of rows,
// which of them carry an affordance, and which menus are open.
type fakePage struct {
	mu       sync.Mutex
	rows     []string
	attached map[string]bool
	open     map[string]bool
}

func newFakePage(rows ...string) *fakePage {
	return &fakePage{
		rows:     rows,
		attached: map[string]bool{},
		open:     map[string]bool{},
	}
}

func (p *fakePage) addRows(rows ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = append(p.rows, rows...)
}

func (p *fakePage) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.open)
}

func (p *fakePage) attachedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.attached)
}

// handle answers the controller's injected scripts against the fake DOM.
func (p *fakePage) handle(js string, args []interface{}) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case strings.Contains(js, "__filterRelayRowSeq"):
		// attach pass: decorate rows lacking an affordance
		attached := 0
		for _, row := range p.rows {
			if !p.attached[row] {
				p.attached[row] = true
				attached++
			}
		}
		return attached, true
	case strings.Contains(js, "m.remove()"):
		// close all menus
		p.open = map[string]bool{}
		return true, true
	case strings.Contains(js, "data-filterrelay-row"):
		// open menu for a row
		rowID, _ := args[0].(string)
		for _, row := range p.rows {
			if row == rowID {
				p.open[rowID] = true
				return true, true
			}
		}
		return false, true
	}
	return nil, false
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.NewLogger("inject-test")
	if err != nil {
		t.Logf("file logging unavailable, using fallback: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func startController(t *testing.T, page *fakePage, handler ActionHandler) (*Controller, *drivertest.Driver) {
	t.Helper()
	driver := drivertest.New()
	driver.EvalHandler = page.handle

	c := NewController(driver, `tr[ng-repeat*="processInstance"]`, handler, testLogger(t))
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)
	return c, driver
}

func TestRescanIsIdempotent(t *testing.T) {
	page := newFakePage("row-1", "row-2", "row-3")
	c, _ := startController(t, page, nil)

	// Start already decorated everything; a second pass attaches nothing.
	attached, err := c.Rescan()
	require.NoError(t, err)
	assert.Zero(t, attached)
	assert.Equal(t, 3, page.attachedCount(), "exactly one affordance per row")
}

func TestRescanDecoratesNewRowsOnly(t *testing.T) {
	page := newFakePage("row-1")
	c, _ := startController(t, page, nil)

	page.addRows("row-2", "row-3")
	attached, err := c.Rescan()
	require.NoError(t, err)
	assert.Equal(t, 2, attached)
	assert.Equal(t, 3, page.attachedCount())
}

func TestOpeningSecondMenuClosesFirst(t *testing.T) {
	page := newFakePage("row-1", "row-2")
	c, driver := startController(t, page, nil)

	_, err := driver.Trigger(bindingToggleMenu, "row-1")
	require.NoError(t, err)
	assert.Equal(t, "row-1", c.OpenMenuRow())
	assert.Equal(t, 1, page.openCount())

	_, err = driver.Trigger(bindingToggleMenu, "row-2")
	require.NoError(t, err)
	assert.Equal(t, "row-2", c.OpenMenuRow())
	assert.Equal(t, 1, page.openCount(), "never more than one visible dropdown")
}

func TestTogglingSameMenuClosesIt(t *testing.T) {
	page := newFakePage("row-1")
	c, driver := startController(t, page, nil)

	_, err := driver.Trigger(bindingToggleMenu, "row-1")
	require.NoError(t, err)
	assert.Equal(t, "row-1", c.OpenMenuRow())

	_, err = driver.Trigger(bindingToggleMenu, "row-1")
	require.NoError(t, err)
	assert.Empty(t, c.OpenMenuRow())
	assert.Zero(t, page.openCount())
}

func TestOutsideClickClosesOpenMenu(t *testing.T) {
	page := newFakePage("row-1")
	c, driver := startController(t, page, nil)

	_, err := driver.Trigger(bindingToggleMenu, "row-1")
	require.NoError(t, err)

	_, err = driver.Trigger(bindingOutsideClick)
	require.NoError(t, err)
	assert.Empty(t, c.OpenMenuRow())
	assert.Zero(t, page.openCount())
}

func TestMenuVanishedRowLeavesNothingOpen(t *testing.T) {
	page := newFakePage("row-1")
	c, driver := startController(t, page, nil)

	_, err := driver.Trigger(bindingToggleMenu, "row-gone")
	require.NoError(t, err)
	assert.Empty(t, c.OpenMenuRow())
	assert.Zero(t, page.openCount())
}

func TestMenuActionClosesMenuBeforeHandler(t *testing.T) {
	page := newFakePage("row-1")

	var handlerAction Action
	var handlerHTML string
	var openDuringHandler int
	var c *Controller

	handler := func(ctx context.Context, action Action, rowHTML string) {
		handlerAction = action
		handlerHTML = rowHTML
		openDuringHandler = page.openCount()
		assert.Empty(t, c.OpenMenuRow(), "handler must never observe an open menu")
	}

	c, driver := startController(t, page, handler)

	_, err := driver.Trigger(bindingToggleMenu, "row-1")
	require.NoError(t, err)

	_, err = driver.Trigger(bindingMenuAction, "processes", "row-1", "<tr><td>x</td></tr>")
	require.NoError(t, err)

	assert.Equal(t, ActionProcesses, handlerAction)
	assert.Equal(t, "<tr><td>x</td></tr>", handlerHTML)
	assert.Zero(t, openDuringHandler)
}

func TestRowsChangedRescanIsDebounced(t *testing.T) {
	page := newFakePage("row-1")
	_, driver := startController(t, page, nil)

	attachPasses := func() int {
		n := 0
		for _, call := range driver.Evals {
			if strings.Contains(call.JS, "__filterRelayRowSeq") {
				n++
			}
		}
		return n
	}
	before := attachPasses()

	// A burst of mutation notifications collapses into one rescan.
	for i := 0; i < 5; i++ {
		_, err := driver.Trigger(bindingRowsChanged)
		require.NoError(t, err)
	}

	time.Sleep(DebounceDelay + 100*time.Millisecond)
	assert.Equal(t, before+1, attachPasses())
}
