package pages

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rpaops/filterrelay/pkg/browser"
	"github.com/rpaops/filterrelay/pkg/config"
	"github.com/rpaops/filterrelay/pkg/datefmt"
	"github.com/rpaops/filterrelay/pkg/extract"
	"github.com/rpaops/filterrelay/pkg/formsync"
	"github.com/rpaops/filterrelay/pkg/inject"
	"github.com/rpaops/filterrelay/pkg/logging"
	"github.com/rpaops/filterrelay/pkg/relay"
)

// BindingApplyRange is the page-side manual hook. Calling it from the
// console replays the range-picker sequence with explicit bounds.
const BindingApplyRange = "__filterRelayApplyRange"

// processesOpener is the controller function bound to the filter panel
// header on the processes page.
const processesOpener = "openProcessFilters"

// App owns the three page sequences and their shared collaborators. One App
// serves one automation session.
type App struct {
	driver     browser.Driver
	store      relay.Store
	engine     *formsync.Engine
	notifier   *inject.Notifier
	controller *inject.Controller
	profile    *config.Profile
	log        *logging.Logger

	now func() time.Time
}

// NewApp wires the sequences over the given driver, relay store and bridge.
func NewApp(driver browser.Driver, store relay.Store, bridge formsync.Bridge, profile *config.Profile, log *logging.Logger) *App {
	a := &App{
		driver:   driver,
		store:    store,
		engine:   formsync.New(driver, bridge, profile, log),
		notifier: inject.NewNotifier(driver, log),
		profile:  profile,
		log:      log,
		now:      time.Now,
	}
	a.controller = inject.NewController(driver, profile.Selectors.InstanceRows, a.onMenuAction, log)
	return a
}

// Bind registers the page sequences on the router.
func (a *App) Bind(r *Router) {
	r.Handle(PageScheduled, a.InitScheduled)
	r.Handle(PageProcesses, a.InitProcesses)
	r.Handle(PageScreenshots, a.InitScreenshots)
}

// ExposeManualHook publishes the console test hook on the page. The hook runs
// the range-picker sequence detached, like a menu action would.
func (a *App) ExposeManualHook(ctx context.Context) error {
	return a.driver.ExposeFunction(BindingApplyRange, func(args ...interface{}) interface{} {
		if len(args) < 2 {
			return false
		}
		start, _ := args[0].(string)
		end, _ := args[1].(string)
		go func() {
			if err := a.ApplyRange(ctx, start, end); err != nil {
				a.log.Errorf("manual range apply failed: %v", err)
			}
		}()
		return true
	})
}

// ApplyRange replays the date-range-picker walkthrough with explicit bounds.
// Backs the manual hook and the -replay flag.
func (a *App) ApplyRange(ctx context.Context, start, end string) error {
	if err := a.engine.FillDateRange(ctx, start, end); err != nil {
		a.notifier.Show("Date range selection failed: "+err.Error(), inject.SeverityError)
		return err
	}
	a.log.Infof("manual range applied: %s .. %s", start, end)
	return nil
}

// InitScheduled starts the capture page: the injection controller decorates
// instance rows and forwards menu actions here.
func (a *App) InitScheduled(ctx context.Context) {
	if err := a.controller.Start(ctx); err != nil {
		a.log.Errorf("row decoration failed: %v", err)
	}
}

// onMenuAction captures the clicked row's bounds, relays them, and opens the
// target page in a new tab.
func (a *App) onMenuAction(ctx context.Context, action inject.Action, rowHTML string) {
	rec := extract.FromHTML(rowHTML)
	if !rec.Complete() {
		a.notifier.Show("Row dates could not be read", inject.SeverityError)
		return
	}

	payload := relay.Payload{
		StartBound: datefmt.TruncateToMinute(rec.StartDate),
		EndBound:   datefmt.RoundUpMinute(rec.EndDate),
		CreatedAt:  a.now().UnixMilli(),
	}

	path := a.profile.Pages.ProcessesPath
	notice := "Relaying date filters..."
	if action == inject.ActionScreenshots {
		payload.WorkerName = rec.WorkerName
		path = a.profile.Pages.ScreenshotsPath
		notice = "Opening screenshots page..."
	}

	if err := a.store.Put(ctx, payload); err != nil {
		a.log.Errorf("relay put failed: %v", err)
		a.notifier.Show("Could not relay the filters: "+err.Error(), inject.SeverityError)
		return
	}
	a.log.Infof("relayed %s .. %s (worker %q) for %s", payload.StartBound, payload.EndBound, payload.WorkerName, action)

	if err := a.driver.OpenTab(a.targetURL(path)); err != nil {
		a.log.Errorf("open tab failed: %v", err)
		a.notifier.Show("Could not open the target page: "+err.Error(), inject.SeverityError)
		return
	}
	a.notifier.Show(notice, inject.SeverityInfo)
}

// targetURL resolves a console path against the session's current origin,
// falling back to the configured base URL.
func (a *App) targetURL(path string) string {
	if u, err := url.Parse(a.driver.URL()); err == nil && u.Host != "" {
		return u.Scheme + "://" + u.Host + path
	}
	return a.profile.Browser.BaseURL + path
}

// InitProcesses replays a relayed payload into the processes page's bound
// date inputs. An empty or stale slot means there is nothing to do.
func (a *App) InitProcesses(ctx context.Context) {
	p, err := a.store.Get(ctx)
	if err != nil {
		a.log.Errorf("relay read failed: %v", err)
		return
	}
	if p == nil {
		a.log.Infof("no payload to apply")
		return
	}
	a.log.Infof("applying %s .. %s to process filters", p.StartBound, p.EndBound)

	sel := a.profile.Selectors
	if err := a.engine.EnsureVisible(ctx, sel.StartDateInput, sel.FilterHeader, processesOpener); err != nil {
		a.fail("Could not open the filter panel", err)
		return
	}
	if err := a.engine.SetInputValue(ctx, sel.StartDateInput, p.StartBound); err != nil {
		a.fail("Could not set the filter dates", err)
		return
	}
	if err := a.engine.SetInputValue(ctx, sel.EndDateInput, p.EndBound); err != nil {
		a.fail("Could not set the filter dates", err)
		return
	}

	a.engine.ClickToggleIfInactive(ctx, a.profile.Labels.StateToggle)
	a.engine.ClickSubmit(ctx, "searchButtonClicked", true)

	if err := a.store.Delete(ctx); err != nil {
		a.log.Warnf("relay delete failed: %v", err)
	}
	a.notifier.Show("Date filters applied", inject.SeveritySuccess)
}

// InitScreenshots replays a relayed payload into the screenshots page: the
// range picker walkthrough, then the optional worker filter.
func (a *App) InitScreenshots(ctx context.Context) {
	p, err := a.store.Get(ctx)
	if err != nil {
		a.log.Errorf("relay read failed: %v", err)
		return
	}
	if p == nil {
		a.log.Infof("no payload to apply")
		return
	}
	a.log.Infof("applying %s .. %s (worker %q) to screenshots", p.StartBound, p.EndBound, p.WorkerName)

	if err := a.engine.FillDateRange(ctx, p.StartBound, p.EndBound); err != nil {
		a.fail("Date range selection failed", err)
		return
	}

	if p.WorkerName != "" {
		a.selectWorker(ctx, p.WorkerName)
	}

	a.engine.ClickActionButton(ctx, a.profile.Selectors.ScreenshotsFilterButton, "showScreenshots")

	if err := a.store.Delete(ctx); err != nil {
		a.log.Warnf("relay delete failed: %v", err)
	}
	a.notifier.Show("Date filters applied", inject.SeveritySuccess)
}

// selectWorker picks the worker option by its visible label. Best-effort: a
// missing select is logged, a missing label gets an error notice, the
// sequence continues either way.
func (a *App) selectWorker(ctx context.Context, name string) {
	a.notifier.Show(fmt.Sprintf("Selecting worker: %s", name), inject.SeverityInfo)

	ok, err := a.engine.SelectByLabel(ctx, a.profile.Selectors.WorkerSelect, name)
	if err != nil {
		a.log.Warnf("worker select unavailable: %v", err)
		return
	}
	if !ok {
		a.log.Warnf("worker %q not present in the select", name)
		a.notifier.Show("Worker not found: "+name, inject.SeverityError)
		return
	}
	a.notifier.Show("Worker selected: "+name, inject.SeveritySuccess)
}

// fail logs a load-bearing failure and shows its one error notice.
func (a *App) fail(msg string, err error) {
	a.log.Errorf("%s: %v", msg, err)
	a.notifier.Show(msg+": "+err.Error(), inject.SeverityError)
}
