package formsync

import "github.com/rpaops/filterrelay/pkg/browser"

// Bridge is the optional accessor into the host page's reactive-framework
// state. It is consumed purely as a best-effort secondary channel: every
// method reports whether it reached the framework, and the engine must stay
// correct when every call reports false. Injected so tests can stub it.
type Bridge interface {
	// WriteModel pushes value into the framework model bound to the
	// element, then forces a re-render and a digest of its scope.
	WriteModel(selector, value string) bool

	// Apply forces a digest of the element's owning scope.
	Apply(selector string) bool

	// Invoke calls a named function exposed on the element's scope,
	// wrapped in a digest. arg may be nil.
	Invoke(selector, fn string, arg interface{}) bool
}

// angularWriteModel drives the per-element ngModel controller directly:
// $setViewValue as the authoritative overwrite, $render to sync the DOM,
// $apply to reconcile the scope.
const angularWriteModel = `([selector, value]) => {
	try {
		const el = document.querySelector(selector);
		if (!el || !window.angular) return false;
		const ng = window.angular.element(el);
		const ctrl = ng.controller && ng.controller('ngModel');
		const scope = ng.scope && ng.scope();
		if (ctrl) {
			ctrl.$setViewValue(value);
			ctrl.$render();
		}
		if (scope && scope.$apply) scope.$apply();
		return !!ctrl;
	} catch (e) {
		return false;
	}
}`

const angularApply = `(selector) => {
	try {
		const el = document.querySelector(selector);
		if (!el || !window.angular) return false;
		const scope = window.angular.element(el).scope();
		if (scope && scope.$apply) {
			scope.$apply();
			return true;
		}
		return false;
	} catch (e) {
		return false;
	}
}`

const angularInvoke = `([selector, fn, arg]) => {
	try {
		const el = document.querySelector(selector);
		if (!el || !window.angular) return false;
		const scope = window.angular.element(el).scope();
		if (scope && typeof scope[fn] === 'function' && scope.$apply) {
			scope.$apply(() => arg === null ? scope[fn]() : scope[fn](arg));
			return true;
		}
		return false;
	} catch (e) {
		return false;
	}
}`

// AngularBridge reaches the host framework through its public
// element-to-scope accessor (window.angular.element). Its absence on any
// given page is tolerated: every call degrades to false.
type AngularBridge struct {
	driver browser.Driver
}

// NewAngularBridge creates a bridge over the given driver.
func NewAngularBridge(driver browser.Driver) *AngularBridge {
	return &AngularBridge{driver: driver}
}

func (b *AngularBridge) eval(js string, args ...interface{}) bool {
	result, err := b.driver.Evaluate(js, args...)
	if err != nil {
		return false
	}
	ok, _ := result.(bool)
	return ok
}

// WriteModel implements Bridge.
func (b *AngularBridge) WriteModel(selector, value string) bool {
	return b.eval(angularWriteModel, selector, value)
}

// Apply implements Bridge.
func (b *AngularBridge) Apply(selector string) bool {
	return b.eval(angularApply, selector)
}

// Invoke implements Bridge.
func (b *AngularBridge) Invoke(selector, fn string, arg interface{}) bool {
	return b.eval(angularInvoke, selector, fn, arg)
}

// NoBridge is the absent framework bridge; every call reports false.
type NoBridge struct{}

func (NoBridge) WriteModel(string, string) bool          { return false }
func (NoBridge) Apply(string) bool                       { return false }
func (NoBridge) Invoke(string, string, interface{}) bool { return false }
