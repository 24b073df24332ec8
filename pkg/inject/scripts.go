package inject

// Injected page-side assets. The page keeps no state beyond the DOM itself:
// every decision (debounce, which menu is open, what an action does) comes
// back through the exposed bindings into the controller.

// Class names of the injected DOM.
const (
	containerClass = "filterrelay-affordance"
	buttonClass    = "filterrelay-affordance-btn"
	menuClass      = "filterrelay-dropdown-menu"
	menuItemClass  = "filterrelay-dropdown-item"
	menuOpenClass  = "menu-open"
)

// Exposed binding names.
const (
	bindingRowsChanged  = "__filterRelayRowsChanged"
	bindingToggleMenu   = "__filterRelayToggleMenu"
	bindingMenuAction   = "__filterRelayMenuAction"
	bindingOutsideClick = "__filterRelayOutsideClick"
)

// stylesheet is appended once per document.
const stylesheet = `() => {
	if (document.getElementById('filterrelay-style')) return false;
	const style = document.createElement('style');
	style.id = 'filterrelay-style';
	style.textContent = ` + "`" + `
		.filterrelay-affordance { position: absolute; right: 4px; top: 50%; transform: translateY(-50%); }
		.filterrelay-affordance-btn { border: none; background: transparent; cursor: pointer; padding: 2px; width: 22px; height: 22px; opacity: 0; transition: opacity .15s; }
		tr:hover .filterrelay-affordance-btn, .filterrelay-affordance.menu-open .filterrelay-affordance-btn { opacity: 1; }
		.filterrelay-dropdown-menu { position: absolute; right: 0; top: 100%; z-index: 10000; background: #fff; border: 1px solid #d0d0d0; border-radius: 4px; box-shadow: 0 2px 8px rgba(0,0,0,.15); min-width: 220px; }
		.filterrelay-dropdown-item { display: block; width: 100%; border: none; background: transparent; text-align: left; padding: 8px 12px; cursor: pointer; font-size: 13px; }
		.filterrelay-dropdown-item:hover { background: #f2f6fa; }
		.filterrelay-notification { position: fixed; top: 16px; right: 16px; z-index: 10001; padding: 10px 16px; border-radius: 4px; color: #fff; font-size: 13px; background-color: #27ae60; box-shadow: 0 2px 8px rgba(0,0,0,.2); }
		.filterrelay-highlight-input { outline: 2px solid #27ae60 !important; transition: outline .3s; }
	` + "`" + `;
	document.head.appendChild(style);
	return true;
}`

// observerScript wires the MutationObserver and the page-wide capture-phase
// click listener. Self-guarding: safe to evaluate again after a route
// change within the same document.
const observerScript = `(rowSelector) => {
	if (window.__filterRelayObserved) return false;
	window.__filterRelayObserved = true;

	const matchesRows = (node) => {
		if (node.nodeType !== Node.ELEMENT_NODE) return false;
		return (node.matches && node.matches(rowSelector)) ||
			(node.querySelector && !!node.querySelector(rowSelector));
	};

	const observer = new MutationObserver((mutations) => {
		for (const mutation of mutations) {
			if (mutation.addedNodes.length === 0) continue;
			if (Array.from(mutation.addedNodes).some(matchesRows)) {
				window.` + bindingRowsChanged + `();
				return;
			}
		}
	});
	observer.observe(document.body, { childList: true, subtree: true });

	document.addEventListener('click', (e) => {
		if (!e.target.closest('.` + containerClass + `')) {
			window.` + bindingOutsideClick + `();
		}
	}, true);

	return true;
}`

// attachScript decorates every matching row lacking an affordance. The
// presence check makes the attach monotonic and idempotent; rows are tagged
// with an identifier the menu machinery keys on. Returns the number of rows
// decorated in this pass.
const attachScript = `(rowSelector) => {
	const rows = document.querySelectorAll(rowSelector);
	let attached = 0;
	rows.forEach((row) => {
		if (row.querySelector('.` + containerClass + `')) return;

		if (!row.dataset.filterrelayRow) {
			window.__filterRelayRowSeq = (window.__filterRelayRowSeq || 0) + 1;
			row.dataset.filterrelayRow = 'row-' + window.__filterRelayRowSeq;
		}
		const rowId = row.dataset.filterrelayRow;

		const container = document.createElement('div');
		container.className = '` + containerClass + `';

		const button = document.createElement('button');
		button.className = '` + buttonClass + `';
		button.setAttribute('data-tooltip', 'Actions');
		button.innerHTML = '<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="currentColor" width="16" height="16"><path d="M12 8c1.1 0 2-.9 2-2s-.9-2-2-2-2 .9-2 2 .9 2 2 2zm0 2c-1.1 0-2 .9-2 2s.9 2 2 2 2-.9 2-2-.9-2-2-2zm0 6c-1.1 0-2 .9-2 2s.9 2 2 2 2-.9 2-2-.9-2-2-2z"/></svg>';
		button.addEventListener('click', (e) => {
			e.stopPropagation();
			window.` + bindingToggleMenu + `(rowId);
		});

		container.appendChild(button);
		const cells = row.querySelectorAll('td');
		const lastCell = cells[cells.length - 1];
		if (lastCell) {
			lastCell.style.position = 'relative';
			lastCell.appendChild(container);
			attached++;
		}
	});
	return attached;
}`

// closeMenusScript removes every open menu. Always safe.
const closeMenusScript = `() => {
	document.querySelectorAll('.` + menuClass + `').forEach((m) => m.remove());
	document.querySelectorAll('.` + containerClass + `.` + menuOpenClass + `').forEach((c) => {
		c.classList.remove('` + menuOpenClass + `');
	});
	return true;
}`

// openMenuScript builds the dropdown for a row. Each item forwards the
// action name plus the row's outer HTML, so the extraction input travels
// with the event.
const openMenuScript = `(rowId) => {
	const row = document.querySelector('[data-filterrelay-row="' + rowId + '"]');
	if (!row) return false;
	const container = row.querySelector('.` + containerClass + `');
	if (!container) return false;

	container.classList.add('` + menuOpenClass + `');

	const menu = document.createElement('div');
	menu.className = '` + menuClass + `';

	const items = [
		{ label: "Open in 'Processes'", action: 'processes' },
		{ label: "Open in 'Screenshots'", action: 'screenshots' },
	];
	items.forEach((item) => {
		const entry = document.createElement('button');
		entry.className = '` + menuItemClass + `';
		entry.textContent = item.label;
		entry.addEventListener('click', (e) => {
			e.stopPropagation();
			window.` + bindingMenuAction + `(item.action, rowId, row.outerHTML);
		});
		menu.appendChild(entry);
	});

	container.appendChild(menu);
	return true;
}`

// openMenuCountScript reports how many menus are open, for diagnostics.
const openMenuCountScript = `() => document.querySelectorAll('.` + menuClass + `').length`
