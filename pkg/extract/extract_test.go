package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scheduledRow(cells ...string) string {
	row := `<tr ng-repeat="scheduledProcess in model.scheduledProcesses">`
	for _, c := range cells {
		row += "<td>" + c + "</td>"
	}
	return row + "</tr>"
}

func instanceRow(cells ...string) string {
	row := `<tr ng-repeat="processInstance in scheduledProcess.instances">`
	for _, c := range cells {
		row += "<td>" + c + "</td>"
	}
	return row + "</tr>"
}

func TestScheduledRowExtraction(t *testing.T) {
	// checkbox, name, key, status, scheduled date, start, end, cron, ...
	row := scheduledRow(
		"", "Invoice Sync", "invoice-sync", "ACTIVE",
		"2026-01-28 08:00:00", "2026-01-28 08:02:37", "2026-01-28 08:15:53",
		"0 * * * *", "false", "false", "5", "-", "3",
	)

	got := FromHTML(row)
	assert.Equal(t, RowScheduled, got.Kind)
	assert.Equal(t, "2026-01-28 08:02:37", got.StartDate)
	assert.Equal(t, "2026-01-28 08:15:53", got.EndDate)
	assert.Empty(t, got.WorkerName, "scheduled table has no worker column")
	assert.True(t, got.Complete())
}

func TestInstanceRowExtraction(t *testing.T) {
	// status, waiting reason, username, start, end, worker, logs, diagram
	row := instanceRow(
		"COMPLETED", "-", "admin",
		"2026-01-28 08:02:37", "2026-01-28 08:15:53", "worker-03",
		"logs", "diagram",
	)

	got := FromHTML(row)
	assert.Equal(t, RowInstance, got.Kind)
	assert.Equal(t, "2026-01-28 08:02:37", got.StartDate)
	assert.Equal(t, "2026-01-28 08:15:53", got.EndDate)
	assert.Equal(t, "worker-03", got.WorkerName)
	assert.True(t, got.Complete())
}

func TestFailsClosedOnShortRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"scheduled row too short", scheduledRow("", "Invoice Sync", "invoice-sync")},
		{"instance row too short", instanceRow("COMPLETED", "-", "admin", "2026-01-28 08:02:37")},
		{"empty row", "<tr></tr>"},
		{"no row at all", "<div>not a table</div>"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromHTML(tt.row)
			assert.Empty(t, got.StartDate)
			assert.Empty(t, got.EndDate)
			assert.False(t, got.Complete())
		})
	}
}

func TestInstanceRowWithoutWorkerColumn(t *testing.T) {
	// Dates present, worker column missing: dates survive, worker stays empty.
	row := instanceRow("COMPLETED", "-", "admin", "2026-01-28 08:02:37", "2026-01-28 08:15:53")

	got := FromHTML(row)
	assert.True(t, got.Complete())
	assert.Empty(t, got.WorkerName)
}

func TestCellTextIsTrimmed(t *testing.T) {
	row := instanceRow(
		"COMPLETED", "-", "admin",
		"\n  2026-01-28 08:02:37  ", "\t2026-01-28 08:15:53\n", "  worker-03 ",
	)

	got := FromHTML(row)
	assert.Equal(t, "2026-01-28 08:02:37", got.StartDate)
	assert.Equal(t, "2026-01-28 08:15:53", got.EndDate)
	assert.Equal(t, "worker-03", got.WorkerName)
}

func TestNestedMarkupInsideCells(t *testing.T) {
	row := `<tr ng-repeat="processInstance in x"><td><span>OK</span></td><td>-</td><td>admin</td>` +
		`<td><span class="date">2026-01-28 08:02:37</span></td>` +
		`<td><span class="date">2026-01-28 08:15:53</span></td>` +
		`<td><b>worker-03</b></td></tr>`

	got := FromHTML(row)
	assert.Equal(t, "2026-01-28 08:02:37", got.StartDate)
	assert.Equal(t, "worker-03", got.WorkerName)
}
