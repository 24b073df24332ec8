// Package extract reads filter-relevant fields out of a console table row.
//
// Two table shapes exist: the scheduled-process table and the nested
// process-instance table. The row's ng-repeat marker attribute discriminates
// between them, and each shape has its own fixed column-to-field mapping.
// Extraction fails closed: a row with too few columns yields empty date
// fields rather than an error, and callers must treat empty start/end as a
// terminal extraction failure.
package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// RowKind discriminates the two table shapes.
type RowKind int

const (
	// RowScheduled is a row of the scheduled-process table.
	RowScheduled RowKind = iota

	// RowInstance is a row of the nested process-instance table.
	RowInstance
)

func (k RowKind) String() string {
	if k == RowInstance {
		return "instance"
	}
	return "scheduled"
}

// Column indexes (0-based, header row excluded) for the scheduled table.
const (
	scheduledColStartDate = 5
	scheduledColEndDate   = 6
)

// Column indexes for the instance table.
const (
	instanceColStartDate  = 3
	instanceColEndDate    = 4
	instanceColWorkerName = 5
)

// instanceMarker appears in the ng-repeat attribute of instance rows.
const instanceMarker = "processInstance"

// RowRecord is the ephemeral extraction result. Empty strings encode absent
// fields; callers short-circuit when StartDate or EndDate is empty.
type RowRecord struct {
	StartDate  string
	EndDate    string
	WorkerName string
	Kind       RowKind
}

// Complete reports whether both date fields were extracted.
func (r RowRecord) Complete() bool {
	return r.StartDate != "" && r.EndDate != ""
}

// FromHTML extracts a RowRecord from a table row's outer HTML. It never
// returns an error: malformed or truncated rows produce an incomplete record.
func FromHTML(outerHTML string) RowRecord {
	// A bare tr parsed outside a table context gets foster-parented by the
	// HTML5 algorithm, losing its cells. Re-wrap before parsing.
	doc, err := html.Parse(strings.NewReader("<table><tbody>" + outerHTML + "</tbody></table>"))
	if err != nil {
		return RowRecord{}
	}

	row := findRow(doc)
	if row == nil {
		return RowRecord{}
	}

	kind := RowScheduled
	if strings.Contains(attr(row, "ng-repeat"), instanceMarker) {
		kind = RowInstance
	}

	cells := cellTexts(row)
	record := RowRecord{Kind: kind}

	switch kind {
	case RowInstance:
		if len(cells) <= instanceColEndDate {
			return record
		}
		record.StartDate = cells[instanceColStartDate]
		record.EndDate = cells[instanceColEndDate]
		if len(cells) > instanceColWorkerName {
			record.WorkerName = cells[instanceColWorkerName]
		}
	default:
		if len(cells) <= scheduledColEndDate {
			return record
		}
		record.StartDate = cells[scheduledColStartDate]
		record.EndDate = cells[scheduledColEndDate]
		// The scheduled table carries no worker column.
	}

	return record
}

// findRow locates the first tr element in the parsed fragment.
func findRow(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "tr" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if row := findRow(c); row != nil {
			return row
		}
	}
	return nil
}

// cellTexts collects the trimmed text content of the row's direct td cells.
func cellTexts(row *html.Node) []string {
	var cells []string
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "td" {
			cells = append(cells, strings.TrimSpace(textContent(c)))
		}
	}
	return cells
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
