package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// NoSectorLabel names the synthetic bucket for tickets without a department.
const NoSectorLabel = "No sector"

// ReportMetrics is the flat aggregate shown on screen and printed in the PDF.
type ReportMetrics struct {
	Total           int
	Open            int
	InProgress      int
	Resolved        int
	Pending         int
	CompletedOnTime int
	Overdue         int
	CompletionRate  int
}

// DepartmentCount holds per-department status counts.
type DepartmentCount struct {
	Name       string
	NoSector   bool
	Total      int
	Open       int
	InProgress int
	Resolved   int
	Overdue    int
}

// DepartmentGroup is a department bucket together with its tickets.
type DepartmentGroup struct {
	DepartmentCount
	Tickets []Ticket
}

// DateRange is an inclusive creation-time window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DayRange widens start and end to whole days in loc: start at 00:00:00.000,
// end at 23:59:59.999.
func DayRange(start, end time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.Local
	}
	s := start.In(loc)
	e := end.In(loc)
	return DateRange{
		Start: time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc),
		End:   time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(999*time.Millisecond), loc),
	}
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Summarize computes report metrics over tickets. now decides overdue status.
func Summarize(tickets []Ticket, now time.Time) ReportMetrics {
	m := ReportMetrics{Total: len(tickets)}
	for i := range tickets {
		t := &tickets[i]
		switch t.Status {
		case TicketStatusClosed:
			m.Resolved++
		case TicketStatusInProgress:
			m.InProgress++
		case TicketStatusOpen:
			m.Open++
		}
		if t.CompletedOnTime() {
			m.CompletedOnTime++
		}
		if t.IsOverdue(now) {
			m.Overdue++
		}
	}
	m.Pending = m.Open + m.InProgress
	m.CompletionRate = Percent(m.Resolved, m.Total)
	return m
}

// Percent returns round(part/total*100), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// FilterByDepartment keeps tickets whose department equals sector exactly.
// An empty sector keeps everything.
func FilterByDepartment(tickets []Ticket, sector string) []Ticket {
	if sector == "" {
		return tickets
	}
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Department == sector {
			out = append(out, t)
		}
	}
	return out
}

// GroupByDepartment buckets tickets by department. Buckets come out in this order:
// every known sector (even when empty), departments seen on tickets but missing from
// sectors (sorted), then the NoSectorLabel bucket for blank departments, if any.
func GroupByDepartment(tickets []Ticket, sectors []string, now time.Time) []DepartmentGroup {
	index := make(map[string]int)
	groups := make([]DepartmentGroup, 0, len(sectors)+1)
	for _, name := range sectors {
		if _, dup := index[name]; dup || strings.TrimSpace(name) == "" {
			continue
		}
		index[name] = len(groups)
		groups = append(groups, DepartmentGroup{DepartmentCount: DepartmentCount{Name: name}})
	}

	var unknown []string
	var noSector *DepartmentGroup
	for _, t := range tickets {
		var g *DepartmentGroup
		if strings.TrimSpace(t.Department) == "" {
			if noSector == nil {
				noSector = &DepartmentGroup{DepartmentCount: DepartmentCount{Name: NoSectorLabel, NoSector: true}}
			}
			g = noSector
		} else {
			pos, ok := index[t.Department]
			if !ok {
				pos = len(groups)
				index[t.Department] = pos
				groups = append(groups, DepartmentGroup{DepartmentCount: DepartmentCount{Name: t.Department}})
				unknown = append(unknown, t.Department)
			}
			g = &groups[pos]
		}
		g.add(t, now)
	}

	if len(unknown) > 1 {
		known := groups[:len(groups)-len(unknown)]
		extra := append([]DepartmentGroup(nil), groups[len(known):]...)
		sort.SliceStable(extra, func(i, j int) bool { return extra[i].Name < extra[j].Name })
		groups = append(known, extra...)
	}
	if noSector != nil {
		groups = append(groups, *noSector)
	}
	return groups
}

// Counts strips the ticket lists from groups.
func Counts(groups []DepartmentGroup) []DepartmentCount {
	out := make([]DepartmentCount, len(groups))
	for i, g := range groups {
		out[i] = g.DepartmentCount
	}
	return out
}

func (g *DepartmentGroup) add(t Ticket, now time.Time) {
	g.Total++
	switch t.Status {
	case TicketStatusClosed:
		g.Resolved++
	case TicketStatusInProgress:
		g.InProgress++
	case TicketStatusOpen:
		g.Open++
	}
	if t.IsOverdue(now) {
		g.Overdue++
	}
	g.Tickets = append(g.Tickets, t)
}
