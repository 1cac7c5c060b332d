package pdfreport

// ChartKind selects how the department distribution is drawn.
type ChartKind int

const (
	ChartColumns ChartKind = iota
	ChartRows
)

func (k ChartKind) String() string {
	if k == ChartRows {
		return "rows"
	}
	return "columns"
}

// Column chart limits, in millimetres.
const (
	maxColumnGroups = 8
	minBarWidth     = 12.0
	maxBarWidth     = 30.0
	barFill         = 0.7
)

// ChartLayout is the computed geometry of the summary chart.
type ChartLayout struct {
	Kind     ChartKind
	BarWidth float64
	Gap      float64
	Offset   float64
}

// PlanChart fits groups bars into width. Too many groups, or bars narrower than
// minBarWidth, switch to a row chart.
func PlanChart(groups int, width float64) ChartLayout {
	if groups <= 0 || groups > maxColumnGroups || width <= 0 {
		return ChartLayout{Kind: ChartRows}
	}
	slot := width / float64(groups)
	bar := slot * barFill
	if bar < minBarWidth {
		return ChartLayout{Kind: ChartRows}
	}
	if bar > maxBarWidth {
		bar = maxBarWidth
	}
	gap := slot - bar
	return ChartLayout{
		Kind:     ChartColumns,
		BarWidth: bar,
		Gap:      gap,
		Offset:   gap / 2,
	}
}

// stage is a step of report rendering.
type stage int

const (
	stageCover stage = iota
	stageSummary
	stageDepartment
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageCover:
		return "cover"
	case stageSummary:
		return "summary"
	case stageDepartment:
		return "department"
	default:
		return "done"
	}
}
