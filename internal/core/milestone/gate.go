package milestone

// Severity marks how a gated milestone is surfaced.
type Severity string

// Severity values.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Report pairs a milestone with its aggregated status.
type Report struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
	Info  Info   `json:"info"`
}

// Health recomputes the report's classification.
func (r Report) Health() Health {
	return r.Info.Health()
}

// Notice is a gating message attached to one milestone.
type Notice struct {
	Milestone string      `json:"milestone"`
	Severity  Severity    `json:"severity"`
	Message   string      `json:"message"`
	Failures  []ItemError `json:"failures,omitempty"`
}

// Gating is the outcome of deciding which milestones feed an aggregate
// operation such as record generation.
type Gating struct {
	Included []Report `json:"included"`
	Excluded []Report `json:"excluded"`
	Notices  []Notice `json:"notices"`
}

// Gate excludes failed milestones with an error notice and includes partial
// ones with a warning naming the failing items.
func Gate(reports []Report) Gating {
	g := Gating{Included: []Report{}, Excluded: []Report{}, Notices: []Notice{}}

	for _, r := range reports {
		switch r.Health() {
		case HealthFailed:
			g.Excluded = append(g.Excluded, r)
			msg := "all issue status lookups failed"
			if r.Info.ListFailed {
				msg = "issue list could not be loaded: " + r.Info.ListError
			}
			g.Notices = append(g.Notices, Notice{
				Milestone: r.Name,
				Severity:  SeverityError,
				Message:   msg,
				Failures:  r.Info.StatusErrors,
			})
		case HealthPartial:
			g.Included = append(g.Included, r)
			g.Notices = append(g.Notices, Notice{
				Milestone: r.Name,
				Severity:  SeverityWarning,
				Message:   "some issue status lookups failed",
				Failures:  r.Info.StatusErrors,
			})
		default:
			g.Included = append(g.Included, r)
		}
	}

	return g
}
