package driver

import "github.com/hostelops/turnkey/internal/schedule"

// Param describes one configurable driver parameter. Schemas are assembled
// from the reusable groups below so every driver documents the same knobs
// the same way.
type Param struct {
	Name        string   `json:"name"`
	Group       string   `json:"group"`
	Type        string   `json:"type"` // "string", "bool", "int", "multienum"
	Default     string   `json:"default,omitempty"`
	Options     []string `json:"options,omitempty"`
	Description string   `json:"description,omitempty"`
}

func schedulingParams(allowed []schedule.Type) []Param {
	options := make([]string, 0, len(allowed))
	for _, t := range allowed {
		options = append(options, string(t))
	}
	return []Param{
		{
			Name:        "schedules",
			Group:       "scheduling",
			Type:        "multienum",
			Options:     options,
			Description: "Schedule types applied to each confirmed booking",
		},
		{
			Name:        "auto_assign",
			Group:       "scheduling",
			Type:        "bool",
			Default:     "false",
			Description: "Assign the configured operators to generated tasks",
		},
	}
}

func filterParams() []Param {
	return []Param{
		{
			Name:        "operators",
			Group:       "filtering",
			Type:        "string",
			Description: "Comma-separated operator ids eligible for this area",
		},
	}
}

func durationParams() []Param {
	return []Param{
		{
			Name:        "default_duration_min",
			Group:       "duration",
			Type:        "int",
			Default:     "45",
			Description: "Expected minutes of work per generated task",
		},
	}
}

func assistParams() []Param {
	return []Param{
		{
			Name:        "assist",
			Group:       "assist",
			Type:        "bool",
			Default:     "false",
			Description: "Enable assisted note suggestions for this area",
		},
	}
}

func visibilityParams() []Param {
	return []Param{
		{
			Name:        "visibility",
			Group:       "visibility",
			Type:        "string",
			Default:     "staff",
			Description: "Who can see tasks in this area",
		},
	}
}

func mergeParams(groups ...[]Param) []Param {
	var out []Param
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
