package model

// ConditionalFormattingRule pairs a condition with the formatting to apply
// when it matches. Rules live inside ClassroomSettings; they have no
// relation to any particular student.
type ConditionalFormattingRule struct {
	Name      string `json:"name"`
	IsEnabled bool   `json:"is_enabled"`
	// Priority orders competing rules: higher numeric priority wins when
	// two matched rules set the same formatting attribute.
	Priority   int        `json:"priority"`
	Condition  Condition  `json:"condition"`
	Formatting Formatting `json:"formatting"`
	// ActiveTimes restricts the rule to specific time windows. Nil or
	// empty means always time-eligible.
	ActiveTimes []ActiveTime `json:"active_times,omitempty"`
	// ActiveModes restricts the rule to specific logging modes
	// ("Behavior", "Quiz", "Homework"). Nil or empty means all modes.
	ActiveModes []Mode `json:"active_modes,omitempty"`
}

// Condition selects students by a typed predicate over string parameters.
// The set of valid types and their parameters is closed; see package
// format for the enumeration.
type Condition struct {
	Type       string            `json:"type"`
	Parameters map[string]string `json:"parameters"`
}

// Formatting holds the visual attributes a rule applies. Colors are hex
// strings; empty fields contribute nothing.
type Formatting struct {
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	BorderColor     string `json:"border_color,omitempty"`
	Icon            string `json:"icon,omitempty"`
}

// ActiveTime is one eligibility window: a set of weekdays plus an
// inclusive start/end time-of-day in "HH:MM" form.
type ActiveTime struct {
	DaysOfWeek []string `json:"day_of_week"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
}
