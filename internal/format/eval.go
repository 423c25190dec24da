// Package format evaluates conditional formatting rules against a
// student's derived state. Evaluation is a pure read-side projection:
// deterministic, never persisted, never an error.
//
// The condition type set is closed:
//
//	group                params: group_id
//	                     matches when the student is a member of that group.
//	behavior_count       params: behavior, min_count, window_days
//	                     matches when the student has at least min_count
//	                     logs with the given behavior label in the trailing
//	                     window_days days.
//	quiz_score_threshold params: min_score and/or max_score, quiz_name (optional)
//	                     compares the latest quiz score numerically;
//	                     bounds are inclusive.
//	homework_status      params: status, homework_type (optional)
//	                     equality on the latest homework log.
//	last_behavior        params: behavior
//	                     equality on the latest behavior label.
//	custom_field         params: field, equals
//	                     equality on one of the student's custom fields.
//
// Unknown condition types and missing or malformed parameters make the
// rule not match.
package format

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seatlog/seatlog/internal/model"
)

// Context is everything a rule may inspect: the student's projection
// (latest log fields and custom fields populated), that student's
// behavior history newest first, the ids of groups the student belongs
// to, the current UI mode, and the wall-clock time.
type Context struct {
	Student        model.StudentView
	BehaviorLogs   []model.BehaviorLog
	MemberOfGroups map[int64]bool
	Mode           model.Mode
	Now            time.Time
}

// Evaluate runs the rule pipeline: enabled -> mode-eligible ->
// time-eligible -> condition satisfied. Matching rules compose: their
// formatting attributes merge, and when two rules set the same attribute
// the higher numeric priority wins (ties break by rule name ascending).
// Each result carries only the attributes that rule actually contributes
// after the merge; rules contributing nothing are dropped.
func Evaluate(rules []model.ConditionalFormattingRule, ctx Context) []model.ConditionalFormattingResult {
	var matched []model.ConditionalFormattingRule
	for _, rule := range rules {
		if !rule.IsEnabled {
			continue
		}
		if !modeEligible(rule, ctx.Mode) {
			continue
		}
		if !timeEligible(rule, ctx.Now) {
			continue
		}
		if !conditionSatisfied(rule.Condition, ctx) {
			continue
		}
		matched = append(matched, rule)
	}
	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].Name < matched[j].Name
	})

	claimed := make(map[string]bool)
	var results []model.ConditionalFormattingResult
	for _, rule := range matched {
		contrib := make(map[string]string)
		for attr, value := range attributes(rule.Formatting) {
			if claimed[attr] {
				continue
			}
			claimed[attr] = true
			contrib[attr] = value
		}
		if len(contrib) == 0 {
			continue
		}
		results = append(results, model.ConditionalFormattingResult{
			RuleName:   rule.Name,
			Formatting: contrib,
		})
	}
	return results
}

func attributes(f model.Formatting) map[string]string {
	attrs := make(map[string]string, 4)
	if f.BackgroundColor != "" {
		attrs["background_color"] = f.BackgroundColor
	}
	if f.TextColor != "" {
		attrs["text_color"] = f.TextColor
	}
	if f.BorderColor != "" {
		attrs["border_color"] = f.BorderColor
	}
	if f.Icon != "" {
		attrs["icon"] = f.Icon
	}
	return attrs
}

func modeEligible(rule model.ConditionalFormattingRule, mode model.Mode) bool {
	if len(rule.ActiveModes) == 0 {
		return true
	}
	for _, m := range rule.ActiveModes {
		if m == mode {
			return true
		}
	}
	return false
}

// timeEligible reports whether now falls inside any active window. A rule
// with no windows is always eligible. Window bounds are inclusive and a
// window never spans midnight; end before start matches nothing.
func timeEligible(rule model.ConditionalFormattingRule, now time.Time) bool {
	if len(rule.ActiveTimes) == 0 {
		return true
	}
	weekday := now.Weekday().String()
	minuteOfDay := now.Hour()*60 + now.Minute()
	for _, window := range rule.ActiveTimes {
		if !containsFold(window.DaysOfWeek, weekday) {
			continue
		}
		start, ok := parseMinuteOfDay(window.StartTime)
		if !ok {
			continue
		}
		end, ok := parseMinuteOfDay(window.EndTime)
		if !ok {
			continue
		}
		if minuteOfDay >= start && minuteOfDay <= end {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func parseMinuteOfDay(s string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func conditionSatisfied(c model.Condition, ctx Context) bool {
	switch c.Type {
	case "group":
		return matchGroup(c.Parameters, ctx)
	case "behavior_count":
		return matchBehaviorCount(c.Parameters, ctx)
	case "quiz_score_threshold":
		return matchQuizScore(c.Parameters, ctx)
	case "homework_status":
		return matchHomeworkStatus(c.Parameters, ctx)
	case "last_behavior":
		return matchLastBehavior(c.Parameters, ctx)
	case "custom_field":
		return matchCustomField(c.Parameters, ctx)
	default:
		return false
	}
}

func matchGroup(params map[string]string, ctx Context) bool {
	groupID, err := strconv.ParseInt(params["group_id"], 10, 64)
	if err != nil {
		return false
	}
	return ctx.MemberOfGroups[groupID]
}

func matchBehaviorCount(params map[string]string, ctx Context) bool {
	behavior := params["behavior"]
	if behavior == "" {
		return false
	}
	minCount, err := strconv.Atoi(params["min_count"])
	if err != nil || minCount < 1 {
		return false
	}
	windowDays, err := strconv.Atoi(params["window_days"])
	if err != nil || windowDays < 1 {
		return false
	}
	cutoff := ctx.Now.AddDate(0, 0, -windowDays)
	count := 0
	for _, l := range ctx.BehaviorLogs {
		if l.Behavior == behavior && !l.Timestamp.Before(cutoff) {
			count++
			if count >= minCount {
				return true
			}
		}
	}
	return false
}

func matchQuizScore(params map[string]string, ctx Context) bool {
	if ctx.Student.LastQuizScore == nil {
		return false
	}
	if name := params["quiz_name"]; name != "" {
		if ctx.Student.LastQuiz == nil || *ctx.Student.LastQuiz != name {
			return false
		}
	}
	score, ok := parseScore(*ctx.Student.LastQuizScore)
	if !ok {
		return false
	}
	minStr, hasMin := params["min_score"]
	maxStr, hasMax := params["max_score"]
	if !hasMin && !hasMax {
		return false
	}
	if hasMin {
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil || score < min {
			return false
		}
	}
	if hasMax {
		max, err := strconv.ParseFloat(maxStr, 64)
		if err != nil || score > max {
			return false
		}
	}
	return true
}

// parseScore interprets a stored quiz score as a number: a plain float,
// a percentage ("85%"), or a fraction ("8/10", scaled to 0-100). Anything
// else is not comparable and never matches.
func parseScore(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if num, denom, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(denom), 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d * 100, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func matchHomeworkStatus(params map[string]string, ctx Context) bool {
	status := params["status"]
	if status == "" || ctx.Student.LastHomeworkStatus == nil {
		return false
	}
	if typ := params["homework_type"]; typ != "" {
		if ctx.Student.LastHomework == nil || *ctx.Student.LastHomework != typ {
			return false
		}
	}
	return *ctx.Student.LastHomeworkStatus == status
}

func matchLastBehavior(params map[string]string, ctx Context) bool {
	behavior := params["behavior"]
	if behavior == "" || ctx.Student.LastBehavior == nil {
		return false
	}
	return *ctx.Student.LastBehavior == behavior
}

func matchCustomField(params map[string]string, ctx Context) bool {
	field := params["field"]
	if field == "" {
		return false
	}
	want, ok := params["equals"]
	if !ok {
		return false
	}
	got, ok := ctx.Student.CustomFields[field]
	return ok && got == want
}
