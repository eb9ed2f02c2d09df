package services

import (
	"fmt"

	"github.com/goalie-study/goalie-backend/internal/flows"
)

// FallbackSuggestion returns the deterministic offline response for a
// dimension. This is a first-class response path: it serves FAKE_MODE
// deployments and every transport failure, so it must never be empty.
func FallbackSuggestion(dimension flows.Dimension, goalText string) string {
	switch dimension {
	case flows.DimensionSpecific:
		return fmt.Sprintf(
			"1. Clarify and define exactly what you plan to do. e.g., instead of '%s', say 'Research and outline my topic for the article'<br>"+
				"2. Replace general terms with actionable verbs. e.g., 'Draft the first two sections of my article'<br>"+
				"3. Add a clear action phrase, e.g., 'Schedule two sessions to focus on writing this week'",
			goalText)
	case flows.DimensionMeasurable:
		return fmt.Sprintf(
			"1. Add frequency, e.g., '%s, three times this week'<br>"+
				"2. Add quantity, e.g., '%s, for at least 30 minutes each time'<br>"+
				"3. Define success, e.g., 'Complete one full version of the task'",
			goalText, goalText)
	case flows.DimensionAchievable:
		return fmt.Sprintf(
			"1. Scale it down, e.g., 'Do a first draft' instead of 'Finish the full project'<br>"+
				"2. Choose just one focus area, e.g., 'Just research background sources'<br>"+
				"3. Limit time, e.g., '%s, but only for 1 hour per session'",
			goalText)
	case flows.DimensionRelevant:
		return fmt.Sprintf(
			"1. Add motivation, e.g., '%s to prepare for job interviews'<br>"+
				"2. Tie to a deadline, e.g., '%s because the application is due next month'<br>"+
				"3. Link to values, e.g., '%s to improve my skills in something I care about'",
			goalText, goalText, goalText)
	case flows.DimensionTimebound:
		return fmt.Sprintf(
			"1. Add a deadline, e.g., '%s by Friday'<br>"+
				"2. Use a schedule, e.g., '%s every morning at 9 AM'<br>"+
				"3. Set a timeframe, e.g., '%s for the next 2 weeks'",
			goalText, goalText, goalText)
	case flows.DimensionSummary:
		return "This week, you made progress on your goal. Stay consistent and focus on one step at a time. " +
			"You're doing great, keep going!"
	case flows.DimensionTasks:
		return "1. Break the goal into parts<br>" +
			"2. Schedule a first step<br>" +
			"3. Identify one small, specific task to complete by Friday"
	default:
		return "No fallback guidance available for this type."
	}
}
