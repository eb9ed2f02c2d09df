package services

import (
	"fmt"
	"strings"

	"github.com/goalie-study/goalie-backend/internal/flows"
)

// Per-dimension instruction templates for the suggestion service. The
// wording steers the model toward lightly edited goal variants rather than
// full rewrites.

const promptVariantFormat = "Please return 3 lightly edited versions, numbered in this format:\n1. ...\n2. ...\n3. ..."

func buildPrompt(dimension flows.Dimension, goalText string, existingTasks []string) string {
	switch dimension {
	case flows.DimensionSpecific:
		return fmt.Sprintf(`You are a goal refinement assistant.

Your task is to make the following goal more specific with minimal edits.

A specific goal describes one clear outcome or focus area — not something vague like "do better" or "be more consistent." Avoid bundling multiple actions.

Examples:
Original: Do better in interviews
Specific: Improve my interview skills by practicing behavioral questions

Original: Get healthier
Specific: Improve my health by building a consistent walking routine

Now revise the goal below to be more specific. Suggest 3 lightly edited versions:

[Goal]
%s
[/Goal]

%s`, goalText, promptVariantFormat)

	case flows.DimensionMeasurable:
		return fmt.Sprintf(`You are a goal refinement assistant.

Your task is to make the goal more measurable with minimal edits.

A measurable goal includes a way to track progress — like a number, frequency, or result — while still being a high-level goal that will take around 2 weeks of effort.

Example:
Original: Learn a new skill
Measurable: Complete a free transcription course to learn a new skill

Now improve the goal below by making it more measurable (without turning it into a one-off task).

[Goal]
%s
[/Goal]

%s`, goalText, promptVariantFormat)

	case flows.DimensionAchievable:
		return fmt.Sprintf(`You are a goal refinement assistant.

Your task is to make the goal more achievable with minimal edits.

An achievable goal should still feel meaningful and take at least 2 weeks to make progress — but it should fit the person's current time, energy, and situation.

Example:
Original: Become fluent in Spanish
Achievable: Complete 10 beginner Spanish lessons to start building fluency

Now improve the goal below by making it more achievable (without shrinking it into a short weekly task).

[Goal]
%s
[/Goal]

%s`, goalText, promptVariantFormat)

	case flows.DimensionRelevant:
		return fmt.Sprintf(`You are a goal refinement assistant.

Your task is to make the goal feel more personally meaningful with minimal edits.

A relevant goal includes a reason it matters to the person — something tied to their values, interests, goals, or current priorities.

Example:
Original: Learn data entry
Relevant: Learn data entry to access more flexible online jobs

Now improve the goal below by making it more personally relevant.

[Goal]
%s
[/Goal]

%s`, goalText, promptVariantFormat)

	case flows.DimensionTimebound:
		return fmt.Sprintf(`You are a goal refinement assistant.

Your task is to add a clear timeframe to the goal with minimal edits.

A time-bound goal includes a deadline, schedule, or timeframe — something realistic that gives the goal structure and momentum over 2+ weeks.

Example:
Original: Improve my typing speed
Time-bound: Improve my typing speed by completing a 2-week typing bootcamp

Now improve the goal below by making it more time-bound.

[Goal]
%s
[/Goal]

%s`, goalText, promptVariantFormat)

	case flows.DimensionTasks:
		existing := "None"
		if len(existingTasks) > 0 {
			var lines []string
			for _, task := range existingTasks {
				lines = append(lines, "- "+task)
			}
			existing = strings.Join(lines, "\n")
		}
		return fmt.Sprintf(`You help users break down SMART goals into short, concrete weekly tasks.

The user's SMART goal is:
[Goal]
%s
[/Goal]

Tasks already added (do not repeat or rephrase these):
%s

Suggest exactly 3 new weekly tasks. Each task should:
- Be actionable and specific (describe the exact action)
- Fit into a single sentence, under 15 words
- Be achievable within one week
- Include a time, quantity, or duration if relevant

Avoid:
- Rambling or multiple steps per task
- Repeating existing tasks
- Generic phrasing like "try to..." or "maybe"

Respond with only the 3 tasks, in this format:

1. ...
2. ...
3. ...`, goalText, existing)

	case flows.DimensionSummary:
		return fmt.Sprintf(`You are a supportive goal coach.

Your task is to summarize the user's weekly reflection in a warm and encouraging tone.

1. Keep the summary short (1–2 sentences).
2. Focus on any progress made — even small steps.
3. If the user is struggling, highlight their effort and suggest they keep going.

Reflection:
%s

Return only the summary. End with a short positive note (e.g., "See you next time!" or "You're doing great — keep it up!")`, goalText)

	default:
		return goalText
	}
}
