package flows

// GoalSettingFlow refines a free-text goal through the five SMART checks.
// Each "No" branch detours through a suggestion step before the participant
// rewrites their goal. "{current_goal}" and "{study_period}" are substituted
// at render time.
func GoalSettingFlow() *Flow {
	return &Flow{
		Name:  "goal_setting",
		Start: "initial_goal",
		Steps: map[string]Step{
			"initial_goal": TextInputStep{
				Text: []string{
					"Let's get started!",
					"You'll only set one personal goal for this experiment, so choose something you really care about.",
					"Pick a goal you can make meaningful progress on over {study_period}. It doesn't need to be finished by then, but it should be something you're genuinely motivated to work on.",
					"Think of it as a small project, habit, or outcome that's realistic, meaningful, and important to you right now.",
					"Later, you'll break this into 2–3 smaller tasks for the week. But for now, just focus on the big picture.",
					"Please type the goal you would like to achieve.",
				},
				Slot: SlotCurrentGoal,
				Next: "check_specific",
			},
			"check_specific": ChoiceStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Let's check: is your goal specific enough?",
					"A specific goal clearly describes one main thing you want to achieve, not something vague like 'do better' or 'be more consistent.'",
				},
				Buttons: []string{"Yes", "No"},
				Next:    map[string]string{"Yes": "check_measurable", "No": "fix_specific"},
			},
			"fix_specific": SuggestionStep{
				Text: []string{
					"No worries, let's tweak your goal to make it a little clearer and more focused.",
				},
				Dimension: DimensionSpecific,
				Next:      "input_specific",
			},
			"input_specific": TextInputStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Based on the suggestion above, try rewriting it to be more specific. Just type your updated version below.",
				},
				Slot: SlotCurrentGoal,
				Next: "check_measurable",
			},
			"check_measurable": ChoiceStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Now let's see, is your goal measurable?",
					"This means you should be able to tell how much progress you've made or when it's done, like a number, frequency, or result.",
				},
				Buttons: []string{"Yes", "No"},
				Next:    map[string]string{"Yes": "check_achievable", "No": "fix_measurable"},
			},
			"fix_measurable": SuggestionStep{
				Text: []string{
					"Let's fine-tune your goal so it's easier to track. Just a small adjustment!",
				},
				Dimension: DimensionMeasurable,
				Next:      "input_measurable",
			},
			"input_measurable": TextInputStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Based on the suggestion above, try rewriting it to be more measurable. Just type your updated version below.",
				},
				Slot: SlotCurrentGoal,
				Next: "check_achievable",
			},
			"check_achievable": ChoiceStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Next up: is your goal achievable for you?",
					"An achievable goal is realistic and fits your current time, energy, and resources. Not too overwhelming, not too easy.",
				},
				Buttons: []string{"Yes", "No"},
				Next:    map[string]string{"Yes": "check_relevant", "No": "fix_achievable"},
			},
			"fix_achievable": SuggestionStep{
				Text: []string{
					"Alright, let's scale it down just a bit so it feels more doable for you this week.",
				},
				Dimension: DimensionAchievable,
				Next:      "input_achievable",
			},
			"input_achievable": TextInputStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Based on the suggestion above, try rewriting it to be more achievable. Just type your updated version below.",
				},
				Slot: SlotCurrentGoal,
				Next: "check_relevant",
			},
			"check_relevant": ChoiceStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Now let's check, does your goal feel personally meaningful?",
					"A relevant goal should matter to <b>you</b>, something that connects to your values, interests, or priorities.",
				},
				Buttons: []string{"Yes", "No"},
				Next:    map[string]string{"Yes": "check_timebound", "No": "fix_relevant"},
			},
			"fix_relevant": SuggestionStep{
				Text: []string{
					"Let's strengthen the connection! Why does this goal matter to you personally?",
				},
				Dimension: DimensionRelevant,
				Next:      "input_relevant",
			},
			"input_relevant": TextInputStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Based on the suggestion above, try rewriting it to be more relevant. Just type your updated version below.",
				},
				Slot: SlotCurrentGoal,
				Next: "check_timebound",
			},
			"check_timebound": ChoiceStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Almost done! Does your goal have a clear timeframe?",
					"A time-bound goal includes a deadline, schedule, or review point, something that tells you <b>when</b> it will happen.",
				},
				Buttons: []string{"Yes", "No"},
				Next:    map[string]string{"Yes": "finalize_goal", "No": "fix_timebound"},
			},
			"fix_timebound": SuggestionStep{
				Text: []string{
					"Let's add a simple timeframe to give your goal more structure and momentum.",
				},
				Dimension: DimensionTimebound,
				Next:      "input_timebound",
			},
			"input_timebound": TextInputStep{
				Text: []string{
					"Here's your current goal: {current_goal}",
					"Based on the suggestion above, try rewriting it to be timebound. Just type your updated version below.",
				},
				Slot: SlotCurrentGoal,
				Next: "finalize_goal",
			},
			"finalize_goal": ChoiceStep{
				Text: []string{
					"Here's your finalized SMART goal!",
					"{current_goal}",
					"You've done a great job refining your goal, it's looking solid now!",
					"Would you like to save it or make manual edits?",
				},
				Buttons: []string{"Save Goal", "Edit Manually"},
				Next:    map[string]string{"Save Goal": "save_goal", "Edit Manually": "edit_goal"},
			},
			"edit_goal": TextInputStep{
				Text: []string{
					"Please type your edited version of the SMART goal.",
				},
				Slot: SlotCurrentGoal,
				Next: "save_goal",
			},
			"save_goal": TerminalStep{
				Text: []string{
					"Your goal has been saved successfully!",
				},
				Effect: EffectSaveGoal,
			},
		},
	}
}
