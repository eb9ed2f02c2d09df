package flows

// TrainingFlow walks a participant through the SMART framework with a worked
// example before they set their own goal. Button-only; no free text.
func TrainingFlow() *Flow {
	return &Flow{
		Name:  "smart_training",
		Start: "intro",
		Steps: map[string]Step{
			"intro": ChoiceStep{
				Text: []string{
					"Great! I'll walk you through how to set a strong goal and help you track your progress over time.",
					"Are you ready to get started?",
				},
				Buttons: []string{"Yes", "No"},
				Next:    map[string]string{"Yes": "goal_intro", "No": "exit"},
			},
			"exit": ChoiceStep{
				Text: []string{
					"No problem. Take your time — the training only takes a few minutes.",
					"Ready when you are.",
				},
				Buttons: []string{"Let's start"},
				Next:    map[string]string{"Let's start": "goal_intro"},
			},
			"goal_intro": ChoiceStep{
				Text: []string{
					"Let's get started!",
					"First, let's talk about goal-setting.",
					"Goal setting means deciding on something you want to achieve, and creating a plan to make it happen.",
					"It's how we turn a vague idea into something you can actually work toward.",
					"Studies have shown that setting specific and challenging goals can significantly improve performance.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "how_often"},
			},
			"how_often": ChoiceStep{
				Text: []string{
					"Do you often consciously set goals to help you achieve what you want in life?",
				},
				Buttons: []string{"All the time", "Sometimes", "Not really"},
				Next: map[string]string{
					"All the time": "smart_intro_familiar",
					"Sometimes":    "smart_intro_familiar",
					"Not really":   "smart_intro_new",
				},
			},
			"smart_intro_familiar": ChoiceStep{
				Text: []string{
					"That's great! I'm here to help you take it to the next level.",
					"To do that, we'll use something called SMART goals. Ready to dive in?",
				},
				Buttons: []string{"Let's do this!"},
				Next:    map[string]string{"Let's do this!": "smart_definition"},
			},
			"smart_intro_new": ChoiceStep{
				Text: []string{
					"No problem! That's exactly what I'm here for.",
					"I'll show you a method called SMART goals. Ready to dive in?",
				},
				Buttons: []string{"Let's do this!"},
				Next:    map[string]string{"Let's do this!": "smart_definition"},
			},
			"smart_definition": ChoiceStep{
				Text: []string{
					"SMART stands for Specific, Measurable, Achievable, Relevant, and Time-bound.",
					"Want to watch a short 1-minute animation before we continue?",
				},
				Buttons: []string{"Yes, show me", "No, let's keep going"},
				Next: map[string]string{
					"Yes, show me":         "smart_video",
					"No, let's keep going": "specific_intro",
				},
			},
			"smart_video": ChoiceStep{
				Text: []string{
					"Here's the video:<br><a href=\"https://www.youtube.com/watch?v=yA53yhiOe04\" target=\"_blank\">Watch: SMART Goals Explained (1 min)</a>",
					"When you're ready, we'll break it down together.",
				},
				Buttons: []string{"I'm ready"},
				Next:    map[string]string{"I'm ready": "specific_intro"},
			},
			"specific_intro": ChoiceStep{
				Text: []string{
					"For this experiment, you'll set one meaningful goal: something that will take at least two weeks to make progress on. We'll use the SMART framework to help shape it.",
					"Let's say someone sets this goal: 'I want to improve my job prospects by learning a new skill.'",
					"Is that goal specific enough?",
				},
				Buttons: []string{"Yes", "No"},
				Next: map[string]string{
					"Yes": "specific_feedback_yes",
					"No":  "specific_feedback_no",
				},
			},
			"specific_feedback_yes": ChoiceStep{
				Text: []string{
					"Close! It's heading in the right direction!",
					"But we can make it more specific by naming the skill or method, like: 'Complete a free transcription course.'",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "specific_example"},
			},
			"specific_feedback_no": ChoiceStep{
				Text: []string{
					"Right! It's a bit broad. We can narrow it down by choosing one skill or course.",
					"For example: 'Complete a free transcription course.'",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "specific_example"},
			},
			"specific_example": ChoiceStep{
				Text: []string{
					"Which of these is more specific?",
					"1. I want to learn new skills.",
					"2. I want to complete a free transcription course.",
				},
				Buttons: []string{"1", "2"},
				Next: map[string]string{
					"1": "specific_explain",
					"2": "specific_confirm",
				},
			},
			"specific_explain": ChoiceStep{
				Text: []string{
					"That's a great start, but it's still too vague.",
					"It's better to focus on one clear action, like completing a course on transcription.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "measurable_intro"},
			},
			"specific_confirm": ChoiceStep{
				Text: []string{
					"Exactly. That version gives us a single, focused outcome.",
					"We'll use: 'Complete a free transcription course.' going forward.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "measurable_intro"},
			},
			"measurable_intro": ChoiceStep{
				Text: []string{
					"Now for M: Measurable.",
					"Does 'complete a free transcription course' clearly tell us how to track progress?",
				},
				Buttons: []string{"Yes", "No"},
				Next: map[string]string{
					"Yes": "measurable_almost",
					"No":  "measurable_right",
				},
			},
			"measurable_almost": ChoiceStep{
				Text: []string{
					"Not bad, it's measurable by whether you finish or not.",
					"But we can be more detailed by including how many modules or lessons to complete each week.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "measurable_example"},
			},
			"measurable_right": ChoiceStep{
				Text: []string{
					"Correct! Course completion is a clear, trackable outcome.",
					"Still, adding lesson or module targets makes it even stronger.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "measurable_example"},
			},
			"measurable_example": ChoiceStep{
				Text: []string{
					"Which of these is more measurable?",
					"1. Complete a free transcription course.",
					"2. Complete a free transcription course with at least 3 modules this week.",
				},
				Buttons: []string{"1", "2"},
				Next: map[string]string{
					"1": "measurable_explain",
					"2": "measurable_confirm",
				},
			},
			"measurable_explain": ChoiceStep{
				Text: []string{
					"That's measurable, but we can make it more structured by setting a weekly target.",
					"This helps track progress along the way.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "achievable_intro"},
			},
			"measurable_confirm": ChoiceStep{
				Text: []string{
					"Perfect! Weekly milestones make progress easier to follow and adjust if needed.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "achievable_intro"},
			},
			"achievable_intro": ChoiceStep{
				Text: []string{
					"Next is A: Achievable.",
					"Think about this goal: 'Complete a free transcription course with at least 3 modules this week.'",
					"Is that realistic for someone with other work and responsibilities?",
				},
				Buttons: []string{"Yes", "No"},
				Next: map[string]string{
					"Yes": "achievable_confirm",
					"No":  "achievable_explain",
				},
			},
			"achievable_confirm": ChoiceStep{
				Text: []string{
					"Exactly! It's focused but doable, that's what we want.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "relevant_intro"},
			},
			"achievable_explain": ChoiceStep{
				Text: []string{
					"Good thinking! If that feels like too much, it can be scaled down.",
					"The key is to challenge yourself without making it overwhelming.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "relevant_intro"},
			},
			"relevant_intro": ChoiceStep{
				Text: []string{
					"R stands for Relevant: the goal should matter to <b>you</b>.",
					"Why might someone want to complete a transcription course?",
				},
				Buttons: []string{
					"To qualify for better-paying jobs",
					"To learn new freelance skills",
					"To feel more confident applying to gigs",
				},
				Next: map[string]string{
					"To qualify for better-paying jobs":       "relevant_confirm",
					"To learn new freelance skills":           "relevant_confirm",
					"To feel more confident applying to gigs": "relevant_confirm",
				},
			},
			"relevant_confirm": ChoiceStep{
				Text: []string{
					"Exactly! When a goal connects to something personal, you're more likely to stick with it.",
				},
				Buttons: []string{"Continue"},
				Next:    map[string]string{"Continue": "time_intro"},
			},
			"time_intro": ChoiceStep{
				Text: []string{
					"Lastly, T: Time-bound.",
					"We'll add a clear timeframe, this helps build momentum and sets a finish line.",
					"Which of these timeframes would make the goal more time-bound?",
				},
				Buttons: []string{
					"Complete the course within 2 weeks",
					"Finish 3 modules by this Friday",
					"Review progress after each module",
				},
				Next: map[string]string{
					"Complete the course within 2 weeks": "wrap_up",
					"Finish 3 modules by this Friday":    "wrap_up",
					"Review progress after each module":  "wrap_up",
				},
			},
			"wrap_up": ChoiceStep{
				Text: []string{
					"Awesome! You've now seen how a vague goal becomes SMART:",
					"<b>'I want to improve my job prospects by learning a new skill.'</b>",
					"→ <b>'I want to complete a free transcription course within 2 weeks.'</b>",
					"For this study, you'll pick one big-picture goal, just like the example above. Later, we'll break it into 2–3 small weekly tasks to help you stay on track.",
					"You're ready to set your own SMART goal now!",
				},
				Buttons: []string{"Continue to goal setting"},
				Next:    map[string]string{"Continue to goal setting": "end"},
			},
			"end": TerminalStep{
				Text: []string{
					"SMART goal training complete — let's help you set your own now!",
				},
				Effect: EffectCompleteTraining,
			},
		},
	}
}
