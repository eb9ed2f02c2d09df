package flows

// WelcomeFlow is the single greeting step shown to a brand-new participant
// before training starts.
func WelcomeFlow() *Flow {
	return &Flow{
		Name:  "welcome",
		Start: "welcome",
		Steps: map[string]Step{
			"welcome": ChoiceStep{
				Text:    []string{"Hi! I'm Goalie. Are you ready to learn about SMART goals!"},
				Buttons: []string{"Yes, let's start"},
				Next:    map[string]string{"Yes, let's start": "begin"},
			},
			"begin": TerminalStep{
				Text:   []string{},
				Effect: EffectBeginTraining,
			},
		},
	}
}
