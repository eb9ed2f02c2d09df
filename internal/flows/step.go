package flows

import "fmt"

// Dimension names a suggestion-service operation: one of the five SMART
// checks, task ideas, or a reflection summary.
type Dimension string

const (
	DimensionSpecific   Dimension = "specific"
	DimensionMeasurable Dimension = "measurable"
	DimensionAchievable Dimension = "achievable"
	DimensionRelevant   Dimension = "relevant"
	DimensionTimebound  Dimension = "timebound"
	DimensionTasks      Dimension = "tasks"
	DimensionSummary    Dimension = "summary"
)

// Effect names the side effect a terminal step triggers.
type Effect string

const (
	EffectBeginTraining    Effect = "begin_training"
	EffectCompleteTraining Effect = "complete_training"
	EffectSaveGoal         Effect = "save_goal"
)

// Slot keys in the runner's answers bag.
const SlotCurrentGoal = "current_goal"

// Step is the tagged union of conversation step kinds. Each concrete kind
// carries only the fields it needs; the runner dispatches on the type.
type Step interface {
	// Prompt returns the assistant messages revealed one per render cycle.
	Prompt() []string
}

// ChoiceStep waits for one of Buttons and transitions via Next[label].
type ChoiceStep struct {
	Text    []string
	Buttons []string
	Next    map[string]string
}

func (s ChoiceStep) Prompt() []string { return s.Text }

// TextInputStep waits for free text, stores it under Slot, then moves to Next.
type TextInputStep struct {
	Text []string
	Slot string
	Next string
}

func (s TextInputStep) Prompt() []string { return s.Text }

// SuggestionStep invokes the suggestion service for Dimension, posts the
// result to the transcript, then moves to Next.
type SuggestionStep struct {
	Text      []string
	Dimension Dimension
	Next      string
}

func (s SuggestionStep) Prompt() []string { return s.Text }

// TerminalStep ends the flow with a side effect.
type TerminalStep struct {
	Text   []string
	Effect Effect
}

func (s TerminalStep) Prompt() []string { return s.Text }

// Flow is a static step graph: pure data, no behavior.
type Flow struct {
	Name  string
	Start string
	Steps map[string]Step
}

// Validate checks that every transition target resolves to a step in the
// same flow and that every button has a transition. Run at startup and in
// tests; a failure here is a configuration error, not a runtime condition.
func (f *Flow) Validate() error {
	if _, ok := f.Steps[f.Start]; !ok {
		return fmt.Errorf("flow %q: start step %q not defined", f.Name, f.Start)
	}
	for key, step := range f.Steps {
		switch s := step.(type) {
		case ChoiceStep:
			if len(s.Buttons) == 0 {
				return fmt.Errorf("flow %q step %q: choice step without buttons", f.Name, key)
			}
			for _, label := range s.Buttons {
				target, ok := s.Next[label]
				if !ok {
					return fmt.Errorf("flow %q step %q: button %q has no transition", f.Name, key, label)
				}
				if _, ok := f.Steps[target]; !ok {
					return fmt.Errorf("flow %q step %q: button %q targets unknown step %q", f.Name, key, label, target)
				}
			}
		case TextInputStep:
			if _, ok := f.Steps[s.Next]; !ok {
				return fmt.Errorf("flow %q step %q: targets unknown step %q", f.Name, key, s.Next)
			}
		case SuggestionStep:
			if _, ok := f.Steps[s.Next]; !ok {
				return fmt.Errorf("flow %q step %q: targets unknown step %q", f.Name, key, s.Next)
			}
		case TerminalStep:
			if s.Effect == "" {
				return fmt.Errorf("flow %q step %q: terminal step without effect", f.Name, key)
			}
		default:
			return fmt.Errorf("flow %q step %q: unknown step kind %T", f.Name, key, step)
		}
	}
	return nil
}
