package runner

import "github.com/google/uuid"

// Chat states name the top-level conversation mode a participant is in.
// They map one-to-one onto the phase labels stored on chat history rows.
const (
	StateIntro       = "intro"
	StateTraining    = "smart_training"
	StateGoalSetting = "goal_setting"
	StateAddTasks    = "add_tasks"
	StateMenu        = "menu"
	StateViewGoals   = "view_goals"
	StateReflection  = "reflection"
	StateDone        = "done"
)

// Reflection sub-flow stages.
const (
	StageStart       = "start"
	StageRate        = "rate"
	StageQuestions   = "questions"
	StageAlignment   = "alignment"
	StageUpdate      = "update"
	StageAddTaskGate = "add_task_gate"
	StageAddTask     = "add_task"
	StageDone        = "done"
)

// State is the full set of step-runner variables for one participant. It
// round-trips losslessly through the user_sessions JSON snapshot: restoring
// a serialized State must reproduce identical runner behavior.
type State struct {
	ChatState    string            `json:"chat_state"`
	StepKey      string            `json:"step_key"`
	MessageIndex int               `json:"message_index"`
	Answers      map[string]string `json:"answers"`

	PendingSuggestion bool   `json:"pending_suggestion"`
	SuggestedText     string `json:"suggested_text,omitempty"`

	GoalID    string `json:"goal_id,omitempty"`
	TaskCount int    `json:"task_count"`

	Week            int               `json:"week"`
	Session         string            `json:"session,omitempty"`
	ReflectionStage string            `json:"reflection_stage,omitempty"`
	TaskOrder       []string          `json:"task_order,omitempty"`
	TaskIndex       int               `json:"task_index"`
	AwaitingNote    bool              `json:"awaiting_note"`
	QuestionIndex   int               `json:"question_index"`
	// The tracking maps must never be tagged omitempty: an empty map has to
	// survive the snapshot round trip as an empty map, not come back nil.
	TaskRatings     map[string]int    `json:"task_ratings"`
	TaskNotes       map[string]string `json:"task_notes"`
	ReflectionAns   map[string]string `json:"reflection_answers"`
	UpdateTaskIndex int               `json:"update_task_index"`
	AwaitingReplace bool              `json:"awaiting_replacement"`
	ReplaceChoice   string            `json:"replace_choice,omitempty"`

	NeedsRestore bool `json:"needs_restore"`
}

// NewState returns a fresh snapshot positioned at the greeting.
func NewState() *State {
	return &State{
		ChatState: StateIntro,
		StepKey:   "welcome",
		Answers:   map[string]string{},
	}
}

func (s *State) goalUUID() (uuid.UUID, error) {
	return uuid.Parse(s.GoalID)
}

func (s *State) enterStep(key string) {
	s.StepKey = key
	s.MessageIndex = 0
}

func (s *State) enterReflection(week int, session string) {
	s.ChatState = StateReflection
	s.Week = week
	s.Session = session
	s.ReflectionStage = StageStart
	s.TaskOrder = nil
	s.TaskIndex = 0
	s.AwaitingNote = false
	s.QuestionIndex = 0
	s.TaskRatings = map[string]int{}
	s.TaskNotes = map[string]string{}
	s.ReflectionAns = map[string]string{}
	s.UpdateTaskIndex = 0
	s.AwaitingReplace = false
	s.ReplaceChoice = ""
	s.PendingSuggestion = false
}

// Event is one client interaction: a button click, a free-text submission,
// or a poll while the runner reports pending work.
type Event struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

const (
	EventButton = "button"
	EventText   = "text"
	EventPoll   = "poll"
)

// Message is one transcript entry emitted during a runner invocation.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Render is what one runner invocation hands back to the client: any newly
// emitted messages plus the current input affordances. Pending tells the
// client to poll again because more output is queued.
type Render struct {
	Messages  []Message `json:"messages"`
	Buttons   []string  `json:"buttons,omitempty"`
	InputMode string    `json:"input_mode"`
	Pending   bool      `json:"pending"`
	Done      bool      `json:"done"`
}

const (
	InputNone    = "none"
	InputButtons = "buttons"
	InputText    = "text"
)
