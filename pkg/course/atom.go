package course

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Semantic types of the atoms that can be rendered
const (
	TypeText          = "TextAtom"
	TypeImage         = "ImageAtom"
	TypeVideo         = "VideoAtom"
	TypeEmbeddedFrame = "EmbeddedFrameAtom"
	TypeTaskList      = "TaskListAtom"
	TypeReflect       = "ReflectAtom"
	TypeRadioQuiz     = "RadioQuizAtom"
	TypeCheckboxQuiz  = "CheckboxQuizAtom"
	TypeMatchingQuiz  = "MatchingQuizAtom"
	TypeValidatedQuiz = "ValidatedQuizAtom"
	TypeQuiz          = "QuizAtom"
	TypeWorkspace     = "WorkspaceAtom"
)

// Atom is the smallest renderable unit of a lesson. Exactly one of the
// *Atom types below implements it for every decoded value.
type Atom interface {
	Base() *AtomBase
	atom()
}

// AtomBase holds the fields every atom carries
type AtomBase struct {
	Node
	InstructorNotes string     `json:"instructor_notes"`
	UserState       *UserState `json:"user_state"`
}

// Base returns the shared atom fields
func (b *AtomBase) Base() *AtomBase { return b }

func (*AtomBase) atom() {}

type TextAtom struct {
	AtomBase
	Text string `json:"text"`
}

type ImageAtom struct {
	AtomBase
	URL          string `json:"url"`
	NonGoogleURL string `json:"non_google_url"`
	Caption      string `json:"caption"`
	Alt          string `json:"alt"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

type VideoAtom struct {
	AtomBase
	Video *Video `json:"video"`
}

type EmbeddedFrameAtom struct {
	AtomBase
	ExternalURI string `json:"external_uri"`
}

type TaskListAtom struct {
	AtomBase
	Tasks            []json.RawMessage `json:"tasks"`
	PositiveFeedback string            `json:"positive_feedback"`
	VideoFeedback    *Video            `json:"video_feedback"`
	Description      string            `json:"description"`
}

// TaskTexts returns the tasks as Markdown strings. Non-string tasks are kept as raw JSON text.
func (a *TaskListAtom) TaskTexts() []string {
	out := make([]string, 0, len(a.Tasks))
	for _, raw := range a.Tasks {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(raw))
	}
	return out
}

// ReflectQuestion is the question of a reflect atom
type ReflectQuestion struct {
	Title        string `json:"title"`
	SemanticType string `json:"semantic_type"`
	EvaluationID string `json:"evaluation_id"`
	Text         string `json:"text"`
}

// AnswerWithVideo is a written answer with an optional video
type AnswerWithVideo struct {
	Text  string `json:"text"`
	Video *Video `json:"video"`
}

type ReflectAtom struct {
	AtomBase
	Question ReflectQuestion `json:"question"`
	Answer   AnswerWithVideo `json:"answer"`
}

// Answer is a choice of a radio or checkbox quiz
type Answer struct {
	ID         ID              `json:"id"`
	Text       string          `json:"text"`
	RawCorrect json.RawMessage `json:"is_correct"`
}

// IsCorrect reports whether is_correct is present and strictly true
func (a Answer) IsCorrect() bool {
	return flag(a.RawCorrect)
}

// ChoiceQuestion is the question of a radio or checkbox quiz
type ChoiceQuestion struct {
	Prompt  string   `json:"prompt"`
	Answers []Answer `json:"answers"`
}

type RadioQuizAtom struct {
	AtomBase
	Question ChoiceQuestion `json:"question"`
}

type CheckboxQuizAtom struct {
	AtomBase
	Question ChoiceQuestion `json:"question"`
}

// MatchingItem is a concept or an answer of a matching quiz
type MatchingItem struct {
	ID   ID     `json:"id"`
	Text string `json:"text"`
}

// MatchingConcept is a concept with its designated answer
type MatchingConcept struct {
	Text          string        `json:"text"`
	CorrectAnswer *MatchingItem `json:"correct_answer"`
}

// MatchingQuestion is the question of a matching quiz
type MatchingQuestion struct {
	ComplexPrompt *struct {
		Text string `json:"text"`
	} `json:"complex_prompt"`
	ConceptsLabel string            `json:"concepts_label"`
	AnswersLabel  string            `json:"answers_label"`
	Concepts      []MatchingConcept `json:"concepts"`
	Answers       []MatchingItem    `json:"answers"`
}

// PromptText returns the complex prompt text, if any
func (q MatchingQuestion) PromptText() string {
	if q.ComplexPrompt == nil {
		return ""
	}
	return q.ComplexPrompt.Text
}

type MatchingQuizAtom struct {
	AtomBase
	Question MatchingQuestion `json:"question"`
}

// Matcher is a grader expression of a validated quiz
type Matcher struct {
	Expression string `json:"expression"`
}

type ValidatedQuizAtom struct {
	AtomBase
	Question struct {
		Prompt   string    `json:"prompt"`
		Matchers []Matcher `json:"matchers"`
	} `json:"question"`
}

// Instruction is the introduction of a quiz atom
type Instruction struct {
	Text  string `json:"text"`
	Video *Video `json:"video"`
}

type QuizAtom struct {
	AtomBase
	Instruction *Instruction    `json:"instruction"`
	Question    QuizQuestion    `json:"-"`
	Answer      AnswerWithVideo `json:"answer"`
}

// UnmarshalJSON decodes the question through DecodeQuestion
func (a *QuizAtom) UnmarshalJSON(data []byte) error {
	type plain QuizAtom
	var aux struct {
		plain
		Question json.RawMessage `json:"question"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = QuizAtom(aux.plain)
	a.Question = DecodeQuestion(aux.Question)
	return nil
}

type WorkspaceAtom struct {
	AtomBase
	WorkspaceID   string          `json:"workspace_id"`
	PoolID        string          `json:"pool_id"`
	ViewID        string          `json:"view_id"`
	GPUCapable    bool            `json:"gpu_capable"`
	Configuration json.RawMessage `json:"configuration"`
}

// WorkspaceConfig is the part of a workspace configuration that can be rendered
type WorkspaceConfig struct {
	Kind        string
	DefaultPath string
	OpenFiles   []string
	UserCode    string
}

// Config extracts the workspace blueprint. Missing or malformed data
// degrades to the defaults: kind "Unknown" and empty fields.
func (a *WorkspaceAtom) Config() WorkspaceConfig {
	cfg := WorkspaceConfig{Kind: "Unknown"}

	var conf struct {
		Blueprint *struct {
			Kind string `json:"kind"`
			Conf *struct {
				DefaultPath string   `json:"defaultPath"`
				OpenFiles   []string `json:"openFiles"`
				UserCode    string   `json:"userCode"`
			} `json:"conf"`
		} `json:"blueprint"`
	}
	if err := decodeFlexible(a.Configuration, &conf); err != nil || conf.Blueprint == nil {
		return cfg
	}

	if conf.Blueprint.Kind != "" {
		cfg.Kind = conf.Blueprint.Kind
	}
	if c := conf.Blueprint.Conf; c != nil {
		cfg.DefaultPath = c.DefaultPath
		cfg.OpenFiles = c.OpenFiles
		cfg.UserCode = c.UserCode
	}
	return cfg
}

// UnknownAtom keeps an atom whose type is not supported or whose data could not be decoded
type UnknownAtom struct {
	AtomBase
	Raw json.RawMessage
	// Err is set when a known atom type failed to decode.
	Err error
}

// DecodeAtom dispatches on semantic_type. It never fails: unsupported or
// malformed atoms come back as *UnknownAtom.
func DecodeAtom(raw json.RawMessage) Atom {
	var base AtomBase
	if err := json.Unmarshal(raw, &base); err != nil {
		return &UnknownAtom{Raw: raw, Err: fmt.Errorf("invalid atom: %w", err)}
	}

	var a Atom
	switch base.SemanticType {
	case TypeText:
		a = &TextAtom{}
	case TypeImage:
		a = &ImageAtom{}
	case TypeVideo:
		a = &VideoAtom{}
	case TypeEmbeddedFrame:
		a = &EmbeddedFrameAtom{}
	case TypeTaskList:
		a = &TaskListAtom{}
	case TypeReflect:
		a = &ReflectAtom{}
	case TypeRadioQuiz:
		a = &RadioQuizAtom{}
	case TypeCheckboxQuiz:
		a = &CheckboxQuizAtom{}
	case TypeMatchingQuiz:
		a = &MatchingQuizAtom{}
	case TypeValidatedQuiz:
		a = &ValidatedQuizAtom{}
	case TypeQuiz:
		a = &QuizAtom{}
	case TypeWorkspace:
		a = &WorkspaceAtom{}
	default:
		return &UnknownAtom{AtomBase: base, Raw: raw}
	}

	if err := json.Unmarshal(raw, a); err != nil {
		return &UnknownAtom{AtomBase: base, Raw: raw, Err: fmt.Errorf("invalid %s: %w", base.SemanticType, err)}
	}
	return a
}

// decodeFlexible unmarshals raw into v, accepting either a JSON value or a
// string containing JSON
func decodeFlexible(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("empty value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	return json.Unmarshal(raw, v)
}
