package course

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Semantic types of quiz questions
const (
	TypeImageFormQuestion   = "ImageFormQuestion"
	TypeProgrammingQuestion = "ProgrammingQuestion"
	TypeCodeGradedQuestion  = "CodeGradedQuestion"
	TypeIFrameQuestion      = "IFrameQuestion"
	TypeTextQuestion        = "TextQuestion"
)

// QuizQuestion is the question of a QuizAtom
type QuizQuestion interface {
	Question() *QuestionBase
	question()
}

// QuestionBase holds the fields every quiz question carries
type QuestionBase struct {
	Title        string `json:"title"`
	SemanticType string `json:"semantic_type"`
	EvaluationID string `json:"evaluation_id"`
}

func (b *QuestionBase) Question() *QuestionBase { return b }

func (*QuestionBase) question() {}

// Placement positions a widget over the background image
type Placement struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Widget is an input field of an image form
type Widget struct {
	Group        string          `json:"group"`
	InitialValue json.RawMessage `json:"initial_value"`
	Label        string          `json:"label"`
	Marker       string          `json:"marker"`
	Model        string          `json:"model"`
	IsTextArea   bool            `json:"is_text_area"`
	Tabindex     int             `json:"tabindex"`
	Placement    *Placement      `json:"placement"`
}

// InitialText returns the initial value as text. Strings are unquoted,
// other JSON values are kept as written and null is empty.
func (w Widget) InitialText() string {
	raw := bytes.TrimSpace(w.InitialValue)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type ImageFormQuestion struct {
	QuestionBase
	AltText         string   `json:"alt_text"`
	BackgroundImage string   `json:"background_image"`
	Widgets         []Widget `json:"widgets"`
}

// CodeFile is a named source file
type CodeFile struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type ProgrammingQuestion struct {
	QuestionBase
	InitialCodeFiles []CodeFile `json:"initial_code_files"`
}

type CodeGradedQuestion struct {
	QuestionBase
	Prompt string `json:"prompt"`
}

type IFrameQuestion struct {
	QuestionBase
	InitialCodeFiles  []CodeFile `json:"initial_code_files"`
	ExternalIframeURI string     `json:"external_iframe_uri"`
}

type TextQuestion struct {
	QuestionBase
	Text string `json:"text"`
}

// UnknownQuestion keeps a question that could not be decoded as a known type
type UnknownQuestion struct {
	QuestionBase
	Raw json.RawMessage
	Err error
}

// DecodeQuestion dispatches on semantic_type; it never fails
func DecodeQuestion(raw json.RawMessage) QuizQuestion {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &UnknownQuestion{Raw: raw}
	}

	var base QuestionBase
	if err := json.Unmarshal(raw, &base); err != nil {
		return &UnknownQuestion{Raw: raw, Err: fmt.Errorf("invalid question: %w", err)}
	}

	var q QuizQuestion
	switch base.SemanticType {
	case TypeImageFormQuestion:
		q = &ImageFormQuestion{}
	case TypeProgrammingQuestion:
		q = &ProgrammingQuestion{}
	case TypeCodeGradedQuestion:
		q = &CodeGradedQuestion{}
	case TypeIFrameQuestion:
		q = &IFrameQuestion{}
	case TypeTextQuestion:
		q = &TextQuestion{}
	default:
		return &UnknownQuestion{QuestionBase: base, Raw: raw}
	}

	if err := json.Unmarshal(raw, q); err != nil {
		return &UnknownQuestion{QuestionBase: base, Raw: raw, Err: fmt.Errorf("invalid %s: %w", base.SemanticType, err)}
	}
	return q
}

// Files returns the code files saved in the unstructured user state, in
// the order they were written. The state may hold the object itself or a
// string containing it. An empty or malformed state yields an error.
func (s *UserState) Files() ([]CodeFile, error) {
	if s == nil {
		return nil, fmt.Errorf("no user state")
	}
	raw := bytes.TrimSpace(s.Unstructured)
	if len(raw) > 0 && raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil, err
		}
		raw = []byte(strings.TrimSpace(str))
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("empty user state")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("user state is not an object")
	}

	var files []CodeFile
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return nil, fmt.Errorf("file %q: %w", name, err)
		}
		files = append(files, CodeFile{Name: name, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return files, nil
}
