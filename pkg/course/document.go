package course

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	errs "udacimak/pkg/errors"
	"udacimak/pkg/storage"
)

// DataFile is the JSON document marking a downloaded course folder
const DataFile = "data.json"

// Kind tells which root entity a course folder holds
type Kind int

const (
	KindUnknown Kind = iota
	KindNanodegree
	KindCourse
)

func (k Kind) String() string {
	switch k {
	case KindNanodegree:
		return "nanodegree"
	case KindCourse:
		return "course"
	default:
		return "unknown"
	}
}

// Root is the top-level document of a course folder
type Root struct {
	Kind       Kind
	Nanodegree *Nanodegree
	Course     *Course
}

// Title returns the title of the root entity
func (r *Root) Title() string {
	switch {
	case r.Nanodegree != nil:
		return r.Nanodegree.Title
	case r.Course != nil:
		return r.Course.Title
	default:
		return ""
	}
}

type envelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte("false"))
}

// Classify inspects data.nanodegree and data.course. Nanodegree wins when
// both are set.
func Classify(data []byte) (Kind, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return KindUnknown, errs.Wrap(errs.KindInvalidSourceTree, err, "invalid "+DataFile)
	}
	switch {
	case present(env.Data["nanodegree"]):
		return KindNanodegree, nil
	case present(env.Data["course"]):
		return KindCourse, nil
	default:
		return KindUnknown, errs.New(errs.KindInvalidSourceTree, "source is neither a nanodegree nor a course")
	}
}

// ParseRoot classifies and decodes a root document
func ParseRoot(data []byte) (*Root, error) {
	kind, err := Classify(data)
	if err != nil {
		return nil, err
	}

	var env struct {
		Data struct {
			Nanodegree *Nanodegree `json:"nanodegree"`
			Course     *Course     `json:"course"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errs.Wrap(errs.KindInvalidSourceTree, err, "invalid "+kind.String())
	}

	root := &Root{Kind: kind}
	if kind == KindNanodegree {
		root.Nanodegree = env.Data.Nanodegree
	} else {
		root.Course = env.Data.Course
	}
	return root, nil
}

// ReadRoot reads and parses dir/data.json
func ReadRoot(store *storage.Manager, dir string) (*Root, error) {
	p := filepath.Join(dir, DataFile)
	data, err := store.ReadFile(p)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidSourceTree, err, "cannot read "+p)
	}
	return ParseRoot(data)
}

// ParseLesson decodes a lesson document, either {"data":{"lesson":...}}
// or the bare lesson object.
func ParseLesson(data []byte) (*Lesson, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errs.Wrap(errs.KindParsing, err, "invalid lesson")
	}

	raw := json.RawMessage(data)
	if l, ok := env.Data["lesson"]; ok && present(l) {
		raw = l
	}

	var lesson Lesson
	if err := json.Unmarshal(raw, &lesson); err != nil {
		return nil, errs.Wrap(errs.KindParsing, err, "invalid lesson")
	}
	return &lesson, nil
}

// ReadLesson reads and parses dir/data.json as a lesson
func ReadLesson(store *storage.Manager, dir string) (*Lesson, error) {
	p := filepath.Join(dir, DataFile)
	data, err := store.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read lesson: %w", err)
	}
	lesson, err := ParseLesson(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return lesson, nil
}
