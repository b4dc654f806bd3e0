// Package course models the JSON documents of a downloaded Udacity course.
package course

import (
	"bytes"
	"encoding/json"
)

// ID accepts both string and numeric identifiers
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Node holds the fields shared by every entity of the course tree
type Node struct {
	ID           ID     `json:"id"`
	Key          string `json:"key"`
	Title        string `json:"title"`
	SemanticType string `json:"semantic_type"`
}

// Image is an image reference
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Video references a YouTube video
type Video struct {
	YoutubeID  string `json:"youtube_id"`
	ChinaCDNID string `json:"china_cdn_id,omitempty"`
	TopherID   string `json:"topher_id,omitempty"`
}

// ResourceFile is a downloadable file attached to a lesson or concept
type ResourceFile struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Resources groups attached files
type Resources struct {
	Files []ResourceFile `json:"files"`
}

// UserState is the learner's saved progress on a node
type UserState struct {
	NodeKey      string          `json:"node_key"`
	CompletedAt  string          `json:"completed_at,omitempty"`
	Unstructured json.RawMessage `json:"unstructured,omitempty"`
}

// Nanodegree is the root of a Nanodegree program
type Nanodegree struct {
	Node
	Summary   string     `json:"summary"`
	HeroImage *Image     `json:"hero_image"`
	Resources *Resources `json:"resources"`
	Parts     []Part     `json:"parts"`
}

// Part groups modules of a Nanodegree
type Part struct {
	Node
	Summary  string   `json:"summary"`
	PartType string   `json:"part_type"`
	Modules  []Module `json:"modules"`
}

// Module groups lessons of a part
type Module struct {
	Node
	Lessons []Lesson `json:"lessons"`
}

// Course is the root of a free course
type Course struct {
	Node
	Summary   string     `json:"summary"`
	Resources *Resources `json:"resources"`
	Project   *Project   `json:"project"`
	Lessons   []Lesson   `json:"lessons"`
}

// Lesson is a single page of the rendered course
type Lesson struct {
	Node
	Summary   string     `json:"summary"`
	Duration  float64    `json:"duration"`
	Image     *Image     `json:"image"`
	Video     *Video     `json:"video"`
	Resources *Resources `json:"resources"`
	Concepts  []Concept  `json:"concepts"`
	Project   *Project   `json:"project"`
	Lab       *Lab       `json:"lab"`
}

// Concept is a titled group of atoms inside a lesson
type Concept struct {
	Node
	Resources *Resources `json:"resources"`
	Atoms     []Atom     `json:"-"`
}

// UnmarshalJSON decodes the atoms of a concept through DecodeAtom
func (c *Concept) UnmarshalJSON(data []byte) error {
	type plain Concept
	var aux struct {
		plain
		Atoms []json.RawMessage `json:"atoms"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*c = Concept(aux.plain)
	c.Atoms = make([]Atom, 0, len(aux.Atoms))
	for _, raw := range aux.Atoms {
		c.Atoms = append(c.Atoms, DecodeAtom(raw))
	}
	return nil
}

// Project is the project attached to a lesson or course
type Project struct {
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Summary     string     `json:"summary"`
	Image       *Image     `json:"image"`
	Resources   *Resources `json:"resources"`
}

// LabOverview describes a lab
type LabOverview struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	KeyTakeaways []string `json:"key_takeaways"`
	Video        *Video   `json:"video"`
}

// Lab is the hands-on lab attached to a lesson
type Lab struct {
	Key                 string       `json:"key"`
	Title               string       `json:"title"`
	EvaluationObjective string       `json:"evaluation_objective"`
	Overview            *LabOverview `json:"overview"`
	Details             *struct {
		Text string `json:"text"`
	} `json:"details"`
	ReviewVideo *Video `json:"review_video"`
}

// flag reports whether raw is the JSON literal true. Anything else,
// including a missing field, a string "true" or null, is false.
func flag(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "true"
}
