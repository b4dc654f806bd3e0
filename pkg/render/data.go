package render

import "html/template"

// Template data. Fields holding HTML produced by the renderer are
// template.HTML so the templates do not escape them again.

type textData struct {
	Text template.HTML
}

type imageData struct {
	File    string
	Alt     string
	Caption template.HTML
}

type subtitleTrack struct {
	Src     string
	Srclang string
	Default bool
}

type videoSource struct {
	Src       string
	Subtitles []subtitleTrack
}

type videoData struct {
	Video *videoSource
}

type frameData struct {
	URI   string
	Files template.HTML
}

type task struct {
	ID   string
	Task template.HTML
}

type taskListData struct {
	Description      template.HTML
	Tasks            []task
	Video            template.HTML
	PositiveFeedback template.HTML
	HasFeedback      bool
}

type reflectData struct {
	Title    template.HTML
	Question template.HTML
	Answer   template.HTML
	Video    template.HTML
}

type choice struct {
	ID   string
	Name string
	Text template.HTML
}

type choiceData struct {
	Prompt    template.HTML
	Answers   []choice
	Solutions []choice
}

type matchingPair struct {
	AnswerText      template.HTML
	MatchingConcept template.HTML
}

type matchingData struct {
	Prompt        template.HTML
	ConceptsLabel template.HTML
	AnswersLabel  template.HTML
	Concepts      []template.HTML
	Answers       []template.HTML
	Solutions     []matchingPair
}

type validatedData struct {
	Prompt   template.HTML
	Matchers []string
}

type quizData struct {
	Instruction      template.HTML
	InstructionVideo template.HTML
	Question         template.HTML
	UserAnswer       template.HTML
	Answer           template.HTML
	AnswerVideo      template.HTML
}

type imageFormData struct {
	SrcImg      string
	Alt         string
	HTMLWidgets template.HTML
}

type widgetData struct {
	Group        string
	Label        string
	Marker       string
	Model        string
	IsTextArea   bool
	Tabindex     int
	InitialValue string
	Placement    *placement
}

type placement struct {
	X, Y, Width, Height float64
}

type codeFile struct {
	Active     string
	ID         string
	IsSelected bool
	Name       string
	Text       string
}

type programmingData struct {
	ID    string
	Files []codeFile
}

type codeGradedData struct {
	Title  template.HTML
	Prompt template.HTML
}

type workspaceData struct {
	Kind        string
	DefaultPath string
	OpenFiles   []string
	UserCode    template.HTML
}

type unknownData struct {
	SemanticType string
}
