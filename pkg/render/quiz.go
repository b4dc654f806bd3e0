package render

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/samber/lo"

	"udacimak/pkg/course"
)

// Solutions returns the answers whose is_correct is strictly true, in source
// order. With single set only the first of them is kept.
func Solutions(answers []course.Answer, single bool) []course.Answer {
	correct := lo.Filter(answers, func(a course.Answer, _ int) bool {
		return a.IsCorrect()
	})
	if single && len(correct) > 1 {
		correct = correct[:1]
	}
	return correct
}

// MatchingSolution pairs an answer with the concept it belongs to
type MatchingSolution struct {
	AnswerText      string
	MatchingConcept string
}

// MatchingSolutions pairs every answer with every concept whose correct
// answer has the same text, ignoring case and surrounding whitespace
func MatchingSolutions(q course.MatchingQuestion) []MatchingSolution {
	var solutions []MatchingSolution
	for _, answer := range q.Answers {
		want := normalizeAnswer(answer.Text)
		for _, concept := range q.Concepts {
			if concept.CorrectAnswer == nil || concept.CorrectAnswer.Text == "" {
				continue
			}
			if normalizeAnswer(concept.CorrectAnswer.Text) == want {
				solutions = append(solutions, MatchingSolution{
					AnswerText:      answer.Text,
					MatchingConcept: concept.Text,
				})
			}
		}
	}
	return solutions
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *Renderer) renderChoice(ctx context.Context, id string, base *course.AtomBase, q course.ChoiceQuestion, single bool, dir string) (string, error) {
	var data choiceData
	label := base.ID.String()

	prompt, err := r.text(ctx, q.Prompt, dir, label+"-prompt")
	if err != nil {
		return "", err
	}
	data.Prompt = prompt

	byID := make(map[string]choice, len(q.Answers))
	for i, a := range q.Answers {
		text, err := r.text(ctx, a.Text, dir, fmt.Sprintf("%s-answer-%d", label, i))
		if err != nil {
			return "", err
		}
		c := choice{ID: a.ID.String(), Name: label, Text: text}
		data.Answers = append(data.Answers, c)
		byID[c.ID] = c
	}
	data.Solutions = lo.Map(Solutions(q.Answers, single), func(a course.Answer, _ int) choice {
		return byID[a.ID.String()]
	})

	return r.tpl.Render(id, data)
}

func (r *Renderer) renderMatching(a *course.MatchingQuizAtom) (string, error) {
	var data matchingData
	q := a.Question

	md := func(s string) template.HTML {
		out, err := r.markdown(s)
		if err != nil {
			r.logger.WithError(err).Warn("Failed to convert matching quiz text")
		}
		return out
	}

	data.Prompt = md(q.PromptText())
	data.ConceptsLabel = md(q.ConceptsLabel)
	data.AnswersLabel = md(q.AnswersLabel)
	data.Concepts = lo.Map(q.Concepts, func(c course.MatchingConcept, _ int) template.HTML {
		return md(c.Text)
	})
	data.Answers = lo.Map(q.Answers, func(a course.MatchingItem, _ int) template.HTML {
		return md(a.Text)
	})
	data.Solutions = lo.Map(MatchingSolutions(q), func(s MatchingSolution, _ int) matchingPair {
		return matchingPair{AnswerText: md(s.AnswerText), MatchingConcept: md(s.MatchingConcept)}
	})

	return r.tpl.Render("atom.matchingQuiz", data)
}

func (r *Renderer) renderValidated(ctx context.Context, a *course.ValidatedQuizAtom, dir string) (string, error) {
	prompt, err := r.text(ctx, a.Question.Prompt, dir, a.ID.String())
	if err != nil {
		return "", err
	}
	matchers := lo.Map(a.Question.Matchers, func(m course.Matcher, _ int) string {
		return m.Expression
	})
	return r.tpl.Render("atom.validatedQuiz", validatedData{Prompt: prompt, Matchers: matchers})
}
