package question

import (
	"strings"

	"socratic/internal/models"
)

// Template is one question pattern. Placeholders: {domain} is the resolved
// domain name, {fact} is a knowledge fragment when one is available. A
// template only renders when the band covers the target sophistication and
// every placeholder it names can be filled.
type Template struct {
	Text    string
	MinBand int // inclusive, 1..5
	MaxBand int // inclusive, 1..5
}

// Covers reports whether the template serves the given sophistication band.
func (t Template) Covers(band int) bool {
	return band >= t.MinBand && band <= t.MaxBand
}

// Render fills the placeholders. ok is false when a named placeholder has no
// value, which disqualifies the template rather than leaking braces.
func (t Template) Render(domain, fact string) (string, bool) {
	out := t.Text
	if strings.Contains(out, "{domain}") {
		if domain == "" || domain == models.GeneralDomain {
			return "", false
		}
		out = strings.ReplaceAll(out, "{domain}", domain)
	}
	if strings.Contains(out, "{fact}") {
		if fact == "" {
			return "", false
		}
		out = strings.ReplaceAll(out, "{fact}", fact)
	}
	return out, true
}

// Bank holds the template sets per question type. Domain templates are tried
// first; the generic set guarantees a renderable candidate for any state, so
// generation can never come up empty.
type Bank struct {
	domain  map[models.QuestionType][]Template
	generic map[models.QuestionType][]Template
}

// DefaultBank is the built-in template corpus.
func DefaultBank() *Bank {
	return &Bank{
		domain: map[models.QuestionType][]Template{
			models.QuestionClarifying: {
				{Text: "What problem in {domain} are you trying to solve first?", MinBand: 1, MaxBand: 2},
				{Text: "Who are the main people in {domain} that will use this?", MinBand: 1, MaxBand: 2},
				{Text: "Which {domain} workflow does this need to fit into?", MinBand: 2, MaxBand: 3},
				{Text: "Which {domain} systems does this have to integrate with, and which are out of scope?", MinBand: 3, MaxBand: 4},
				{Text: "How do you currently delineate ownership between this and the adjacent {domain} systems it touches?", MinBand: 4, MaxBand: 5},
			},
			models.QuestionExploration: {
				{Text: "What happens today in {domain} when this process goes wrong?", MinBand: 1, MaxBand: 2},
				{Text: "Can you walk me through a typical {domain} scenario from start to finish?", MinBand: 1, MaxBand: 3},
				{Text: "Given that {fact}, how does that constraint show up in your situation?", MinBand: 2, MaxBand: 4},
				{Text: "What edge cases in {domain} have burned you or your team before?", MinBand: 3, MaxBand: 4},
				{Text: "Where do the {domain} failure modes concentrate, and what compensating controls exist today?", MinBand: 4, MaxBand: 5},
			},
			models.QuestionAssumptionTesting: {
				{Text: "You mentioned how things usually work in {domain}. What if that assumption did not hold?", MinBand: 1, MaxBand: 3},
				{Text: "Is the standard {domain} approach actually required here, or is it just familiar?", MinBand: 2, MaxBand: 4},
				{Text: "Considering that {fact}, does your current plan still hold up?", MinBand: 3, MaxBand: 5},
				{Text: "Which {domain} constraint are you treating as fixed that is actually negotiable?", MinBand: 4, MaxBand: 5},
			},
			models.QuestionConceptValidation: {
				{Text: "How would you explain the core idea of this {domain} solution to a colleague?", MinBand: 1, MaxBand: 2},
				{Text: "How would you check that this works correctly for {domain} before relying on it?", MinBand: 2, MaxBand: 3},
				{Text: "What would convince you this design fails under real {domain} load or volume?", MinBand: 3, MaxBand: 4},
				{Text: "Which {domain} invariant, if violated silently, would take longest to detect?", MinBand: 4, MaxBand: 5},
			},
		},
		generic: map[models.QuestionType][]Template{
			models.QuestionClarifying: {
				{Text: "What is the main goal you want this to achieve?", MinBand: 1, MaxBand: 3},
				{Text: "Who will use this, and what do they need from it day to day?", MinBand: 1, MaxBand: 3},
				{Text: "What does success look like, concretely, and how will you measure it?", MinBand: 3, MaxBand: 5},
			},
			models.QuestionExploration: {
				{Text: "How is this handled today, and what is the most painful part?", MinBand: 1, MaxBand: 3},
				{Text: "What should happen in the worst-case scenario you can imagine?", MinBand: 2, MaxBand: 4},
				{Text: "Which dependency or external system is most likely to surprise you?", MinBand: 3, MaxBand: 5},
			},
			models.QuestionAssumptionTesting: {
				{Text: "What are you assuming about your users that you have not verified?", MinBand: 1, MaxBand: 3},
				{Text: "If the data volume were ten times larger, what breaks first?", MinBand: 2, MaxBand: 4},
				{Text: "Which requirement would you drop if you had to ship half of this?", MinBand: 3, MaxBand: 5},
			},
			models.QuestionConceptValidation: {
				{Text: "Can you summarize the approach in one or two sentences?", MinBand: 1, MaxBand: 3},
				{Text: "How would you test that the approach holds up before committing to it?", MinBand: 2, MaxBand: 4},
				{Text: "What evidence would change your mind about this design?", MinBand: 3, MaxBand: 5},
			},
		},
	}
}

// Candidates returns the templates for one type that cover the band, domain
// set first so richer questions win when they can render.
func (b *Bank) Candidates(qt models.QuestionType, band int) []Template {
	var out []Template
	for _, t := range b.domain[qt] {
		if t.Covers(band) {
			out = append(out, t)
		}
	}
	for _, t := range b.generic[qt] {
		if t.Covers(band) {
			out = append(out, t)
		}
	}
	return out
}

// AnyGeneric returns every generic template for the type regardless of band,
// the last-resort pool when band-matched candidates are all duplicates.
func (b *Bank) AnyGeneric(qt models.QuestionType) []Template {
	return b.generic[qt]
}
