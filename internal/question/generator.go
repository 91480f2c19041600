package question

import (
	"strings"
	"time"

	"socratic/internal/models"
	"socratic/pkg/logger"
	"socratic/pkg/util"

	"github.com/google/uuid"
)

// maxFactLength bounds how much of a knowledge fragment is inlined into a
// question before it stops reading like a question.
const maxFactLength = 140

// Generator turns session state into the next Socratic question. It is
// stateless; asked-question history comes from the session.
type Generator struct {
	bank                *Bank
	duplicateSimilarity float64
	log                 *logger.Logger
}

// NewGenerator creates a Generator over the given bank. A nil bank uses the
// built-in corpus.
func NewGenerator(bank *Bank, duplicateSimilarity float64, log *logger.Logger) *Generator {
	if bank == nil {
		bank = DefaultBank()
	}
	return &Generator{bank: bank, duplicateSimilarity: duplicateSimilarity, log: log}
}

// Generate produces the next question for the session. It always returns a
// question: when every band-matched candidate would re-ask something, it
// falls through to wider pools and finally to a session-recap question.
func (g *Generator) Generate(session *models.QuestionSession, domain models.DomainContext, exp models.ExpertiseState, know *models.KnowledgeResult) models.AdaptiveQuestion {
	band := g.targetBand(session, exp)
	fact := extractFact(know)
	qt := g.selectType(session)

	// Preferred type first, then the rest in priority order.
	order := make([]models.QuestionType, 0, len(models.QuestionTypes))
	order = append(order, qt)
	for _, other := range models.QuestionTypes {
		if other != qt {
			order = append(order, other)
		}
	}

	for _, t := range order {
		if text, ok := g.pick(g.bank.Candidates(t, band), session, domain.Domain, fact); ok {
			return g.build(text, t, band, domain)
		}
	}
	for _, t := range order {
		if text, ok := g.pick(g.bank.AnyGeneric(t), session, domain.Domain, fact); ok {
			return g.build(text, t, band, domain)
		}
	}

	// Every template in the bank has been asked. Close the loop with a recap,
	// rotating phrasings so even very long sessions do not repeat verbatim.
	g.log.WithSession(session.SessionID).Debug("template bank exhausted, asking recap question")
	for _, text := range recapQuestions {
		if !g.isDuplicate(text, session.AskedQuestions) {
			return g.build(text, models.QuestionClarifying, band, domain)
		}
	}
	return g.build(recapQuestions[session.Turn%len(recapQuestions)], models.QuestionClarifying, band, domain)
}

// recapQuestions close out a session whose template bank has run dry. The
// phrasings are distinct enough to pass duplicate rejection against each other.
var recapQuestions = []string{
	"Looking at everything we have discussed, what feels most important to pin down next?",
	"Which of your earlier answers would you revise now that the picture is fuller?",
	"What has not come up yet that could still change the shape of this work?",
	"If we had to stop here, which open point would worry you the most?",
}

// targetBand derives the question difficulty: the tracked sophistication,
// moved at most one step from the previous question so difficulty never jumps.
func (g *Generator) targetBand(session *models.QuestionSession, exp models.ExpertiseState) int {
	target := exp.Sophistication
	if target < 1 {
		target = 1
	}
	if target > 5 {
		target = 5
	}
	last, ok := session.LastQuestion()
	if !ok {
		return target
	}
	switch {
	case target > last.Sophistication+1:
		return last.Sophistication + 1
	case target < last.Sophistication-1:
		return last.Sophistication - 1
	default:
		return target
	}
}

// selectType picks the least-covered question type, ties resolved by the
// priority order, so sessions rotate through all four Socratic slots.
func (g *Generator) selectType(session *models.QuestionSession) models.QuestionType {
	counts := make(map[models.QuestionType]int, len(models.QuestionTypes))
	for _, q := range session.AskedQuestions {
		counts[q.Type]++
	}
	best := models.QuestionTypes[0]
	for _, qt := range models.QuestionTypes[1:] {
		if counts[qt] < counts[best] {
			best = qt
		}
	}
	return best
}

// pick renders candidates in order and returns the first that is not a
// near-duplicate of anything already asked.
func (g *Generator) pick(candidates []Template, session *models.QuestionSession, domain, fact string) (string, bool) {
	for _, t := range candidates {
		text, ok := t.Render(domain, fact)
		if !ok {
			continue
		}
		if g.isDuplicate(text, session.AskedQuestions) {
			continue
		}
		return text, true
	}
	return "", false
}

func (g *Generator) isDuplicate(text string, asked []models.AdaptiveQuestion) bool {
	for _, q := range asked {
		if util.JaccardSimilarity(text, q.Text) >= g.duplicateSimilarity {
			return true
		}
	}
	return false
}

func (g *Generator) build(text string, qt models.QuestionType, band int, domain models.DomainContext) models.AdaptiveQuestion {
	return models.AdaptiveQuestion{
		ID:             uuid.NewString(),
		Text:           text,
		Sophistication: band,
		Type:           qt,
		DomainContext:  domain,
		AskedAt:        time.Now(),
	}
}

// extractFact pulls the highest-ranked fragment out of a knowledge result and
// trims it to sentence size. Degraded results yield no fact, which pushes
// generation toward templates that need none.
func extractFact(know *models.KnowledgeResult) string {
	if know == nil || know.Degraded || len(know.Fragments) == 0 {
		return ""
	}
	fact := strings.TrimSpace(know.Fragments[0].Content)
	if idx := strings.IndexAny(fact, ".\n"); idx > 20 {
		fact = fact[:idx]
	}
	if len(fact) > maxFactLength {
		fact = strings.TrimSpace(fact[:maxFactLength])
	}
	return fact
}
