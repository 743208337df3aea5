// internal/workers/bulk-operations/parse-bulk-request/entities.go
package parsebulkrequest

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"chore-workers/internal/models"
)

// normalize lowercases text, drops punctuation and collapses whitespace.
// '%' survives, as does '-' between two digits so ISO dates stay intact.
func normalize(text string) string {
	runes := []rune(strings.ToLower(text))
	var b strings.Builder
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%':
			b.WriteRune(r)
		case r == '-' && i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

type entityMatcher struct {
	typ        models.EntityType
	re         *regexp.Regexp
	confidence float64
	canonical  map[string]string
	suffix     string
}

func (m entityMatcher) value(raw string) string {
	if v, ok := m.canonical[raw]; ok {
		return v
	}
	return raw + m.suffix
}

var (
	roomPattern       = regexp.MustCompile(`\b(living room|dining room|laundry room|kitchen|bathrooms?|bedrooms?|garage|yard|garden|basement|attic|hallway|office|patio)\b`)
	choreTypePattern  = regexp.MustCompile(`\b(dishes|laundry|vacuuming|vacuum|cooking|cleaning|trash|garbage|recycling|dusting|mopping|sweeping|mowing|lawn|gardening|ironing|groceries)\b`)
	timePattern       = regexp.MustCompile(`\b(today|tonight|tomorrow|this weekend|next weekend|weekend|next week|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	inDaysPattern     = regexp.MustCompile(`\b(in \d+ days?)\b`)
	isoDatePattern    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	difficultyPattern = regexp.MustCompile(`\b(easy|simple|medium|moderate|hard|difficult|tough)\b`)
	pointsPattern     = regexp.MustCompile(`\b(\d+) ?(?:points?|pts)\b`)
	percentPattern    = regexp.MustCompile(`\b(\d+) ?(?:%|percent\b)`)
	categoryPattern   = regexp.MustCompile(`\b(indoor|outdoor|daily|weekly|monthly|maintenance|pet care|pets|errands)\b`)
	assigneePattern   = regexp.MustCompile(`\b(?:to|for) ([a-z]+)\b`)
)

// staticMatchers run against every request, in order.
var staticMatchers = []entityMatcher{
	{typ: models.EntityRoom, re: roomPattern, confidence: 0.9, canonical: map[string]string{
		"bathrooms": "bathroom", "bedrooms": "bedroom",
	}},
	{typ: models.EntityChoreType, re: choreTypePattern, confidence: 0.85, canonical: map[string]string{
		"vacuum": "vacuuming", "garbage": "trash", "lawn": "mowing",
	}},
	{typ: models.EntityTime, re: timePattern, confidence: 0.9},
	{typ: models.EntityTime, re: inDaysPattern, confidence: 0.85},
	{typ: models.EntityTime, re: isoDatePattern, confidence: 0.95},
	{typ: models.EntityDifficulty, re: difficultyPattern, confidence: 0.85, canonical: map[string]string{
		"simple": "easy", "moderate": "medium", "difficult": "hard", "tough": "hard",
	}},
	{typ: models.EntityPoints, re: pointsPattern, confidence: 0.9},
	{typ: models.EntityPoints, re: percentPattern, confidence: 0.85, suffix: "%"},
	{typ: models.EntityCategory, re: categoryPattern, confidence: 0.75},
}

const (
	snapshotMemberConfidence = 0.95
	snapshotChoreConfidence  = 0.9
	guessedMemberConfidence  = 0.6
)

var notAssignees = map[string]bool{
	"the": true, "a": true, "an": true, "me": true, "us": true, "them": true, "him": true, "her": true,
	"everyone": true, "everybody": true, "someone": true, "somebody": true, "anyone": true,
	"next": true, "this": true, "all": true, "be": true, "do": true, "each": true, "every": true,
	"my": true, "our": true, "your": true, "his": true, "their": true, "its": true,
}

// vocabulary holds the snapshot-derived matchers for one request.
type vocabulary struct {
	matchers []entityMatcher
	// memberIDs maps a normalized member name to its id.
	memberIDs map[string]string
}

func newVocabulary(snap *models.FamilyContextSnapshot) *vocabulary {
	v := &vocabulary{memberIDs: make(map[string]string)}
	if snap == nil {
		return v
	}

	var names []string
	for _, m := range snap.Members {
		name := normalize(m.Name)
		if name == "" {
			continue
		}
		v.memberIDs[name] = m.ID
		names = append(names, name)
	}
	if re := alternation(names); re != nil {
		v.matchers = append(v.matchers, entityMatcher{typ: models.EntityMember, re: re, confidence: snapshotMemberConfidence})
	}

	var titles, rooms []string
	for _, c := range snap.ActiveChores {
		if t := normalize(c.Title); t != "" {
			titles = append(titles, t)
		}
		if r := normalize(c.Room); r != "" {
			rooms = append(rooms, r)
		}
	}
	if re := alternation(titles); re != nil {
		v.matchers = append(v.matchers, entityMatcher{typ: models.EntityChoreType, re: re, confidence: snapshotChoreConfidence})
	}
	if re := alternation(rooms); re != nil {
		v.matchers = append(v.matchers, entityMatcher{typ: models.EntityRoom, re: re, confidence: snapshotChoreConfidence})
	}
	return v
}

// alternation compiles a word-bounded pattern matching any of words,
// longest first so multi-word names win.
func alternation(words []string) *regexp.Regexp {
	seen := make(map[string]bool, len(words))
	var uniq []string
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			uniq = append(uniq, regexp.QuoteMeta(w))
		}
	}
	if len(uniq) == 0 {
		return nil
	}
	sort.Slice(uniq, func(i, j int) bool { return len(uniq[i]) > len(uniq[j]) })
	return regexp.MustCompile(`\b(` + strings.Join(uniq, "|") + `)\b`)
}

// extractEntities runs every matcher over normalized text and returns the
// deduplicated entities, highest confidence first.
func extractEntities(text string, vocab *vocabulary) []models.Entity {
	var found []models.Entity
	collect := func(m entityMatcher) {
		for _, loc := range m.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[loc[2]:loc[3]]
			found = append(found, models.Entity{
				Type:       m.typ,
				Value:      m.value(raw),
				Confidence: m.confidence,
				Span:       models.Span{Start: loc[2], End: loc[3]},
			})
		}
	}

	for _, m := range staticMatchers {
		collect(m)
	}
	for _, m := range vocab.matchers {
		collect(m)
	}

	if !hasType(found, models.EntityMember) {
		for _, loc := range assigneePattern.FindAllStringSubmatchIndex(text, -1) {
			word := text[loc[2]:loc[3]]
			if !looksLikeName(word) {
				continue
			}
			found = append(found, models.Entity{
				Type:       models.EntityMember,
				Value:      word,
				Confidence: guessedMemberConfidence,
				Span:       models.Span{Start: loc[2], End: loc[3]},
			})
		}
	}

	return dedupeEntities(found)
}

func looksLikeName(word string) bool {
	if notAssignees[word] {
		return false
	}
	for _, m := range staticMatchers {
		if m.re.MatchString(word) {
			return false
		}
	}
	return true
}

// dedupeEntities keeps the highest-confidence entity per (type, value),
// ordered by confidence then position.
func dedupeEntities(in []models.Entity) []models.Entity {
	best := make(map[string]int)
	out := make([]models.Entity, 0, len(in))
	for _, e := range in {
		key := string(e.Type) + "|" + e.Value
		if i, ok := best[key]; ok {
			if e.Confidence > out[i].Confidence {
				out[i] = e
			}
			continue
		}
		best[key] = len(out)
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}

func hasType(entities []models.Entity, t models.EntityType) bool {
	for _, e := range entities {
		if e.Type == t {
			return true
		}
	}
	return false
}

func valuesOf(entities []models.Entity, types ...models.EntityType) []string {
	var out []string
	for _, e := range entities {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e.Value)
				break
			}
		}
	}
	return out
}

func firstOf(entities []models.Entity, t models.EntityType) (models.Entity, bool) {
	for _, e := range entities {
		if e.Type == t {
			return e, true
		}
	}
	return models.Entity{}, false
}
