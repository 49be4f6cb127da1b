package brief

import "strings"

// Extractor pre-fills requirements from the latest user message.
// Implementations must not fail and must not touch completion flags.
type Extractor interface {
	Extract(userText string, req *Requirements)
}

// KeywordRule fires Apply when any trigger occurs in the text
type KeywordRule struct {
	Triggers []string
	Apply    func(req *Requirements)
}

// KeywordExtractor matches case-insensitive substrings against an ordered rule table.
// Every matching rule fires, in order, so later rules overwrite earlier ones.
type KeywordExtractor struct {
	Rules []KeywordRule
}

// NewKeywordExtractor returns an extractor with the default role-family rules
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{Rules: DefaultKeywordRules()}
}

// DefaultKeywordRules returns the built-in rule table
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{
			Triggers: []string{"développeur"},
			Apply: func(req *Requirements) {
				req.Missions = []string{"Développement logiciel", "Maintenance du code"}
				req.HardSkills = []string{"JavaScript", "React", "Node.js"}
			},
		},
		{
			Triggers: []string{"product"},
			Apply: func(req *Requirements) {
				req.Missions = []string{"Gestion de produit", "Définition de roadmap"}
				req.SoftSkills = []string{"Communication", "Leadership"}
			},
		},
		{
			Triggers: []string{"remote", "télétravail"},
			Apply: func(req *Requirements) {
				req.Location = "Télétravail possible"
			},
		},
	}
}

// Extract applies every rule whose trigger appears in userText
func (e *KeywordExtractor) Extract(userText string, req *Requirements) {
	if req == nil {
		return
	}
	text := strings.ToLower(userText)
	for _, rule := range e.Rules {
		if rule.Apply == nil {
			continue
		}
		for _, trigger := range rule.Triggers {
			if strings.Contains(text, strings.ToLower(trigger)) {
				rule.Apply(req)
				break
			}
		}
	}
}
