package domain

// GrammarLevel is one CEFR level of the grammar-focus catalog.
type GrammarLevel struct {
	ID     string
	Title  string
	Topics []string
}

// GrammarLevels is the catalog of grammar topics a search can focus on.
var GrammarLevels = []GrammarLevel{
	{
		ID:    "A1",
		Title: "A1: The Foundation",
		Topics: []string{
			"Nouns & Gender (der/die/das)",
			"Plural Forms",
			"Negation (kein vs nicht)",
			"Nominative Case",
			"Accusative Case",
			"Personal Pronouns",
			"Present Tense (Präsens)",
			"Verb: Haben & Sein",
			"Separable Verbs",
			"Modal Verbs (Basics)",
			"Imperative",
			"W-Questions & Yes/No",
			"Prepositions (Time/Place)",
		},
	},
	{
		ID:    "A2",
		Title: "A2: Elementary",
		Topics: []string{
			"Dative Case",
			"Verbs with Dative",
			"Perfect Tense (Perfekt)",
			"Simple Past (Präteritum Basics)",
			"Reflexive Verbs",
			"Futur I",
			"Adjective Comparison",
			"Adjective Declension (Basic)",
			"Two-Way Prepositions (Wechselpräpositionen)",
			"Subordinate Clauses (weil, dass)",
			"Indirect Questions",
		},
	},
	{
		ID:    "B1",
		Title: "B1: Intermediate",
		Topics: []string{
			"Genitive Case",
			"N-Declension",
			"Präteritum (Written Narrative)",
			"Plusquamperfekt (Past Perfect)",
			"Passive Voice (Vorgangspassiv)",
			"Konjunktiv II (Wishes/Polite)",
			"Verbs with Prepositions",
			"Adjective Declension (Full)",
			"Participle I & II as Adjectives",
			"Infinitive with 'zu'",
			"Double Connectors (sowohl...als auch)",
			"Relative Clauses",
		},
	},
	{
		ID:    "B2",
		Title: "B2: Upper Intermediate",
		Topics: []string{
			"Passive with Modals",
			"Zustandspassiv (State Passive)",
			"Subjective Modals (Assumption)",
			"Konjunktiv I (Indirect Speech)",
			"Nominalization",
			"Participle Constructions",
			"Nomen-Verb-Verbindungen",
			"Genitive Prepositions",
			"Advanced Connectors",
			"Word Order (Nachfeld)",
		},
	},
}

// IsGrammarTopic reports whether topic is in the catalog.
func IsGrammarTopic(topic string) bool {
	for _, level := range GrammarLevels {
		for _, t := range level.Topics {
			if t == topic {
				return true
			}
		}
	}
	return false
}

// Language is a translation target offered to clients.
type Language struct {
	Code string
	Name string
}

// Languages lists the supported translation targets.
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
}
