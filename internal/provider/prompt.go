// Package provider holds what every generation backend shares: the prompts
// sent to the model and the normalization of the JSON it answers with.
package provider

import (
	"fmt"
	"strings"
)

// Task selects the prompt and response shape of one call.
type Task int

const (
	// TaskAnalyze asks for a full word analysis.
	TaskAnalyze Task = iota
	// TaskExample asks for a single replacement example sentence.
	TaskExample
)

// Prompt is a provider-neutral request: a system instruction and the user turn.
type Prompt struct {
	Task      Task
	Word      string
	Focus     string
	Languages []string
	System    string
	User      string
}

// Options tunes the analysis prompt.
type Options struct {
	Languages     []string
	ShowPlural    bool
	ShowVerbForms bool
}

// AnalysisPrompt builds the prompt for a full analysis of word. A non-nil
// focus constrains the example sentence to that grammar topic.
func AnalysisPrompt(word string, focus *string, opts Options) Prompt {
	quoted := make([]string, len(opts.Languages))
	for i, code := range opts.Languages {
		quoted[i] = fmt.Sprintf("%q", code)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert German linguist. Analyze the German word %q and output strict JSON.\n\n", word)
	b.WriteString("1. Identify type (Noun, Verb, Adjective, etc).\n")
	b.WriteString("2. If Noun, provide article (der, die, das). Else null.\n")
	fmt.Fprintf(&b, "3. Translate to: %s.\n", strings.Join(quoted, ", "))
	fmt.Fprintf(&b, "4. Match \"original\" to input %q.\n", word)
	b.WriteString(formsInstruction(opts))
	b.WriteString(exampleInstruction(word, focus))
	b.WriteString("\n\nOutput must follow the specified JSON schema exactly.")
	fmt.Fprintf(&b, "\n\nOutput strictly JSON matching this schema:\n%s", SchemaString(opts))

	return Prompt{
		Task:      TaskAnalyze,
		Word:      word,
		Focus:     focusText(focus),
		Languages: opts.Languages,
		System:    b.String(),
		User:      fmt.Sprintf("Word: %q", word),
	}
}

// ExamplePrompt builds the prompt that regenerates only the example
// sentence of word.
func ExamplePrompt(word string, focus *string) Prompt {
	constraint := "CONSTRAINT: Use a simple A2/B1 sentence structure."
	if focus != nil && *focus != "" {
		constraint = fmt.Sprintf("CONSTRAINT: The sentence MUST strictly demonstrate the grammar topic: %q.", *focus)
	}

	system := fmt.Sprintf(`You are a strict German Grammar Corrector.
Task: Generate a 100%% grammatically correct example sentence for the word %[1]q.

CRITICAL RULES:
1. **Conjugation**: If %[1]q is a verb, YOU MUST CONJUGATE it based on the subject (e.g., "Ich mache" NOT "Ich machen").
2. **Word Order**: Verb must be in the 2nd position for main clauses.
3. **Cases**: Ensure correct declension (Der/Die/Das/Den/Dem) for all nouns.
4. **Highlighting**: Wrap ONLY the conjugated form of %[1]q in **double asterisks**.

%[2]s

Output strictly JSON:
{
  "example": "Your corrected sentence here."
}`, word, constraint)

	return Prompt{
		Task:   TaskExample,
		Word:   word,
		Focus:  focusText(focus),
		System: system,
		User:   fmt.Sprintf("Word: %q", word),
	}
}

func focusText(focus *string) string {
	if focus == nil {
		return ""
	}
	return *focus
}

func formsInstruction(opts Options) string {
	var parts []string
	if opts.ShowPlural {
		parts = append(parts, "the plural form if Noun (else null)")
	}
	if opts.ShowVerbForms {
		parts = append(parts, "the 3rd person singular Präsens, Präteritum, Perfekt and Konjunktiv II if Verb (else null)")
	}
	if len(parts) == 0 {
		return ""
	}
	return "5. Provide " + strings.Join(parts, "; ") + ".\n"
}

func exampleInstruction(word string, focus *string) string {
	if focus == nil || *focus == "" {
		return "6. Provide one simple A2-level German example sentence."
	}
	topic := *focus
	return fmt.Sprintf(`6. CONSTRAINT: The example sentence must strictly use the grammar structure: %[2]q.
   - **VERB CONJUGATION**: If %[1]q is a verb, you MUST conjugate it! Do not use the infinitive form unless the grammar topic specifically requires it (e.g. Modals).
   - **WORD ORDER**: Strictly follow German syntax (Verb in Position 2 for main clauses). Never write "Ich [Preposition] [Verb]...". Correct is "Ich [Verb] ... [Preposition]".
   - Adjust complexity to match this grammar level.
   - If %[1]q is a noun, make it the focus.
   - **CRITICAL**: If the grammar topic implies a choice (e.g. "kein vs nicht"), choose ONLY ONE.
   - **QUALITY CONTROL**: Ensure the sentence is 100%% grammatically correct Standard German. The grammar rule must fit NATURALLY into the sentence syntax.
   - IMPORTANT: Wrap ONLY the specific words/endings that illustrate this grammar rule in **double asterisks**. Do NOT bold the entire sentence.`, word, topic)
}

// SchemaString renders the expected analysis shape for providers that take
// the schema as prompt text.
func SchemaString(opts Options) string {
	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString(`  "original": "string",` + "\n")
	b.WriteString(`  "type": "string",` + "\n")
	b.WriteString(`  "article": "string (or null)",` + "\n")
	if opts.ShowPlural {
		b.WriteString(`  "plural": "string (or null)",` + "\n")
	}
	if opts.ShowVerbForms {
		b.WriteString(`  "verbForms": { "present_3rd": "string", "past_3rd": "string", "perfect_3rd": "string", "konjunktiv2_3rd": "string" } (or null),` + "\n")
	}
	b.WriteString(`  "translationsList": [ { "code": "string", "text": "string" } ],` + "\n")
	b.WriteString(`  "example": "string"` + "\n")
	b.WriteString("}")
	return b.String()
}
