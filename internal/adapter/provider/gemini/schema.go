package gemini

import (
	"google.golang.org/genai"

	"github.com/nguyendangtritoan/german-note/internal/provider"
)

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func responseSchema(task provider.Task, opts provider.Options) *genai.Schema {
	if task == provider.TaskExample {
		return &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{"example": stringSchema()},
			Required:   []string{"example"},
		}
	}

	props := map[string]*genai.Schema{
		"original": stringSchema(),
		"type":     stringSchema(),
		"article":  {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"translationsList": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"code": {Type: genai.TypeString, Description: "Language code (e.g. 'en', 'vi')"},
					"text": {Type: genai.TypeString, Description: "The translated word"},
				},
				Required: []string{"code", "text"},
			},
		},
		"example": stringSchema(),
	}
	if opts.ShowPlural {
		props["plural"] = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
	}
	if opts.ShowVerbForms {
		props["verbForms"] = &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"present_3rd":     stringSchema(),
				"past_3rd":        stringSchema(),
				"perfect_3rd":     stringSchema(),
				"konjunktiv2_3rd": stringSchema(),
			},
			Nullable: genai.Ptr(true),
		}
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   []string{"original", "type", "article", "translationsList", "example"},
	}
}
