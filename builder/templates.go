package builder

import "github.com/google/uuid"

// paragraphGroup builds the default repeatable paragraph group. Every group
// starts with one empty entry so the minimum-count constraint is satisfiable
// by typing into the first field.
func paragraphGroup() map[string]any {
	return map[string]any{
		"paragraphs": []any{
			map[string]any{"id": uuid.NewString(), "content": ""},
		},
	}
}

func featureItem() map[string]any {
	return map[string]any{"id": uuid.NewString(), "title": "", "content": ""}
}

// paragraphGroupSchema is the shared shape of nested paragraph groups:
// an ordered sequence of {id, content} entries, at least one at save time.
// Entry ids are stable within a group; legacy documents carry integer ids,
// new entries get uuid strings, so both are accepted.
const paragraphGroupSchema = `{
	"type": "object",
	"properties": {
		"paragraphs": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": ["string", "integer"]},
					"content": {"type": "string"}
				},
				"required": ["id", "content"]
			}
		}
	},
	"required": ["paragraphs"]
}`

type builtinTemplate struct {
	id       TemplateID
	schema   string
	defaults DefaultDataFunc
}

var builtinTemplates = []builtinTemplate{
	{
		id: Template1,
		schema: `{
			"type": "object",
			"properties": {
				"heading": {"type": "string", "minLength": 1},
				"subheading": {"type": "string"},
				"image": {"type": "string"}
			},
			"required": ["heading"]
		}`,
		defaults: func() map[string]any {
			return map[string]any{
				"heading":    "",
				"subheading": "",
				"image":      "",
			}
		},
	},
	{
		id: Template2,
		schema: `{
			"type": "object",
			"properties": {
				"stepNumber": {"type": "string", "minLength": 1},
				"heading": {"type": "string", "minLength": 1},
				"description": ` + paragraphGroupSchema + `,
				"image": {"type": "string"}
			},
			"required": ["stepNumber", "heading", "description"]
		}`,
		defaults: func() map[string]any {
			return map[string]any{
				"stepNumber":  "",
				"heading":     "",
				"description": paragraphGroup(),
				"image":       "",
			}
		},
	},
	{
		id: Template3,
		schema: `{
			"type": "object",
			"properties": {
				"heading": {"type": "string", "minLength": 1},
				"description": ` + paragraphGroupSchema + `
			},
			"required": ["heading", "description"]
		}`,
		defaults: func() map[string]any {
			return map[string]any{
				"heading":     "",
				"description": paragraphGroup(),
			}
		},
	},
	{
		id: Template4,
		schema: `{
			"type": "object",
			"properties": {
				"heading": {"type": "string", "minLength": 1},
				"items": {
					"type": "array",
					"minItems": 1,
					"items": {
						"type": "object",
						"properties": {
							"id": {"type": ["string", "integer"]},
							"title": {"type": "string"},
							"content": {"type": "string"}
						},
						"required": ["id", "title"]
					}
				}
			},
			"required": ["heading", "items"]
		}`,
		defaults: func() map[string]any {
			return map[string]any{
				"heading": "",
				"items":   []any{featureItem()},
			}
		},
	},
	{
		id: Template6,
		schema: `{
			"type": "object",
			"properties": {
				"heading": {"type": "string", "minLength": 1},
				"buttonText": {"type": "string", "minLength": 1},
				"buttonLink": {"type": "string"},
				"image": {"type": "string"}
			},
			"required": ["heading", "buttonText"]
		}`,
		defaults: func() map[string]any {
			return map[string]any{
				"heading":    "",
				"buttonText": "",
				"buttonLink": "",
				"image":      "",
			}
		},
	},
}
