package solution

import "github.com/abhisek/smartmath/internal/llm"

// Schema is the response contract for photo recognition.
var Schema = &llm.Schema{
	Name:        "math-solution",
	Description: "A recognized math problem with a step-by-step solution in Bulgarian",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"latex_expression": map[string]any{
				"type":        "string",
				"description": "The mathematical expression extracted from the image in valid LaTeX format.",
			},
			"final_answer": map[string]any{
				"type":        "string",
				"description": "The final result of the math problem in LaTeX format.",
			},
			"difficulty": map[string]any{
				"type":        "string",
				"enum":        []any{string(Easy), string(Medium), string(Hard)},
				"description": "The estimated difficulty level of the problem.",
			},
			"topic": map[string]any{
				"type":        "string",
				"description": "The mathematical topic (e.g., Algebra, Calculus, Geometry) in Bulgarian.",
			},
			"steps": map[string]any{
				"type":        "array",
				"description": "A step-by-step breakdown of the solution in Bulgarian.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": "Short title of the step in Bulgarian (e.g., 'Опростяване на израза').",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Detailed natural language explanation in Bulgarian of what happened in this step.",
						},
						"latex_result": map[string]any{
							"type":        "string",
							"description": "The state of the equation after this step in LaTeX.",
						},
					},
					"required":             []any{"title", "explanation", "latex_result"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"latex_expression", "final_answer", "difficulty", "steps", "topic"},
		"additionalProperties": false,
	},
}
