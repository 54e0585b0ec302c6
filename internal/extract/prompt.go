// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"
)

// systemPromptTmpl wraps a stage's instructions with its JSON Schema.
var systemPromptTmpl = template.Must(template.New("system").Parse(`{{.Instructions}}

Respond with a single JSON object that validates against the JSON Schema below. Do not include any text outside the JSON object.

JSON Schema:
{{.Schema}}
`))

// renderSystemPrompt executes the system prompt template for a schema.
func renderSystemPrompt(schema Schema) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Instructions string
		Schema       string
	}{schema.Instructions, schema.String()}
	if err := systemPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
