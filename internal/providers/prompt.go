package providers

import "fmt"

// transcribePrompt is the default system prompt for page transcription.
const transcribePrompt = `Convert the following document page to markdown.
Return only the markdown with no explanation text.
Do not exclude any content on the page.`

// maintainFormatPrompt extends the request with the preceding page's final
// content so formatting stays consistent across page boundaries (continued
// tables, lists, headings).
func maintainFormatPrompt(priorPage string) string {
	return fmt.Sprintf("Markdown must maintain consistent formatting with the following page:\n\n\"\"\"%s\"\"\"", priorPage)
}

// structuredPrompt asks for a single JSON document conforming to schemaJSON,
// assembled from all attached page images.
func structuredPrompt(schemaJSON []byte) string {
	return fmt.Sprintf(`Extract the requested information from the attached document pages.
Return ONLY a single JSON object (no markdown, no commentary) that strictly conforms to this JSON schema:

%s`, schemaJSON)
}
