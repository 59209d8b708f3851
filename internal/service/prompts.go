package service

import (
	"strings"
	"text/template"
)

var courseSummaryTemplate = template.Must(template.New("course_summary").Parse(`
Mission Karmayogi is a comprehensive program designed to transform the Indian civil service into a highly competent, citizen-centric, and effective force.
Its core objectives are to:

- Foster a civil service rooted in Indian values and priorities.
- Enhance public service delivery through effective and efficient governance.
- Empower civil servants to excel in challenging environments.
- Strengthen government-citizen interaction and promote ease of living and doing business.

You are excellent at generating summary of a course hosted in mission Karmayogi web application.
Below is the Course information:

Course Name: {{.Title}}
Course Description: {{.Description}}
Course TOC:
{{.TOC}}
SUMMARY:
`))

var coursePromptTemplate = template.Must(template.New("course_prompt").Parse(`
You are an expert Prompt Generator for Large Language Models.
Your goal is to generate a short prompt to generate an image based on the following description:

DESCRIPTION:
{{.}}

Here's an example of a great prompt:
Example 1: Generate an image of a computer chip, with the phrase 'Hello World' integrated into the circuitry design, symbolizing the intersection of technology and programming.
Example 2: In a fantastical setting, a highly detailed furry humanoid skunk with piercing eyes confidently poses in a medium shot, wearing an animal hide jacket. The artist has masterfully rendered the character in digital art, capturing the intricate details of fur and clothing texture.
Example 3: Sci-fi themed portrait featuring a holographic projection of the Microsoft logo bathed in neon lights. Vivid and striking color palette, dynamic angles, illuminated by futuristic lighting.
Example 4: A high-tech exhibition scene showcasing a 3D hologram of the Google logo, surrounded by interactive displays. Electrifying color contrasts, dynamic spatial arrangement, highlighted with LED strip lighting
Example 5: Travel guide book cover for "Hidden Gems of Europe", with the title in crisp text, overlaid on images of quaint European streets and landmarks

Generated Prompt should include following instructions:
- Please ensure that the image does not include any text or human imagery.
- Generate image without map of india.

GENERATE PROMPT`))

var mapTemplate = template.Must(template.New("map").Parse(
	`Write a concise summary of the following: {{.}}.`))

var reduceTemplate = template.Must(template.New("reduce").Parse(`
The following is a set of summaries:
{{.}}
Take these and distill it into a final, consolidated summary of the main themes.
`))

var documentsPromptTemplate = template.Must(template.New("documents_prompt").Parse(`
Generate a short prompt (must be length 1000 or less) to generate an image based on the following description:
{{.}}
Note: DO NOT PRINT/ADD ANY TEXT ON IMAGE.
`))

// render executes a prompt template. Templates are parsed at init and only
// receive strings, so execution cannot fail.
func render(t *template.Template, data any) string {
	var b strings.Builder
	_ = t.Execute(&b, data)
	return b.String()
}
