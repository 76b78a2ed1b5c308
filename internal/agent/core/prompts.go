package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

func schemaJSON(schema TargetSchema) string {
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func queryWriterPrompt(subject Subject, schema TargetSchema, userNotes string, maxQueries int) string {
	return fmt.Sprintf(`You are a search query generator tasked with creating targeted search queries to gather specific information about a person.

Here is the person you are researching: %s

Generate at most %d search queries that will help gather the following information:

<schema>
%s
</schema>

<user_notes>
%s
</user_notes>

Your queries should:
1. Make sure to look up the right name
2. Use context clues as to the company the person works at (if it isn't concretely provided)
3. Do not hallucinate search terms that will make you miss the person's profile entirely
4. Take advantage of the LinkedIn URL if it exists, you can include the raw URL in your search query as that will lead you to the correct page guaranteed.

Create focused queries that will maximize the chances of finding schema-relevant information about the person.
Remember we are interested in determining their work experience mainly.

Respond ONLY with valid JSON in the following format:
{"queries": ["query one", "query two"]}
Do not include any other text or explanation.`, subject.Describe(), maxQueries, schemaJSON(schema), userNotes)
}

func noteTakerPrompt(subject Subject, schema TargetSchema, evidence string, userNotes string) string {
	return fmt.Sprintf(`You are doing web research on a person: %s.

The following schema shows the type of information we're interested in:

<schema>
%s
</schema>

You have just scraped website content. Your task is to take clear, organized notes about the person, focusing on topics relevant to our interests.

<website_contents>
%s
</website_contents>

Here are any additional notes from the user:
<user_notes>
%s
</user_notes>

Please provide detailed research notes that:
1. Are well-organized and easy to read
2. Focus on topics mentioned in the schema
3. Include specific facts, dates, and figures when available
4. Maintain accuracy of the original content
5. Note when important information appears to be missing or unclear

Remember: Don't try to format the output to match the schema - just take clear notes that capture all relevant information.`, subject.Describe(), schemaJSON(schema), evidence, userNotes)
}

func reflectionPrompt(subject Subject, schema TargetSchema, notes string, maxQueries int) string {
	return fmt.Sprintf(`You are a research analyst tasked with analyzing research notes about a person and extracting structured information.

Here are the research notes from web searches:
<research_notes>
%s
</research_notes>

Here is the person being researched:
<person_info>
%s
</person_info>

Extract a value for every field of the following schema from the notes. Use null when the notes do not support a value; only extract information that is clearly stated.

<extraction_schema>
%s
</extraction_schema>

Then judge the research: decide whether the notes are sufficient to consider the profile complete, list the schema fields that are still missing or weakly supported, and, if incomplete, propose at most %d follow-up search queries that would close those gaps.

Respond ONLY with valid JSON in the following format:
{
  "profile": {"field_name": "extracted value or null"},
  "is_satisfactory": true,
  "missing_fields": ["field_name"],
  "follow_up_queries": ["query"],
  "reasoning": "why the research is or is not complete"
}
Do not include any other text or explanation.`, notes, subject.Describe(), schemaJSON(schema), maxQueries)
}

// formatNotes concatenates all accumulated notes with round-numbered
// separators for the reflection prompt.
func formatNotes(notes []ResearchNote) string {
	var sb strings.Builder
	for i, note := range notes {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "=== Research round %d ===\n%s\n", note.Round, note.Content)
	}
	return sb.String()
}
