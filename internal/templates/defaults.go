package templates

// defaults holds the compiled-in template per category. The pipeline must be
// able to render with an empty store, so every category referenced by any
// step has an entry here.
var defaults = map[Category]string{
	CategoryBriefAnalysis: `You are an instructional designer reviewing a client brief.

Client: {{client_name}} (industry: {{industry}})

Brief:
{{brief}}

Summarize the training need in 3-5 sentences: audience, goal, constraints, and tone. Return plain text.`,

	CategoryFrameworkSelection: `You are an instructional designer choosing a pedagogical framework.

Client: {{client_name}} (industry: {{industry}})
Training need:
{{brief}}

Propose 3 candidate frameworks (e.g. Bloom's taxonomy, 4C/ID, Gagne's nine events). Return JSON:
{"frameworks": [{"name": "...", "rationale": "...", "fit_score": 0.0}]}`,

	CategoryApproachGeneration: `You are designing the teaching approach for a training program.

Framework: {{framework}}
Source material summary:
{{source_summary}}

Propose 3 distinct approaches for structuring the program. Return JSON:
{"approaches": [{"title": "...", "summary": "...", "strengths": ["..."]}]}`,

	CategoryResearchSummary: `You are researching an industry to ground a training program.

Client: {{client_name}} (industry: {{industry}})
Collected material:
{{corpus}}

Write a concise research summary (400-600 words) covering terminology, typical roles, and common practice gaps. Return plain text.`,

	CategoryArcGeneration: `You are sequencing a learning arc for a training program.

Approach: {{approach}}
Source content:
{{extracted_content}}

Produce an ordered learning arc of 4-8 stages, each with a title and learning objective. Return JSON:
{"stages": [{"title": "...", "objective": "..."}]}`,

	CategoryMatrixGeneration: `You are planning the content matrix for a training program.

Client: {{client_name}} (industry: {{industry}})
Approach: {{approach}}
Grounding:
{{grounding}}

Produce a matrix of 4-10 content units. Each unit covers one topic and will receive an article, a quiz, a video script, and an exercise. Return JSON:
{"units": [{"topic": "...", "audience_level": "beginner|intermediate|advanced", "objective": "..."}]}`,

	CategoryArticleGeneration: `Write a training article.

Topic: {{topic}}
Audience level: {{audience_level}}
Learning objective: {{objective}}
Industry: {{industry}}

Write an 800-1200 word article with a title on the first line, then the body in markdown. Practical, concrete, no filler.`,

	CategoryQuizGeneration: `Write a quiz for a training unit.

Topic: {{topic}}
Audience level: {{audience_level}}
Learning objective: {{objective}}

Return JSON with 5 multiple-choice questions:
{"title": "...", "questions": [{"prompt": "...", "choices": ["...","...","...","..."], "answer_index": 0, "explanation": "..."}]}`,

	CategoryScriptGeneration: `Write a video script for a training unit.

Topic: {{topic}}
Audience level: {{audience_level}}
Learning objective: {{objective}}

Write a 3-5 minute presenter script with scene directions in brackets. Title on the first line, then the script.`,

	CategoryExerciseGeneration: `Write a hands-on exercise for a training unit.

Topic: {{topic}}
Audience level: {{audience_level}}
Learning objective: {{objective}}
Industry: {{industry}}

Return JSON:
{"title": "...", "scenario": "...", "tasks": ["..."], "success_criteria": ["..."]}`,

	CategoryQualityScoring: `You are a quality reviewer for generated training content.

Content kind: {{kind}}
Learning objective: {{objective}}
Audience level: {{audience_level}}

Content:
{{content}}

Score the content 0-100 for accuracy, objective alignment, and audience fit. If it scores below 70, propose concrete patches. Return JSON:
{"score": 0, "pass": false, "patches": [{"target": "...", "instruction": "..."}]}`,

	CategoryContentRepair: `You are repairing generated training content according to reviewer patches.

Content kind: {{kind}}
Original content:
{{content}}

Patches to apply:
{{patches}}

Apply every patch and return the full revised content in the same format as the original. Do not add commentary.`,
}

// DefaultTemplate returns the compiled-in template for a category. Unknown
// categories yield an empty template, which renders to an empty instruction
// rather than failing.
func DefaultTemplate(c Category) string {
	return defaults[c]
}
