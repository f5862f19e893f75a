package insight

// systemPrompt pins the collaborator to a strict JSON contract.
const systemPrompt = "You are a sales analytics assistant. Respond with a single JSON object " +
	"containing exactly these keys: summary (string), highlights (list of strings), " +
	"risks (list of strings), actions (list of strings). Do not add any text outside the JSON."

// analysisPromptFormat carries the serialized metrics into the prompt.
const analysisPromptFormat = `Analyze the following sales metrics and produce an executive insight.

SALES METRICS:
%s

DETECTED ANOMALIES:
%s

Ground every statement in the numbers above. Keep the summary under 120 words.`

// pdfContextHeader introduces supplemental passages drawn from
// recently uploaded PDF reports.
const pdfContextHeader = "PDF CONTEXT:"
