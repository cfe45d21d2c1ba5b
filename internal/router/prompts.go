package router

import (
	"fmt"

	"gapaudit/internal/tools"
)

const decisionSystemPrompt = `You are a decision agent.
You will be given:
1) A user goal or question.
2) A list of available actions with their JSON arg schemas.

You MUST respond with strict JSON:
{
  "action": "<one_of_action_names>",
  "args": { ...json args matching the schema... },
  "reason": "<one short sentence>"
}
Do not include any extra keys or commentary.`

// BuildSystemPrompt embeds the registry's action catalog into the decision
// prompt. The result is what VerifyCatalog checks registered names against.
func BuildSystemPrompt(registry *tools.Registry) string {
	return fmt.Sprintf("%s\n\nACTIONS:\n%s\n\nReturn JSON only.", decisionSystemPrompt, registry.Catalog())
}

// BuildUserPrompt frames the user goal for the model.
func BuildUserPrompt(query string) string {
	return fmt.Sprintf("USER_GOAL:\n%s", query)
}
