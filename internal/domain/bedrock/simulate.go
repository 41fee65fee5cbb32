package bedrock

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/tgsai/aiops-console/internal/domain/types"
)

var simulatedOpeners = map[Family][]string{
	Anthropic: {
		"Here's a considered take on your request.",
		"Let me work through this step by step.",
	},
	AmazonTitan: {"Titan response:", "Summary:"},
	AmazonNova:  {"Nova here.", "Quick answer:"},
	Meta:        {"Sure! Here's what I can tell you.", "Great question."},
	Mistral:     {"Voici. In short:", "Answer:"},
	Cohere:      {"Based on the information provided,", "To summarize,"},
	AI21:        {"Jamba response:", "Here is a concise reply:"},
}

// Simulate returns deterministic placeholder text in the style of family,
// used when Bedrock cannot be called. Usage approximates whitespace tokens.
func Simulate(family Family, modelID, prompt string) types.Generation {
	openers, ok := simulatedOpeners[family]
	if !ok {
		openers = []string{"Simulated response:"}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	opener := openers[int(h.Sum32()%uint32(len(openers)))]

	topic := strings.Join(strings.Fields(prompt), " ")
	if len(topic) > 120 {
		topic = topic[:117] + "..."
	}
	text := fmt.Sprintf("%s This is a simulated %s completion because Amazon Bedrock is not available for this environment. "+
		"Your prompt was: %q. Configure AWS credentials to receive a live answer from %s.",
		opener, family.Provider(), topic, modelID)

	return types.Generation{
		Completion: text,
		ModelID:    modelID,
		Provider:   family.Provider(),
		Source:     types.SourceSimulated,
		Usage: types.Usage{
			InputTokens:  len(strings.Fields(prompt)),
			OutputTokens: len(strings.Fields(text)),
		},
	}
}
