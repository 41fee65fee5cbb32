// Package bedrock encodes and decodes InvokeModel payloads for the Bedrock
// model families and produces simulated completions when Bedrock is not
// reachable.
package bedrock

import "strings"

// Family identifies a request/response format.
type Family string

// Supported families.
const (
	Anthropic   Family = "anthropic"
	AmazonTitan Family = "amazon-titan"
	AmazonNova  Family = "amazon-nova"
	Meta        Family = "meta"
	Mistral     Family = "mistral"
	Cohere      Family = "cohere"
	AI21        Family = "ai21"
	Unknown     Family = "unknown"
)

// geographic prefixes of cross-region inference profile ids
var profilePrefixes = []string{"us.", "eu.", "apac.", "us-gov.", "global."}

// FamilyOf maps a model id or inference profile id to its family.
func FamilyOf(modelID string) Family {
	id := strings.ToLower(strings.TrimSpace(modelID))
	for _, p := range profilePrefixes {
		if strings.HasPrefix(id, p) {
			id = strings.TrimPrefix(id, p)
			break
		}
	}
	switch {
	case strings.HasPrefix(id, "anthropic."):
		return Anthropic
	case strings.HasPrefix(id, "amazon.titan-text"), strings.HasPrefix(id, "amazon.titan-tg1"):
		return AmazonTitan
	case strings.HasPrefix(id, "amazon.nova"):
		return AmazonNova
	case strings.HasPrefix(id, "meta."):
		return Meta
	case strings.HasPrefix(id, "mistral."):
		return Mistral
	case strings.HasPrefix(id, "cohere.command"):
		return Cohere
	case strings.HasPrefix(id, "ai21."):
		return AI21
	default:
		return Unknown
	}
}

// Provider returns the display name of the family's vendor.
func (f Family) Provider() string {
	switch f {
	case Anthropic:
		return "Anthropic"
	case AmazonTitan, AmazonNova:
		return "Amazon"
	case Meta:
		return "Meta"
	case Mistral:
		return "Mistral AI"
	case Cohere:
		return "Cohere"
	case AI21:
		return "AI21 Labs"
	default:
		return "Unknown"
	}
}
