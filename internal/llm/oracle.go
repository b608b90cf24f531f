// Package llm provides the text-generation oracle consumed by the negotiation
// core. The oracle is a black box from prompt to completion; classification
// calls constrain the completion to an enumerated label set and fall back to
// "unclassified" on anything else, never an error.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Unclassified is returned by Classify when the completion does not match any
// of the supplied labels.
const Unclassified = "unclassified"

// Oracle is a blocking function from a text prompt to a text completion.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classify asks the oracle to pick exactly one label from the supplied set.
// Completions are matched case-insensitively after trimming; any output
// outside the set yields Unclassified. Oracle transport errors are the only
// errors surfaced.
func Classify(ctx context.Context, oracle Oracle, prompt string, labels []string) (string, error) {
	full := fmt.Sprintf("%s\n\nAnswer with exactly one of: %s", prompt, strings.Join(labels, ", "))
	completion, err := oracle.Complete(ctx, full)
	if err != nil {
		return Unclassified, err
	}

	answer := strings.ToLower(strings.TrimSpace(completion))
	for _, label := range labels {
		if answer == strings.ToLower(label) {
			return label, nil
		}
	}
	return Unclassified, nil
}
