package models

// ConversationState describes how the current query relates to the
// session's recent history.
type ConversationState string

const (
	StateSameTask        ConversationState = "same_task"
	StateContextSwitch   ConversationState = "context_switch"
	StateNewConversation ConversationState = "new_conversation"
)

// Suggested actions a classification can resolve to.
const (
	ActionSkill      = "skill"
	ActionLLM        = "llm"
	ActionWorkflow   = "workflow"
	ActionSkillsBulk = "skills_bulk"
)

// IntentUnclear is the fallback intent for queries with no keyword signal.
const IntentUnclear = "unclear"

// AlternativeIntent is a runner-up intent with its share of the total score.
type AlternativeIntent struct {
	Intent string  `json:"intent"`
	Score  float64 `json:"score"`
}

// ClassificationResult is the immutable output of one classification pass.
// Instances are shared between the cache and callers; nothing mutates one
// after creation.
type ClassificationResult struct {
	Intent          string              `json:"intent"`
	Confidence      float64             `json:"confidence"`
	Reasoning       string              `json:"reasoning"`
	MatchedKeywords []string            `json:"matchedKeywords,omitempty"`
	Alternatives    []AlternativeIntent `json:"alternatives,omitempty"`
	NeedsWorkflow   bool                `json:"needsWorkflow"`
	WorkflowName    string              `json:"workflowName,omitempty"`
	NeedsBulk       bool                `json:"needsBulk"`
	BulkName        string              `json:"bulkName,omitempty"`
	Complexity      float64             `json:"complexity"`
	SuggestedAction string              `json:"suggestedAction"`
}
