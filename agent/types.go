package agent

// Prompt is the message set sent to the model.
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Message carries a single prior turn when history matters.
type Message struct {
	Role    string
	Content string
}

// Intent is the classified purpose of a user message. The set is closed:
// anything the classifier cannot place lands on IntentGeneralChat.
type Intent string

const (
	IntentResearch       Intent = "research"
	IntentDrafting       Intent = "drafting"
	IntentEvidenceReview Intent = "evidence-review"
	IntentExtraction     Intent = "extraction"
	IntentGeneralChat    Intent = "general-chat"
)

// KnownIntents lists every label the router may return.
var KnownIntents = []Intent{
	IntentResearch,
	IntentDrafting,
	IntentEvidenceReview,
	IntentExtraction,
	IntentGeneralChat,
}

// DraftContext carries everything the drafting agent needs for a first
// draft or a revision. PreviousBody empty means first draft.
type DraftContext struct {
	ConversationText string
	PreviousBody     string
	Feedback         string
	RejectionReason  string
	History          []Message
}

// DraftResult is the post-processed output of one drafting call.
type DraftResult struct {
	Title    string
	Digest   string
	Markdown string
}

// ResearchResult is a research answer plus its cited sources.
type ResearchResult struct {
	Answer  string
	Sources []string
}

// Analysis is the conversation analyzer's verdict on a transcript.
type Analysis struct {
	HasDocumentIntent bool
	DocumentType      string
	Confidence        float64
	Parties           []string
	KeyTerms          []string
	MissingInfo       []string
}
