package agent

import (
	"fmt"
	"strings"
)

// Document types the drafting agent knows templates for. Unknown types are
// drafted as a custom document.
var DocumentTypes = []string{
	"demand_letter",
	"plaint",
	"brief",
	"affidavit",
	"employment_contract",
	"custom_document",
}

// BuildIntentPrompt asks the model to classify one message into exactly one
// intent label, as JSON, so the router can parse it mechanically.
func BuildIntentPrompt(message string, history []Message) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a legal assistant that routes lawyer requests to specialized agents.\n")
	sb.WriteString("Classify the user's latest message into exactly one intent:\n")
	for _, it := range KnownIntents {
		sb.WriteString(fmt.Sprintf("- %s\n", it))
	}
	sb.WriteString("Respond with JSON only: {\"intent\": \"<label>\", \"reasoning\": \"<one sentence>\"}\n")
	sb.WriteString("If the request fits nothing, use general-chat.")

	return Prompt{
		System:  sb.String(),
		User:    message,
		History: history,
	}
}

// BuildInitialDraftPrompt produces the first version of a legal document
// from the accumulated conversation.
func BuildInitialDraftPrompt(docType string, dc DraftContext) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a legal drafting assistant. Output a complete document in Markdown, no extra commentary.\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString(fmt.Sprintf("- Document type: %s.\n", strings.ReplaceAll(docType, "_", " ")))
	sb.WriteString("- Start with a level-1 heading as the document title.\n")
	sb.WriteString("- Follow the heading with a one-paragraph summary of the document.\n")
	sb.WriteString("- Use only the facts present in the conversation; mark missing facts as [TO BE CONFIRMED].\n")

	user := fmt.Sprintf("Conversation between lawyer and assistant:\n%s\n\nDraft the %s now as complete Markdown.",
		dc.ConversationText, strings.ReplaceAll(docType, "_", " "))

	return Prompt{
		System:  sb.String(),
		User:    user,
		History: dc.History,
	}
}

// BuildRevisionPrompt regenerates a draft after rejection, feeding back the
// reviewer's feedback and the accumulated revision history.
func BuildRevisionPrompt(docType string, dc DraftContext) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a legal editor. Apply the minimum necessary changes to the document based on the feedback, keeping the Markdown structure.\n")
	sb.WriteString("- Keep the title heading and the summary paragraph in place.\n")
	sb.WriteString("- If the feedback is invalid or unreasonable, keep the original text and note why.\n")
	if dc.RejectionReason != "" {
		sb.WriteString(fmt.Sprintf("- The previous version was rejected because: %s\n", dc.RejectionReason))
	}

	user := fmt.Sprintf("Current document:\n%s\n\nReviewer feedback: %s\nOutput the full revised Markdown.",
		dc.PreviousBody, dc.Feedback)

	return Prompt{
		System:  sb.String(),
		User:    user,
		History: dc.History,
	}
}

// BuildResearchPrompt asks for a sourced legal-research answer as JSON.
func BuildResearchPrompt(question string, history []Message) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a legal research assistant covering case law, statutes and precedents.\n")
	sb.WriteString("Respond with JSON only: {\"answer\": \"<analysis>\", \"sources\": [\"<citation>\", ...]}\n")
	sb.WriteString("Cite every authority you rely on. If nothing relevant exists, say so in the answer with an empty sources list.")

	return Prompt{
		System:  sb.String(),
		User:    question,
		History: history,
	}
}

// BuildExtractionPrompt turns raw document text into structured fields.
func BuildExtractionPrompt(text string) Prompt {
	var sb strings.Builder
	sb.WriteString("You extract structured information from legal documents.\n")
	sb.WriteString("Respond with JSON only: {\"parties\": [...], \"dates\": [...], \"key_terms\": [...], \"summary\": \"...\"}\n")
	sb.WriteString("Use empty arrays for fields the document does not contain.")

	return Prompt{
		System: sb.String(),
		User:   fmt.Sprintf("Document text:\n%s", text),
	}
}

// BuildReviewPrompt asks for a compliance/evidence review of a document.
func BuildReviewPrompt(text string, history []Message) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a legal reviewer. Assess the document for completeness, internal consistency and compliance issues.\n")
	sb.WriteString("Answer in Markdown with sections: Findings, Issues, Recommendations.")

	return Prompt{
		System:  sb.String(),
		User:    fmt.Sprintf("Document under review:\n%s", text),
		History: history,
	}
}

// BuildChatPrompt handles general conversation that matched no specialist.
func BuildChatPrompt(message string, history []Message) Prompt {
	return Prompt{
		System:  "You are a helpful legal assistant for practicing lawyers. Answer concisely and flag anything that needs a specialist request (research, drafting, extraction or evidence review).",
		User:    message,
		History: history,
	}
}

// BuildAnalysisPrompt asks whether a transcript contains document-creation
// intent and which facts are already on the table.
func BuildAnalysisPrompt(transcript string) Prompt {
	var sb strings.Builder
	sb.WriteString("You analyze lawyer-assistant conversations for document-creation intent.\n")
	sb.WriteString("Known document types: ")
	sb.WriteString(strings.Join(DocumentTypes, ", "))
	sb.WriteString(".\nRespond with JSON only: {\"has_document_intent\": bool, \"document_type\": \"<type>\", \"confidence\": 0.0-1.0, \"parties\": [...], \"key_terms\": [...], \"missing_info\": [...]}")

	return Prompt{
		System: sb.String(),
		User:   fmt.Sprintf("Conversation:\n%s", transcript),
	}
}
