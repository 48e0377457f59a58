package workflow

import (
	"fmt"
	"strings"
	"time"

	"wakili_legal_assistant/agent"
)

// planSteps builds the step plan from conversation analysis. When the
// transcript shows document intent, the plan is tailored to what is still
// missing; otherwise the generic legal pipeline is used. The plan is fixed
// at creation and never re-planned.
func planSteps(an agent.Analysis) (name, description string, steps []*Step) {
	if !an.HasDocumentIntent {
		name = fmt.Sprintf("Legal Workflow %s", time.Now().Format("2006-01-02 15:04"))
		description = "Multi-step legal document processing workflow"
		steps = []*Step{
			newStep(1, "Research", "Legal research and case law analysis"),
			newStep(2, "Extraction", "Document information extraction"),
			newStep(3, "Drafting", "Document drafting and generation"),
			newStep(4, "Validation", "Legal compliance and quality check"),
			newStep(5, "Review", "Final review and approval"),
		}
		return name, description, steps
	}

	docName := strings.ReplaceAll(an.DocumentType, "_", " ")
	name = titleWords(docName) + " Workflow"
	description = "Document creation workflow for " + docName

	n := 1
	steps = append(steps, newStep(n, "Information Gathering", "Collect and organize required information from conversation"))
	n++
	if len(an.Parties) == 0 {
		steps = append(steps, newStep(n, "Party Information", "Define parties involved in the document"))
		n++
	}
	if len(an.KeyTerms) == 0 {
		steps = append(steps, newStep(n, "Key Terms Definition", "Define key terms and conditions"))
		n++
	}
	steps = append(steps, newStep(n, "Legal Requirements", "Identify and verify legal requirements"))
	n++
	steps = append(steps, newStep(n, "Document Generation", "Generate the document based on collected information"))
	n++
	steps = append(steps, newStep(n, "Review & Validation", "Review document for accuracy and compliance"))
	n++
	steps = append(steps, newStep(n, "Final Approval", "Final review and approval"))
	return name, description, steps
}

func newStep(n int, name, description string) *Step {
	return &Step{
		ID:          fmt.Sprintf("step_%d", n),
		Name:        name,
		Description: description,
		Status:      StepPending,
	}
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
