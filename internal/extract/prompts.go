package extract

import (
	"strings"

	"github.com/pfalabs/finance-assistant/internal/category"
	"github.com/pfalabs/finance-assistant/internal/domain"
)

// receiptPrompt builds the structured-output prompt for whole-receipt
// extraction. The model is constrained to the closed vocabulary and told to
// skip summary lines; the response must be a bare JSON array.
func receiptPrompt(rawText string) string {
	var b strings.Builder

	b.WriteString("You are a receipt parser for a personal finance tracker.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Extract every purchasable line item from the receipt text below.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array of objects.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"description\": string, the item name\n")
	b.WriteString("- \"amount\": number, the item price (positive)\n")
	b.WriteString("- \"type\": \"income\" or \"expense\"\n")
	b.WriteString("- \"category\": string, one of the predefined categories below\n\n")

	b.WriteString("Income categories:\n")
	b.WriteString(category.PromptList(category.IncomeCategories))
	b.WriteString("\nExpense categories:\n")
	b.WriteString(category.PromptList(category.ExpenseCategories))

	b.WriteString("\nRules:\n")
	b.WriteString("- Skip total, subtotal, tax, GST and other summary lines.\n")
	b.WriteString("- Use category \"Uncategorized\" when unsure.\n")
	b.WriteString("- Return [] if no line item qualifies.\n")
	b.WriteString("- Return ONLY valid raw JSON.\n")
	b.WriteString("- Do NOT wrap the response in code fences.\n")
	b.WriteString("- Output must begin with \"[\" and end with \"]\".\n\n")

	b.WriteString("Receipt text:\n")
	b.WriteString(rawText)

	return b.String()
}

// descriptionPrompt builds the narrower prompt for classifying a single
// user-entered description into a {type, category} pair.
func descriptionPrompt(description string, hint domain.Type) string {
	var b strings.Builder

	b.WriteString("You are a finance assistant. Categorize this transaction description:\n")
	b.WriteString("\"" + description + "\"\n\n")
	b.WriteString("Output STRICT JSON only: a single object with fields\n")
	b.WriteString("- \"type\": \"income\" or \"expense\"\n")
	b.WriteString("- \"category\": string, one of the predefined categories below\n\n")

	b.WriteString("Income categories:\n")
	b.WriteString(category.PromptList(category.IncomeCategories))
	b.WriteString("\nExpense categories:\n")
	b.WriteString(category.PromptList(category.ExpenseCategories))

	b.WriteString("\nIf unclear, use type \"" + string(hint) + "\" and category \"Uncategorized\".\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")

	return b.String()
}
