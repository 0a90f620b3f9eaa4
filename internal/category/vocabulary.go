// Package category defines the closed category vocabulary shared by the
// classifier, the AI prompts, response validation and the category-list API.
// It is defined exactly once; callers receive the same immutable lists.
package category

import "strings"

// Uncategorized is the universal fallback. It belongs to both vocabulary
// sets and is reached only by exhaustion, never by keyword match.
const Uncategorized = "Uncategorized"

// IncomeCategories is the fixed, ordered list of income category labels.
// The order is significant: the local classifier scans keyword entries in
// this order, so earlier categories win ties.
var IncomeCategories = []string{
	"Salary",
	"Freelance",
	"Business",
	"Investment",
	"Gift",
	"Other Income",
	Uncategorized,
}

// ExpenseCategories is the fixed, ordered list of expense category labels.
var ExpenseCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Travel",
	"Groceries",
	"Rent",
	"Insurance",
	"Subscriptions",
	"Personal Care",
	"Clothing",
	"Electronics",
	"Home & Garden",
	"Sports & Fitness",
	"Gifts & Donations",
	"Banking Fees",
	"Taxes",
	"GST",
	Uncategorized,
}

// Keywords maps a vocabulary category to the lowercase substrings that
// trigger a match against free text. Every key must be a member of the
// vocabulary set it is consulted for; Uncategorized never has keywords.
var Keywords = map[string][]string{
	// Income
	"Salary":       {"salary", "wages", "pay", "earnings", "stipend"},
	"Freelance":    {"freelance", "freelancing", "contract", "gig", "project payment"},
	"Business":     {"business", "profit", "revenue", "sales", "commission"},
	"Investment":   {"dividend", "interest", "returns", "mutual fund", "stocks", "sip"},
	"Gift":         {"gift", "present", "birthday money", "festival money"},
	"Other Income": {"bonus", "incentive", "reward", "rent received", "rental", "tenant"},

	// Expense
	"Food & Dining":     {"food", "restaurant", "cafe", "dinner", "lunch", "breakfast", "meal", "pizza", "burger", "coffee", "tea", "dining", "swiggy", "zomato", "biryani", "dosa", "idli", "cappuccino", "sandwich"},
	"Groceries":         {"grocery", "supermarket", "vegetables", "fruits", "milk", "bread", "rice", "dal", "market", "reliance fresh", "big bazaar", "sabzi"},
	"Transportation":    {"fuel", "petrol", "diesel", "uber", "ola", "taxi", "bus", "train", "metro", "parking", "toll", "auto", "rickshaw", "cab", "irctc"},
	"Bills & Utilities": {"electricity", "water", "gas bill", "internet", "wifi", "mobile bill", "phone bill", "utility", "maintenance", "broadband", "postpaid", "prepaid"},
	"Healthcare":        {"medicine", "pharmacy", "doctor", "hospital", "clinic", "medical", "health", "tablet", "injection", "checkup", "consultation"},
	"Entertainment":     {"movie", "cinema", "game", "netflix", "amazon prime", "hotstar", "music", "concert", "pvr", "inox", "bookmyshow"},
	"Education":         {"school", "college", "university", "course", "book", "tuition", "fees", "education", "coaching", "exam"},
	"Shopping":          {"shopping", "clothes", "shirt", "shoes", "mobile", "laptop", "amazon", "flipkart", "myntra", "ajio"},
	"Travel":            {"hotel", "flight", "booking", "travel", "vacation", "trip", "tourism", "ticket", "makemytrip", "goibibo", "oyo"},
	"Rent":              {"rent", "house rent", "apartment", "flat", "accommodation", "pg", "hostel"},
	"Insurance":         {"insurance", "premium", "policy", "lic"},
	"GST":               {"gst", "service tax", "cgst", "sgst", "igst", "tds"},
	"Banking Fees":      {"atm", "charges", "penalty", "emi", "loan", "installment", "annual charges"},
	"Subscriptions":     {"subscription", "monthly plan", "annual plan", "membership", "gym", "spotify", "youtube premium"},
}

// IsIncome reports whether name is a member of the income vocabulary.
func IsIncome(name string) bool {
	return contains(IncomeCategories, name)
}

// IsExpense reports whether name is a member of the expense vocabulary.
func IsExpense(name string) bool {
	return contains(ExpenseCategories, name)
}

func contains(list []string, name string) bool {
	for _, c := range list {
		if c == name {
			return true
		}
	}
	return false
}

// PromptList renders a vocabulary list as a bulleted block for embedding in
// model prompts.
func PromptList(list []string) string {
	var b strings.Builder
	for _, c := range list {
		b.WriteString("- " + c + "\n")
	}
	return b.String()
}
