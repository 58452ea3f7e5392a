package billform

import "slices"

// Bill types.
const (
	TypeExpense   = "expense"
	TypeIncome    = "income"
	TypeTransfer  = "transfer"
	TypeRepayment = "repayment"
)

// CategoryOther is the fallback category of both expense and income bills.
const CategoryOther = "Other"

var categories = map[string][]string{
	TypeExpense: {
		"Meals", "Snacks", "Clothing", "Transport", "Travel", "Children", "Pets", "Phone & Internet", "Tobacco & Alcohol", "Education", "Daily Necessities",
		"Housing", "Beauty", "Medical", "Red Packets Sent", "Car & Fuel", "Entertainment", "Gifts & Treats", "Electronics", "Sports", CategoryOther, "Utilities",
	},
	TypeIncome: {
		"Salary", "Living Allowance", "Red Packets Received", "Side Income", "Investments", CategoryOther,
	},
}

// Categories returns the categories allowed for billType, or nil if the type has no categories (transfers and repayments) or is unknown.
func Categories(billType string) []string {
	return slices.Clone(categories[billType])
}

// ValidCategory reports whether category is allowed for billType. Types without categories accept anything.
func ValidCategory(billType, category string) bool {
	list, ok := categories[billType]
	if !ok {
		return true
	}
	return slices.Contains(list, category)
}
