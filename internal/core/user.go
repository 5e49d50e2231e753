package core

import "strings"

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	DefaultCurrency = "USD"
	DefaultLanguage = "en"
)

// Recognized recurrence frequencies for income sources.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// SentinelCategory is always appended to user-configured category options so
// a transaction can be filed even when no configured category matches.
const SentinelCategory = "Other"

// DefaultExpenseCategories is the fallback list used when a user has not
// configured any expense categories of their own.
var DefaultExpenseCategories = []string{
	"Food",
	"Transportation",
	"Housing",
	"Entertainment",
	"Utilities",
	"Shopping",
	"Healthcare",
	"Education",
	SentinelCategory,
}

type (
	// IncomeSource is a user-defined origin of income. A recurring source
	// with a non-zero Amount is materialized into income transactions
	// automatically by the recurring processor.
	IncomeSource struct {
		Name        string
		IsRecurring bool
		Frequency   string // daily, weekly, monthly, yearly
		Amount      Money  // expected amount per occurrence, zero to disable
	}

	// CategoryDef is a user-defined default category for one transaction type.
	CategoryDef struct {
		Name string
		Type TransactionType
	}

	// Preferences is the per-user settings document. Optional fields are
	// resolved to concrete defaults once at the boundary via Normalize.
	Preferences struct {
		Currency          string
		Language          string
		Theme             string
		IncomeSources     []IncomeSource
		DefaultCategories []CategoryDef
	}

	// User is the authenticated account as seen by the client.
	User struct {
		ID          string
		Username    string
		Email       string
		AvatarURL   string
		Preferences Preferences
		Onboarded   bool
	}

	// Session is a signed-in user plus the opaque bearer credential that
	// authorizes remote operations on their behalf.
	Session struct {
		User  User
		Token string
	}
)

// Normalize resolves empty optional fields to their defaults. Call it once
// when preferences cross a boundary (login, restore, server response), never
// ad hoc at each read site.
func (p Preferences) Normalize() Preferences {
	if strings.TrimSpace(p.Currency) == "" {
		p.Currency = DefaultCurrency
	}
	if strings.TrimSpace(p.Language) == "" {
		p.Language = DefaultLanguage
	}
	switch p.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		p.Theme = ThemeLight
	}
	return p
}

// ExpenseCategoryNames returns the names of the user-configured expense
// categories, in configured order.
func (p Preferences) ExpenseCategoryNames() []string {
	var names []string
	for _, c := range p.DefaultCategories {
		if c.Type == Expense {
			names = append(names, c.Name)
		}
	}
	return names
}

// IncomeSourceNames returns the names of the configured income sources.
func (p Preferences) IncomeSourceNames() []string {
	var names []string
	for _, s := range p.IncomeSources {
		names = append(names, s.Name)
	}
	return names
}

// Valid reports whether the session carries both a user and a credential.
func (s Session) Valid() bool {
	return s.User.ID != "" && s.Token != ""
}
