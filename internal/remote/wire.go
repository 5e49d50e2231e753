package remote

import (
	"time"

	"bilancio/internal/core"
)

// Wire types shared by the HTTP client and the server handlers. Amounts
// travel as integer cents.

type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TransactionDraft struct {
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
}

type TransactionPatch struct {
	Type        *string `json:"type,omitempty"`
	AmountCents *int64  `json:"amount_cents,omitempty"`
	Category    *string `json:"category,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
}

type IncomeSource struct {
	Name        string `json:"name"`
	IsRecurring bool   `json:"is_recurring"`
	Frequency   string `json:"frequency,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
}

type CategoryDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Preferences struct {
	Currency          string         `json:"currency"`
	Language          string         `json:"language"`
	Theme             string         `json:"theme"`
	IncomeSources     []IncomeSource `json:"income_sources,omitempty"`
	DefaultCategories []CategoryDef  `json:"default_categories,omitempty"`
}

type User struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	Preferences Preferences `json:"preferences"`
	Onboarded   bool        `json:"onboarded"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func TransactionToWire(t core.Transaction) Transaction {
	return Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Title:       t.Title,
		Description: t.Description,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (w Transaction) ToCore() core.Transaction {
	return core.Transaction{
		ID:          w.ID,
		UserID:      w.UserID,
		Type:        core.TransactionType(w.Type),
		Amount:      core.Money{Cents: w.AmountCents},
		Category:    w.Category,
		Title:       w.Title,
		Description: w.Description,
		Date:        w.Date,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func DraftToWire(d core.TransactionDraft) TransactionDraft {
	return TransactionDraft{
		Type:        string(d.Type),
		AmountCents: d.Amount.Cents,
		Category:    d.Category,
		Title:       d.Title,
		Description: d.Description,
		Date:        d.Date,
	}
}

func (w TransactionDraft) ToCore() core.TransactionDraft {
	return core.TransactionDraft{
		Type:        core.TransactionType(w.Type),
		Amount:      core.Money{Cents: w.AmountCents},
		Category:    w.Category,
		Title:       w.Title,
		Description: w.Description,
		Date:        w.Date,
	}
}

func PatchToWire(p core.TransactionPatch) TransactionPatch {
	var w TransactionPatch
	if p.Type != nil {
		s := string(*p.Type)
		w.Type = &s
	}
	if p.Amount != nil {
		c := p.Amount.Cents
		w.AmountCents = &c
	}
	w.Category = p.Category
	w.Title = p.Title
	w.Description = p.Description
	w.Date = p.Date
	return w
}

func (w TransactionPatch) ToCore() core.TransactionPatch {
	var p core.TransactionPatch
	if w.Type != nil {
		t := core.TransactionType(*w.Type)
		p.Type = &t
	}
	if w.AmountCents != nil {
		m := core.Money{Cents: *w.AmountCents}
		p.Amount = &m
	}
	p.Category = w.Category
	p.Title = w.Title
	p.Description = w.Description
	p.Date = w.Date
	return p
}

func PreferencesToWire(p core.Preferences) Preferences {
	w := Preferences{
		Currency: p.Currency,
		Language: p.Language,
		Theme:    p.Theme,
	}
	for _, s := range p.IncomeSources {
		w.IncomeSources = append(w.IncomeSources, IncomeSource{
			Name:        s.Name,
			IsRecurring: s.IsRecurring,
			Frequency:   s.Frequency,
			AmountCents: s.Amount.Cents,
		})
	}
	for _, c := range p.DefaultCategories {
		w.DefaultCategories = append(w.DefaultCategories, CategoryDef{
			Name: c.Name,
			Type: string(c.Type),
		})
	}
	return w
}

func (w Preferences) ToCore() core.Preferences {
	p := core.Preferences{
		Currency: w.Currency,
		Language: w.Language,
		Theme:    w.Theme,
	}
	for _, s := range w.IncomeSources {
		p.IncomeSources = append(p.IncomeSources, core.IncomeSource{
			Name:        s.Name,
			IsRecurring: s.IsRecurring,
			Frequency:   s.Frequency,
			Amount:      core.Money{Cents: s.AmountCents},
		})
	}
	for _, c := range w.DefaultCategories {
		p.DefaultCategories = append(p.DefaultCategories, core.CategoryDef{
			Name: c.Name,
			Type: core.TransactionType(c.Type),
		})
	}
	return p.Normalize()
}

func UserToWire(u core.User) User {
	return User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		Preferences: PreferencesToWire(u.Preferences),
		Onboarded:   u.Onboarded,
	}
}

func (w User) ToCore() core.User {
	return core.User{
		ID:          w.ID,
		Username:    w.Username,
		Email:       w.Email,
		AvatarURL:   w.AvatarURL,
		Preferences: w.Preferences.ToCore(),
		Onboarded:   w.Onboarded,
	}
}
