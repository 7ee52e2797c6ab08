package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	Income  CategoryType = "Income"
	Expense CategoryType = "Expense"
)

// Date layouts used on the wire and in dashboard labels.
const (
	DateLayout      = "2006-01-02"
	ShortDayLayout  = "02-Jan"
	LongDateLayout  = "02-Jan-2006"
	maxNoteLength   = 500
	maxNameLength   = 100
	minPasswordSize = 5
)

type (
	CategoryType string

	// Date is a calendar date stored as midnight UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID           int64      `json:"id"`
		Email        string     `json:"email"`
		FirstName    string     `json:"firstName"`
		LastName     string     `json:"lastName"`
		IsOAuth      bool       `json:"isOauth"`
		OAuthID      string     `json:"oauthId,omitempty"`
		OAuthPicture string     `json:"oauthPicture,omitempty"`
		PasswordHash string     `json:"-"`
		Categories   []Category `json:"categories,omitempty"`
	}

	// UserPatch holds the optional fields of a partial user update.
	UserPatch struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Password  *string `json:"password"`
	}

	OAuthProfile struct {
		Email         string `json:"email"`
		FirstName     string `json:"firstName"`
		LastName      string `json:"lastName"`
		OAuthID       string `json:"oauthId"`
		OAuthProvider string `json:"oauthProvider"`
		OAuthPicture  string `json:"oauthPicture"`
	}

	Category struct {
		ID     int64        `json:"id"`
		UserID int64        `json:"userId"`
		Name   string       `json:"name"`
		Type   CategoryType `json:"type"`
	}

	CategoryPatch struct {
		Name *string       `json:"name"`
		Type *CategoryType `json:"type"`
	}

	// Transaction is the read model joined with its category. CategoryName and
	// CategoryType are empty when the category no longer resolves.
	Transaction struct {
		ID           int64        `json:"id"`
		CategoryID   int64        `json:"categoryId"`
		UserID       int64        `json:"userId"`
		Amount       Money        `json:"amount"`
		Date         Date         `json:"date"`
		Note         string       `json:"note"`
		CategoryName string       `json:"categoryName,omitempty"`
		CategoryType CategoryType `json:"categoryType,omitempty"`
	}

	TransactionPatch struct {
		CategoryID *int64  `json:"categoryId"`
		Amount     *Money  `json:"amount"`
		Date       *Date   `json:"date"`
		Note       *string `json:"note"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidCategoryType = errors.New("the category type should be: Expense OR Income")
	ErrEmptyName           = errors.New("empty name")
	ErrCategoryRequired    = errors.New("category is required")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrShortPassword       = errors.New("password too short")
)

// Valid reports whether t is one of the two known category types.
func (t CategoryType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. Full RFC 3339 timestamps are accepted
// and truncated to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// ShortLabel renders the day as "dd-Mon", e.g. "18-Sep".
func (d Date) ShortLabel() string {
	return d.Format(ShortDayLayout)
}

// LongLabel renders the day as "dd-Mon-yyyy", e.g. "18-Sep-2024".
func (d Date) LongLabel() string {
	return d.Format(LongDateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > maxNameLength {
		return fmt.Errorf("name too long (max %d characters)", maxNameLength)
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	return nil
}

// Validate checks a new transaction, which must name a category.
func (t Transaction) Validate() error {
	if err := t.ValidateFields(); err != nil {
		return err
	}
	if t.CategoryID <= 0 {
		return ErrCategoryRequired
	}
	return nil
}

// ValidateFields checks everything but the category. A stored transaction
// loses its category when the category is deleted and stays editable.
func (t Transaction) ValidateFields() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if len(t.Note) > maxNoteLength {
		return fmt.Errorf("note too long (max %d characters)", maxNoteLength)
	}
	return nil
}

// ValidateRegistration checks the fields required to create a password user.
func ValidateRegistration(email, password, firstName, lastName string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if len(password) < minPasswordSize {
		return ErrShortPassword
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return ErrEmptyName
	}
	return nil
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func (p UserPatch) Validate() error {
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) == "" {
		return ErrEmptyName
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) == "" {
		return ErrEmptyName
	}
	if p.Password != nil && len(*p.Password) < minPasswordSize {
		return ErrShortPassword
	}
	return nil
}
