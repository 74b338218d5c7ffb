// This file implements parsing and validation of request bodies into
// domain inputs. Both JSON and form-encoded bodies are accepted.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendly/internal/core"
)

const maxBodyBytes = 1 << 20

// ValidationError describes input that was well-formed but unacceptable.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var errEmptyPatch = errors.New("no fields to update")

// RequestBodyParser reads a request body once and exposes its fields
// regardless of encoding.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object,
// otherwise as form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(body), &p.jsonData)
		return p.err
	}
	if body[0] == '[' {
		p.err = errors.New("expected a JSON object")
		return p.err
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Has reports whether key was supplied, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns the sanitized string value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseExpenseDraft builds a validated draft. A missing date defaults to
// today's date according to now.
func parseExpenseDraft(p *RequestBodyParser, now time.Time) (core.ExpenseDraft, error) {
	d := core.ExpenseDraft{
		Title:      p.Get("title"),
		CategoryID: p.Get("categoryId"),
		WalletID:   p.Get("walletId"),
		Merchant:   p.Get("merchant"),
		Notes:      p.Get("notes"),
		ReceiptRef: p.Get("receiptRef"),
		Date:       core.DateOf(now),
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.ExpenseDraft{}, &ValidationError{Field: "amount", Err: err}
	}
	d.Amount = amount

	if v := p.Get("date"); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			return core.ExpenseDraft{}, &ValidationError{Field: "date", Err: core.ErrMissingDate}
		}
		d.Date = date
	}

	if err := d.Validate(); err != nil {
		return core.ExpenseDraft{}, &ValidationError{Field: draftField(err), Err: err}
	}
	return d, nil
}

func draftField(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "amount"
	case errors.Is(err, core.ErrMissingDate):
		return "date"
	default:
		return "title"
	}
}

// parseExpensePatch builds a patch from the supplied fields only, applying
// the same rules as a new expense to each of them.
func parseExpensePatch(p *RequestBodyParser) (core.ExpensePatch, error) {
	var patch core.ExpensePatch

	if p.Has("title") {
		title := p.Get("title")
		switch {
		case title == "":
			return patch, &ValidationError{Field: "title", Err: core.ErrEmptyTitle}
		case len(title) > 200:
			return patch, &ValidationError{Field: "title", Err: core.ErrTitleTooLong}
		}
		patch.Title = &title
	}
	if p.Has("amount") {
		amount, err := core.ParseAmount(p.Get("amount"))
		if err != nil {
			return patch, &ValidationError{Field: "amount", Err: err}
		}
		patch.Amount = &amount
	}
	if p.Has("date") {
		date, err := core.ParseDate(p.Get("date"))
		if err != nil {
			return patch, &ValidationError{Field: "date", Err: core.ErrMissingDate}
		}
		patch.Date = &date
	}
	patch.CategoryID = optionalString(p, "categoryId")
	patch.WalletID = optionalString(p, "walletId")
	patch.Merchant = optionalString(p, "merchant")
	patch.Notes = optionalString(p, "notes")
	patch.ReceiptRef = optionalString(p, "receiptRef")

	if patch.IsEmpty() {
		return patch, &ValidationError{Field: "body", Err: errEmptyPatch}
	}
	return patch, nil
}

func parseProfilePatch(p *RequestBodyParser) (core.ProfilePatch, error) {
	patch := core.ProfilePatch{
		Email:       optionalString(p, "email"),
		DisplayName: optionalString(p, "displayName"),
		FirstName:   optionalString(p, "firstName"),
		LastName:    optionalString(p, "lastName"),
		Phone:       optionalString(p, "phone"),
		Bio:         optionalString(p, "bio"),
	}
	if patch == (core.ProfilePatch{}) {
		return patch, &ValidationError{Field: "body", Err: errEmptyPatch}
	}
	if patch.Email != nil && !strings.Contains(*patch.Email, "@") {
		return patch, &ValidationError{Field: "email", Err: errors.New("invalid email address")}
	}
	return patch, nil
}

type credentials struct {
	Email       string
	Password    string
	DisplayName string
}

func parseCredentials(p *RequestBodyParser, needName bool) (credentials, error) {
	c := credentials{
		Email:       p.Get("email"),
		Password:    p.Get("password"),
		DisplayName: p.Get("displayName"),
	}
	switch {
	case !strings.Contains(c.Email, "@"):
		return c, &ValidationError{Field: "email", Err: errors.New("invalid email address")}
	case c.Password == "":
		return c, &ValidationError{Field: "password", Err: errors.New("password required")}
	case needName && c.DisplayName == "":
		return c, &ValidationError{Field: "displayName", Err: errors.New("display name required")}
	}
	return c, nil
}

func optionalString(p *RequestBodyParser, key string) *string {
	if !p.Has(key) {
		return nil
	}
	v := p.Get(key)
	return &v
}
