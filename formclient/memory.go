package formclient

import "sync"

// MemoryElement is an in-memory Element.
type MemoryElement struct {
	mu      sync.Mutex
	visible bool
	content string
	html    bool
}

func (e *MemoryElement) Show() {
	e.mu.Lock()
	e.visible = true
	e.mu.Unlock()
}

func (e *MemoryElement) Hide() {
	e.mu.Lock()
	e.visible = false
	e.mu.Unlock()
}

func (e *MemoryElement) SetText(s string) {
	e.mu.Lock()
	e.content, e.html = s, false
	e.mu.Unlock()
}

func (e *MemoryElement) SetHTML(s string) {
	e.mu.Lock()
	e.content, e.html = s, true
	e.mu.Unlock()
}

// Visible reports whether the element is shown.
func (e *MemoryElement) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// Content returns the last text or markup set and whether it was markup.
func (e *MemoryElement) Content() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content, e.html
}

// MemoryForm is a Form held in memory. Reset restores the values the form
// was created with. A nil element field means the form has no such element.
type MemoryForm struct {
	ActionURL        string
	RecaptchaSiteKey string

	LoadingEl *MemoryElement
	SentEl    *MemoryElement
	ErrorEl   *MemoryElement

	mu       sync.Mutex
	defaults []Field
	values   []Field
	alerts   []string
}

// NewMemoryForm returns a form posting to action with all three feedback
// elements present.
func NewMemoryForm(action string, fields ...Field) *MemoryForm {
	return &MemoryForm{
		ActionURL: action,
		LoadingEl: &MemoryElement{},
		SentEl:    &MemoryElement{},
		ErrorEl:   &MemoryElement{},
		defaults:  append([]Field(nil), fields...),
		values:    append([]Field(nil), fields...),
	}
}

// Set changes the value of name, adding the field if needed.
func (f *MemoryForm) Set(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.values {
		if f.values[i].Name == name {
			f.values[i].Value = value
			return
		}
	}
	f.values = append(f.values, Field{Name: name, Value: value})
}

// Value returns the current value of name.
func (f *MemoryForm) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fl := range f.values {
		if fl.Name == name {
			return fl.Value
		}
	}
	return ""
}

// Alerts returns every message passed to Alert.
func (f *MemoryForm) Alerts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.alerts...)
}

func (f *MemoryForm) Action() string  { return f.ActionURL }
func (f *MemoryForm) SiteKey() string { return f.RecaptchaSiteKey }

func (f *MemoryForm) Fields() []Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Field(nil), f.values...)
}

func (f *MemoryForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append([]Field(nil), f.defaults...)
}

// The element accessors return untyped nil so callers can compare to nil.

func (f *MemoryForm) Loading() Element  { return element(f.LoadingEl) }
func (f *MemoryForm) Sent() Element     { return element(f.SentEl) }
func (f *MemoryForm) ErrorBox() Element { return element(f.ErrorEl) }

func (f *MemoryForm) Alert(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, msg)
}

func element(e *MemoryElement) Element {
	if e == nil {
		return nil
	}
	return e
}
