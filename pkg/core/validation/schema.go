package validation

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/jakechorley/wfh-portal/pkg/core/dateset"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

// Field names used as FieldErrors keys
const (
	FieldType   = "type"
	FieldReason = "reason"
	FieldDate   = "date"
	FieldFile   = "file"
)

// FieldErrors maps a field name to a human-readable message.
// An empty map means the draft is valid.
type FieldErrors map[string]string

// Fields returns the names of fields with errors, sorted
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Error renders every field error on one line
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, name := range fe.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, fe[name]))
	}
	return strings.Join(parts, "; ")
}

// Capabilities describes what the hosting environment can do.
// It is decided once by the host and passed to NewSchema.
type Capabilities struct {
	// FileAccess is true when attachments can be read from the local filesystem
	FileAccess bool
}

// messages overrides the translated defaults for specific field/tag pairs
var messages = map[string]string{
	"type.required":   "Type is required",
	"type.oneof":      "Type must be AM, PM or full",
	"reason.required": "Reason is required",
	"date.required":   "Please select at least one date",
	"date.min":        "Please select at least one date",
}

// candidate is the validated shape of a draft
type candidate struct {
	Type   string   `json:"type" validate:"required,oneof=AM PM full"`
	Reason string   `json:"reason" validate:"required"`
	Date   []string `json:"date" validate:"required,min=1"`
}

// Schema validates WFH request drafts
type Schema struct {
	validate   *validator.Validate
	translator ut.Translator
	caps       Capabilities
}

// NewSchema builds a schema for the given host capabilities
func NewSchema(caps Capabilities) (*Schema, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}

	return &Schema{
		validate:   validate,
		translator: trans,
		caps:       caps,
	}, nil
}

// Capabilities returns the capabilities the schema was built with
func (s *Schema) Capabilities() Capabilities {
	return s.caps
}

// Validate checks a draft and returns field-level errors.
// It never panics or errors for expected validation failures.
func (s *Schema) Validate(d model.Draft) FieldErrors {
	c := candidate{
		Type:   string(d.Type),
		Reason: d.Reason,
	}
	if d.Dates != nil {
		c.Date = make([]string, len(d.Dates))
		for i, t := range d.Dates {
			c.Date[i] = dateset.FormatDay(t)
		}
	}

	errs := FieldErrors{}

	if err := s.validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			errs[FieldType] = err.Error()
			return errs
		}
		for _, fe := range validationErrors {
			field := strings.SplitN(fe.Field(), "[", 2)[0]
			if _, exists := errs[field]; exists {
				continue
			}
			if msg, ok := messages[field+"."+fe.Tag()]; ok {
				errs[field] = msg
			} else {
				errs[field] = fe.Translate(s.translator)
			}
		}
	}

	if msg := s.checkFiles(d.Files); msg != "" {
		errs[FieldFile] = msg
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// checkFiles applies the capability-dependent attachment rule.
// With file access each attachment must be in memory or an existing regular file.
// Without it only in-memory attachments can be sent.
func (s *Schema) checkFiles(files []model.Attachment) string {
	for _, f := range files {
		if f.InMemory() {
			continue
		}
		if !s.caps.FileAccess {
			return fmt.Sprintf("File %q cannot be read in this environment", f.Name)
		}
		if f.Path == "" {
			return fmt.Sprintf("File %q has no content", f.Name)
		}
		info, err := os.Stat(f.Path)
		if err != nil {
			return fmt.Sprintf("File %q could not be found", f.Name)
		}
		if !info.Mode().IsRegular() {
			return fmt.Sprintf("File %q is not a regular file", f.Name)
		}
	}
	return ""
}
