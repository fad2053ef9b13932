package book

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MinISBNLength      = 10
	MaxISBNLength      = 17
	MinPublicationYear = 1000
)

// CreateInput is the payload accepted when creating a book.
type CreateInput struct {
	Title           *string `json:"title" validate:"required,min=1,max=255"`
	Author          *string `json:"author" validate:"required,min=1,max=255"`
	ISBN            *string `json:"isbn" validate:"required,min=10,max=17"`
	PublicationYear *int    `json:"publicationYear" validate:"required,gte=1000,notfuture"`
	Available       *bool   `json:"available"`
}

// UpdateInput is the payload accepted by PUT and PATCH. Every field is optional.
type UpdateInput struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	Author          *string `json:"author" validate:"omitempty,min=1,max=255"`
	ISBN            *string `json:"isbn" validate:"omitempty,min=10,max=17"`
	PublicationYear *int    `json:"publicationYear" validate:"omitempty,gte=1000,notfuture"`
	Available       *bool   `json:"available"`
}

func (in CreateInput) command() NewBook {
	nb := NewBook{
		Title:           *in.Title,
		Author:          *in.Author,
		ISBN:            *in.ISBN,
		PublicationYear: *in.PublicationYear,
		Available:       true,
	}
	if in.Available != nil {
		nb.Available = *in.Available
	}
	return nb
}

func (in UpdateInput) patch() Patch {
	return Patch{
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		PublicationYear: in.PublicationYear,
		Available:       in.Available,
	}
}

// ParseID converts a path parameter into a book ID.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidID()
	}
	return id, nil
}

func invalidID() error {
	return invalid("id must be a positive integer", FieldError{Field: "id", Message: "id must be a positive integer"})
}

type payloadValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

func newPayloadValidator(now func() time.Time) *payloadValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(now().Year())
	})
	return &payloadValidator{validate: v, now: now}
}

func (pv *payloadValidator) check(in any) error {
	err := pv.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing []string
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
		fields = append(fields, FieldError{Field: fe.Field(), Message: pv.message(fe)})
	}

	if len(missing) > 0 {
		return invalid("missing required fields: "+strings.Join(missing, ", "), fields...)
	}
	return invalid("invalid book data", fields...)
}

func (pv *payloadValidator) message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	}

	switch field {
	case "isbn":
		return fmt.Sprintf("isbn must have between %d and %d characters", MinISBNLength, MaxISBNLength)
	case "publicationYear":
		return fmt.Sprintf("publicationYear must be between %d and %d", MinPublicationYear, pv.now().Year())
	}

	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be a non-empty string", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
