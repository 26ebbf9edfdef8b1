package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/pot-code/learn-progress/internal/infrastructure/i18n"
)

// PlaygroundV10 Validator implementation using go-playground
type PlaygroundV10 struct {
	core    *validator.Validate
	catalog *i18n.Catalog
}

var _ Validator = &PlaygroundV10{}

// NewValidator create a new Validator, messages follow the catalog locale
func NewValidator(catalog *i18n.Catalog) (*PlaygroundV10, error) {
	validate := validator.New()
	trans := catalog.Translator()

	var err error
	switch catalog.Locale() {
	case "zh":
		err = zh_translations.RegisterDefaultTranslations(validate, trans)
	default:
		err = en_translations.RegisterDefaultTranslations(validate, trans)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register validation translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "-" || name == "" {
			return ""
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = name[:i]
		}
		return name
	})
	return &PlaygroundV10{
		core:    validate,
		catalog: catalog,
	}, nil
}

// Struct validate struct
func (v *PlaygroundV10) Struct(s interface{}) []*FieldError {
	var result []*FieldError
	if err := v.core.Struct(s); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*FieldError{NewFieldError("", err.Error())}
		}
		for _, item := range errs {
			result = append(result, NewFieldError(item.Field(), item.Translate(v.catalog.Translator())))
		}
		return result
	}
	return nil
}

// Empty check if value is empty
func (v *PlaygroundV10) Empty(varName string, s interface{}) []*FieldError {
	if err := v.core.Var(s, "required"); err != nil {
		return []*FieldError{NewFieldError(varName, fmt.Sprintf("%s is required", varName))}
	}
	return nil
}
