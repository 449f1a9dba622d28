package validate

import (
	"reflect"
	"regexp"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// SlugTag lowercase identifiers such as course ids, eg. html, css-3
const SlugTag = "slug"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// PlaygroundV10 Validator implementation using go-playground
type PlaygroundV10 struct {
	core  *validator.Validate
	trans ut.Translator
}

var _ Validator = &PlaygroundV10{}

// NewValidator create a new Validator, messages are translated to locale (en or zh, en when unknown)
func NewValidator(locale string) *PlaygroundV10 {
	en := en.New()
	zh := zh.New()
	uni := ut.New(en, en, zh)
	trans, found := uni.GetTranslator(locale)
	if !found {
		trans, _ = uni.GetTranslator("en")
	}

	validate := validator.New()
	if locale == "zh" {
		zh_translations.RegisterDefaultTranslations(validate, trans)
	} else {
		en_translations.RegisterDefaultTranslations(validate, trans)
	}
	validate.RegisterValidation(SlugTag, func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	validate.RegisterTranslation(SlugTag, trans, func(ut ut.Translator) error {
		return ut.Add(SlugTag, "{0} must be a lowercase identifier", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		msg, _ := ut.T(SlugTag, fe.Field())
		return msg
	})
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "-" || name == "" {
			name = fld.Tag.Get("param")
			if name == "-" || name == "" {
				return ""
			}
		}
		return name
	})
	return &PlaygroundV10{
		core:  validate,
		trans: trans,
	}
}

// Struct validate struct
func (v PlaygroundV10) Struct(s interface{}) []*FieldError {
	var result []*FieldError
	if err := v.core.Struct(s); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*FieldError{NewFieldError("", err.Error())}
		}
		for _, item := range verrs {
			result = append(result, NewFieldError(item.Field(), item.Translate(v.trans)))
		}
		return result
	}
	return nil
}

// Var validate single value
func (v PlaygroundV10) Var(varName string, value interface{}, tag string) []*FieldError {
	var result []*FieldError
	if err := v.core.Var(value, tag); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*FieldError{NewFieldError(varName, err.Error())}
		}
		for _, item := range verrs {
			// Var errors carry no field name, the translation starts with an empty one
			msg := varName + item.Translate(v.trans)
			result = append(result, NewFieldError(varName, msg))
		}
		return result
	}
	return nil
}
