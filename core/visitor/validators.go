package visitor

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/sitepass/sitepass/core"
)

var (
	plantTag  = "plant"
	plantText = "unknown plant"
)

func init() {
	InitValidators(core.Validate, core.Translator)
}

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(plantTag, plantValidation)
	core.RegisterCustomTranslation(validate, translator, plantTag, plantText)
}

// plantValidation only allows members of the fixed plant set.
func plantValidation(fl validator.FieldLevel) bool {
	return Plant(fl.Field().String()).Valid()
}
