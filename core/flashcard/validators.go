package flashcard

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
)

var (
	visibilityTag  = "visibility"
	visibilityText = "visibility must be one of all, enrolled or completed"
)

// RegisterValidators registers the flashcard validators & their translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(visibilityTag, visibilityValidation)
	core.RegisterCustomTranslation(validate, translator, visibilityTag, visibilityText)
}

func visibilityValidation(fl validator.FieldLevel) bool {
	return lms.Visibility(fl.Field().String()).IsValid()
}
