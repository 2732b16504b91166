package medications

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	vOnce sync.Once
	vInst *validator.Validate
)

func validate() *validator.Validate {
	vOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// nombres en camelCase, igual que el JSON de la API
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return lowerFirst(fld.Name)
		})
		vInst = v
	})
	return vInst
}

// Validate revisa el documento completo antes de persistirlo.
// No revisa el formato de DoseTimes: entradas legacy malformadas se toleran en el store.
func Validate(m Medication) error {
	err := validate().Struct(m)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Medication.")
		if fe.Param() != "" {
			fields[key] = fe.Tag() + "=" + fe.Param()
		} else {
			fields[key] = fe.Tag()
		}
	}
	return &ValidationError{MedicationID: m.ID, Fields: fields}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	// "ID" -> "id", "UserID" -> "userID"
	if len(r) > 1 && unicode.IsUpper(r[1]) && len(s) == 2 {
		return strings.ToLower(s)
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
