package server

import (
	"fmt"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxShareCodeLength = 64

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// registerValidators installs the custom binding rules on gin's validator
func registerValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
			return
		}
		validatorsErr = v.RegisterValidation("sharecode", func(fl validator.FieldLevel) bool {
			return validShareCode(fl.Field().String())
		})
	})
	return validatorsErr
}

// validShareCode accepts printable codes without whitespace
func validShareCode(code string) bool {
	if code == "" || len(code) > maxShareCodeLength {
		return false
	}
	for _, r := range code {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
