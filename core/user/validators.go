package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/access"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	// password policy
	passwordTag  = "pwdpolicy"
	pwdMinLen    = 8
	pwdMinText   = fmt.Sprintf("password must contain at least %d characters, without whitespace", pwdMinLen)
	pwdCplxTag   = "pwdcplx"
	pwdCplxText  = "password must contain at least 1 uppercase character, 1 lowercase character and 1 digit"
	pwdMaxSim    = .7
	pwdSimTag    = "pwdtoosim"
	pwdSimText   = "password cannot be similar to user attributes"
	pwdCommonTag = "pwdnocommon"
	pwdCommonTxt = "password is too common"

	commonPasswords = map[string]bool{
		"password1": true, "password123": true, "passw0rd": true, "qwerty123": true,
		"welcome1": true, "letmein1": true, "iloveyou1": true, "admin123": true,
	}
)

// InitValidators registers the user validation tags & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(passwordTag, passwordValidation)
	core.RegisterCustomTranslation(validate, translator, passwordTag, pwdMinText)
	core.RegisterCustomTranslation(validate, translator, pwdCplxTag, pwdCplxText)
	core.RegisterCustomTranslation(validate, translator, pwdCommonTag, pwdCommonTxt)

	validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdSimTag, pwdSimText)
}

// Validate cleans nu then runs the registered validations on it.
func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role)
	nu.Image = core.CleanString(nu.Image)
	return validate.Struct(nu)
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	_, ok := access.ParseRole(fl.Field().String())
	return ok
}

// passwordValidation checks length & whitespace; complexity is reported by newUserStructValidation
// so the message can be specific.
func passwordValidation(fl validator.FieldLevel) bool {
	return passwordFits(fl.Field().String())
}

func passwordFits(pwd string) bool {
	return len(pwd) >= pwdMinLen && strings.IndexFunc(pwd, unicode.IsSpace) < 0
}

func newUserStructValidation(sl validator.StructLevel) {
	nu, ok := sl.Current().Interface().(NewUser)
	if !ok || !passwordFits(nu.Password) {
		return // already reported by the field validation
	}
	reportErr := func(tag string) {
		sl.ReportError(nu.Password, "password", "Password", tag, "")
	}

	// - complexity: 1 upper, 1 lower & 1 digit
	var hasUpper, hasLower, hasDigit bool
	for _, char := range nu.Password {
		hasUpper = hasUpper || unicode.IsUpper(char)
		hasLower = hasLower || unicode.IsLower(char)
		hasDigit = hasDigit || unicode.IsDigit(char)
	}
	if !(hasUpper && hasLower && hasDigit) {
		reportErr(pwdCplxTag)
		return
	}

	// - no user attrs similarity
	if tooSimilar(nu.Password, nu.Name) || tooSimilar(nu.Password, nu.Email) {
		reportErr(pwdSimTag)
		return
	}

	// - no common passwords
	if commonPasswords[strings.ToLower(nu.Password)] {
		reportErr(pwdCommonTag)
	}
}

func tooSimilar(pwd, usrAttr string) bool {
	if usrAttr == "" {
		return false
	}
	pwd, usrAttr = strings.ToLower(pwd), strings.ToLower(usrAttr)
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(usrAttr, "")).QuickRatio() >= pwdMaxSim
}
