package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	sessionTypeTag  = "sessiontype"
	sessionTypeText = fmt.Sprintf("session type must be one of %s", strings.Join(SessionTypes, ", "))

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password is too similar to your name or email"
)

func init() {
	v, t := core.Validate, core.Translator

	_ = v.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(v, t, roleTag, roleText)

	_ = v.RegisterValidation(sessionTypeTag, sessionTypeValidation)
	core.RegisterCustomTranslation(v, t, sessionTypeTag, sessionTypeText)

	v.RegisterStructValidation(userStructValidation, NewStudent{}, NewUser{}, ChangePassword{})
	core.RegisterCustomTranslation(v, t, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(v, t, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(v, t, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(v, t, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}

func sessionTypeValidation(fl validator.FieldLevel) bool {
	st := fl.Field().String()
	for _, s := range SessionTypes {
		if strings.EqualFold(s, st) {
			return true
		}
	}
	return false
}

// userStructValidation applies the password policy to NewStudent, NewUser and ChangePassword.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewStudent:
		validatePassword(usr.Password, usr.Name, usr.Email, sl)
	case NewUser:
		validatePassword(usr.Password, usr.Name, usr.Email, sl)
	case ChangePassword:
		validatePassword(usr.Password, usr.name, usr.email, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	if pwd == "" {
		return // reported by "required"
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var digitCount int

	// - minLen: 8
	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range runes {
		// - no whitespace
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}

	// - not all numeric
	if digitCount == len(runes) {
		reportErr(pwdNotAllNumTag)
		return
	}

	// - no user attrs similarity
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		pass, usrAttr = strings.ToLower(pass), strings.ToLower(usrAttr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	localPart := email
	if i := strings.Index(email, "@"); i > 0 {
		localPart = email[:i]
	}
	if getRatio(pwd, name) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim ||
		getRatio(pwd, localPart) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
