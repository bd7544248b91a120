package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys, grouped by the screen that shows them
const (
	ShareCodeTitle                = "ShareCodeLogin.title"
	ShareCodeSmallTitle           = "ShareCodeLogin.smallTitle"
	ShareCodeSubTitle             = "ShareCodeLogin.subTitle"
	ShareCodePlaceholder          = "ShareCodeLogin.placeholder"
	ShareCodeTip                  = "ShareCodeLogin.tip"
	ShareCodeButtonText           = "ShareCodeLogin.buttonText"
	ShareCodeOrUseEmail           = "ShareCodeLogin.orUseEmail"
	ShareCodeInvalidCode          = "ShareCodeLogin.invalidCode"
	ShareCodeAuthenticationFailed = "ShareCodeLogin.authenticationFailed"

	EmailCodeTitle                = "EmailCodeLogin.title"
	EmailCodeEmailPlaceholder     = "EmailCodeLogin.emailPlaceholder"
	EmailCodeCodePlaceholder      = "EmailCodeLogin.codePlaceholder"
	EmailCodeInvalidEmail         = "EmailCodeLogin.invalidEmail"
	EmailCodeInvalidCode          = "EmailCodeLogin.invalidCode"
	EmailCodeSendFailed           = "EmailCodeLogin.sendFailed"
	EmailCodeCodeSent             = "EmailCodeLogin.codeSent"
	EmailCodeAuthenticationFailed = "EmailCodeLogin.authenticationFailed"

	AvatorLogout = "Avator.logout"

	HomeLoggedInAs = "Home.loggedInAs"
	HomeLoggedOut  = "Home.loggedOut"
)

var (
	english = language.English
	chinese = language.MustParse("zh-CN")

	supported = []language.Tag{english, chinese}
	matcher   = language.NewMatcher(supported)
	messages  = newCatalog()
)

var translations = map[language.Tag]map[string]string{
	english: {
		ShareCodeTitle:                "Share code login",
		ShareCodeSmallTitle:           "No account needed",
		ShareCodeSubTitle:             "Devices that log in with the same share code sync with each other.",
		ShareCodePlaceholder:          "Share code",
		ShareCodeTip:                  "The share code expires 5 minutes after the last device leaves.",
		ShareCodeButtonText:           "Login",
		ShareCodeOrUseEmail:           "Login with email instead",
		ShareCodeInvalidCode:          "Please enter a share code.",
		ShareCodeAuthenticationFailed: "Authentication failed, please try again.",

		EmailCodeTitle:                "Email login",
		EmailCodeEmailPlaceholder:     "Email",
		EmailCodeCodePlaceholder:      "Verification code",
		EmailCodeInvalidEmail:         "Please enter a valid email address.",
		EmailCodeInvalidCode:          "Please enter the 6 digit code.",
		EmailCodeSendFailed:           "Could not send the verification code.",
		EmailCodeCodeSent:             "A verification code was sent to %s.",
		EmailCodeAuthenticationFailed: "Authentication failed, please try again.",

		AvatorLogout: "Logout",

		HomeLoggedInAs: "Logged in as %s",
		HomeLoggedOut:  "Not logged in",
	},
	chinese: {
		ShareCodeTitle:                "分享码登录",
		ShareCodeSmallTitle:           "无需账号",
		ShareCodeSubTitle:             "使用相同分享码登录的设备之间会互相同步。",
		ShareCodePlaceholder:          "分享码",
		ShareCodeTip:                  "最后一台设备离开 5 分钟后分享码失效。",
		ShareCodeButtonText:           "登录",
		ShareCodeOrUseEmail:           "使用邮箱登录",
		ShareCodeInvalidCode:          "请输入分享码。",
		ShareCodeAuthenticationFailed: "认证失败，请重试。",

		EmailCodeTitle:                "邮箱登录",
		EmailCodeEmailPlaceholder:     "邮箱",
		EmailCodeCodePlaceholder:      "验证码",
		EmailCodeInvalidEmail:         "请输入有效的邮箱地址。",
		EmailCodeInvalidCode:          "请输入 6 位验证码。",
		EmailCodeSendFailed:           "验证码发送失败。",
		EmailCodeCodeSent:             "验证码已发送至 %s。",
		EmailCodeAuthenticationFailed: "认证失败，请重试。",

		AvatorLogout: "退出登录",

		HomeLoggedInAs: "当前登录：%s",
		HomeLoggedOut:  "未登录",
	},
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(english))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Translator renders messages for one locale
type Translator struct {
	locale  string
	printer *message.Printer
}

// New returns a translator for the closest supported match of locale.
// Unknown or malformed locales fall back to English.
func New(locale string) *Translator {
	tag := Match(locale)
	return &Translator{
		locale:  tag.String(),
		printer: message.NewPrinter(tag, message.Catalog(messages)),
	}
}

// Match returns the supported tag closest to locale
func Match(locale string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return english
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return english
	}
	return supported[index]
}

// Locale is the matched locale, used as the route prefix
func (t *Translator) Locale() string {
	return t.locale
}

// T renders the message stored under key
func (t *Translator) T(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}
