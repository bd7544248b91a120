package mailer

import (
	"fmt"
	"strings"
)

// VerificationCode renders the login code mail. language is the raw
// Accept-Language header; userAgent is the requesting client's User-Agent.
func VerificationCode(to, code, language, userAgent string) Message {
	os, browser := describeClient(userAgent)

	if strings.HasPrefix(language, "zh-CN") {
		body := fmt.Sprintf("请输入您的验证码: %s. 该验证码有效期5分钟. 为保护您的账户, 请不要分享这个验证码.", code)
		if os != "" {
			body += "<br>请求自 " + os
			if browser != "" {
				body += " " + browser
			}
			body += "."
		}
		return Message{To: to, Subject: fmt.Sprintf("%s是您的验证码", code), HTML: body}
	}

	body := fmt.Sprintf("Enter the verification code when prompted: %s. Code will expire in 5 minutes. To protect your account, do not share this code.", code)
	if os != "" {
		body += "<br>Requested from " + os
		if browser != "" {
			body += " " + browser
		}
		body += "."
	}
	return Message{To: to, Subject: fmt.Sprintf("%s is your verification code", code), HTML: body}
}

var osTokens = []struct{ token, name string }{
	{"Windows", "Windows"},
	{"iPhone", "iOS"},
	{"iPad", "iOS"},
	{"Android", "Android"},
	{"Mac OS X", "macOS"},
	{"CrOS", "ChromeOS"},
	{"Linux", "Linux"},
}

// order matters: Edge and Chrome both claim Safari
var browserTokens = []struct{ token, name string }{
	{"Edg/", "Edge"},
	{"Firefox/", "Firefox"},
	{"Chrome/", "Chrome"},
	{"Safari/", "Safari"},
	{"gcopy/", "gcopy CLI"},
}

func describeClient(userAgent string) (os, browser string) {
	for _, t := range osTokens {
		if strings.Contains(userAgent, t.token) {
			os = t.name
			break
		}
	}
	for _, t := range browserTokens {
		if strings.Contains(userAgent, t.token) {
			browser = t.name
			break
		}
	}
	return os, browser
}
