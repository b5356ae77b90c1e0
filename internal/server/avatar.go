package server

import (
	"strings"

	"github.com/comigor/ideavault/internal/session"
)

const (
	avatarAssistant = "/icons/assistant.svg"
	avatarHello     = "/icons/hello.svg"
	avatarUser      = "/icons/user.svg"
	avatarDefault   = "/icons/default.svg"
)

var greetings = []string{"Hello", "Hi", "Hey", "Greetings", "Howdy", "What's up", "Wassup"}

// Avatar picks the icon shown next to a message.
func Avatar(role session.Role, content string) string {
	switch role {
	case session.RoleAssistant:
		return avatarAssistant
	case session.RoleUser:
		for _, g := range greetings {
			if strings.HasPrefix(content, g) {
				return avatarHello
			}
		}
		return avatarUser
	default:
		return avatarDefault
	}
}
