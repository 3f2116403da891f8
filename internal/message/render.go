package message

// Audience はメッセージの対象区分。
type Audience string

const (
	// AudienceAdmin は管理者。
	AudienceAdmin Audience = "admin"
	// AudienceUser は認証済みの一般ユーザー。
	AudienceUser Audience = "user"
	// AudienceGuest は未認証の利用者。
	AudienceGuest Audience = "guest"
)

// messages は対象区分ごとのメッセージ。
var messages = map[Audience]string{
	AudienceAdmin: "Welcome, Admin! You have full access.",
	AudienceUser:  "Welcome, Authenticated user! Limited access.",
	AudienceGuest: "Access denied. Invalid user.",
}

// AudienceOf はフラグから対象区分を決定する。
// is_validがfalseの場合、is_adminに関わらずguestになる。
func AudienceOf(isValid, isAdmin bool) Audience {
	switch {
	case !isValid:
		return AudienceGuest
	case isAdmin:
		return AudienceAdmin
	default:
		return AudienceUser
	}
}

// Render はフラグに対応するメッセージを返す。
func Render(isValid, isAdmin bool) string {
	return messages[AudienceOf(isValid, isAdmin)]
}
