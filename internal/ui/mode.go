package ui

// Mode is the room widget's UI state. Transitions are explicit; there is no
// fall-through between modes.
type Mode int

const (
	ModeConnecting Mode = iota
	ModeConnectionFailed
	ModeSettingPassword
	ModeAuthenticating
	ModeSettingNick
	ModeViewing
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeConnecting:
		return "connecting"
	case ModeConnectionFailed:
		return "connection failed"
	case ModeSettingPassword:
		return "setting password"
	case ModeAuthenticating:
		return "authenticating"
	case ModeSettingNick:
		return "setting nick"
	case ModeViewing:
		return "viewing"
	case ModeEditing:
		return "editing"
	}
	return "unknown"
}
