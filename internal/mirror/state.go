package mirror

// State is the connection state of a Mirror.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateSynced
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSynced:
		return "synced"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}
