package chat

// SelectionState tracks the lifecycle of the active conversation view.
//
//	Unselected -> Loading -> Ready | Empty
//	Ready | Empty -> Loading (switch or reload)
type SelectionState int

const (
	Unselected SelectionState = iota
	Loading
	Ready
	Empty
)

func (s SelectionState) String() string {
	switch s {
	case Unselected:
		return "unselected"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Notice signals that someone else wrote in the active conversation.
// How it is rendered (toast, badge) is up to the presentation layer.
type Notice struct {
	ConversationID ConversationID
	MessageID      MessageID
	SenderID       Identity
	Preview        string
}
