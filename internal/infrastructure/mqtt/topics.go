package mqtt

import "fmt"

// TopicPrefix is the root of every head unit topic.
const TopicPrefix = "headunit"

// Topics builds head unit topic names. Board topics take the board ID as
// the last level:
//
//	headunit/command/{board_id}
//	headunit/ack/{board_id}
//	headunit/state/{board_id}
//	headunit/health/{board_id}
type Topics struct{}

// Command is where clients send commands to a board.
func (Topics) Command(boardID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, boardID)
}

// Ack is where a board acknowledges commands.
func (Topics) Ack(boardID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, boardID)
}

// State carries the retained board state.
func (Topics) State(boardID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, boardID)
}

// Health carries the retained health report and the LWT.
func (Topics) Health(boardID string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, boardID)
}

// SystemStatus carries the process online/offline status.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// AllCommands matches commands for every board.
func (Topics) AllCommands() string {
	return TopicPrefix + "/command/+"
}

// AllStates matches state for every board.
func (Topics) AllStates() string {
	return TopicPrefix + "/state/+"
}
