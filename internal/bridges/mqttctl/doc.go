// Package mqttctl bridges one head unit board to MQTT.
//
// Commands arrive as JSON on headunit/command/{board_id}:
//
//	{"id": "c1", "command": "volume", "parameters": {"value": -20, "unit": "db"}}
//
// Every command gets an acknowledgement on headunit/ack/{board_id} with
// status "accepted" and the effective value, or "failed" with one of the
// ErrCode* codes. State changes from any source are published retained
// on headunit/state/{board_id} in both units, and a retained health
// message goes to headunit/health/{board_id} every interval. Connect the
// MQTT client with
//
//	mqtt.WithWill(mqtt.Topics{}.Health(id), mqttctl.LWTPayload(id))
//
// so the broker marks the board offline when the process dies.
package mqttctl
