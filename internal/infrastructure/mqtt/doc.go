// Package mqtt connects the head unit to an MQTT broker.
//
// The client wraps paho.mqtt.golang with auto-reconnect, subscription
// restoration after reconnects, panic-safe handlers and a retained
// online/offline status on headunit/system/status. A caller can replace
// the Last Will with WithWill, which the board bridge uses to mark its
// health topic offline.
//
// # Topics
//
//	headunit/command/{board_id}  commands in (QoS 1, not retained)
//	headunit/ack/{board_id}      acknowledgements out
//	headunit/state/{board_id}    board state (retained)
//	headunit/health/{board_id}   bridge health and LWT (retained)
//	headunit/system/status       process status (retained)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.Command("main"), 1, handler)
package mqtt
