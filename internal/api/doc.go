// Package api implements the head unit's HTTP REST API and WebSocket server.
//
// All routes live under /api/v1:
//
//	GET  /health                  no auth
//	POST /auth/login              operator credentials -> JWT
//	POST /auth/ws-ticket          single-use WebSocket ticket
//	GET  /ws?ticket=...           live board.state_changed events
//	GET  /board                   full snapshot
//	PUT  /board/power, /board/mute {"on": bool}
//	POST /board/reset
//	GET|PUT /dsp/volume, /dsp/bass, /dsp/treble {"value": n}
//	GET|PUT /dsp/balance          {"left": n, "right": n}
//	GET|PUT /dsp/input            {"input": n, "loudness": bool, "gain": n}
//	GET|PUT /tuner/tune           {"frequency": MHz}
//	PUT  /tuner/step              always 422
//	GET  /history?limit=n
//
// DSP values are register levels unless the request carries ?unit=db.
// Every route except health, login and the WebSocket upgrade needs an
// "Authorization: Bearer" header.
//
// A WebSocket client subscribes with {"type":"subscribe","payload":
// {"channels":["board.state_changed"]}}. It gets the current state once
// (source "snapshot"), then one event per applied change.
//
// Radio errors map to status codes: an unsupported step is 422, a failed
// bus or line write 502, a closed board 503.
//
// The server follows the same lifecycle as the other components:
//
//	srv, err := api.New(deps)
//	svc.AddListener(srv.OnStateChange)
//	srv.Start(ctx)
//	defer srv.Close()
package api
