// Package api serves the sliding puzzle over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 create a session ({"config_id": "mini"})
//   - GET    /api/sessions                 list sessions (?sort=created|accessed&order=asc|desc&limit=n)
//   - GET    /api/sessions/unified         several sessions at once (?sessionIds=a,b or ?configName=c)
//   - GET    /api/sessions/{id}            session info with its game state
//   - DELETE /api/sessions/{id}            delete a session
//
// Game:
//   - GET    /api/sessions/{id}/state      current game state
//   - POST   /api/sessions/{id}/move       {"direction": "up"}, {"index": 11} or {"tile_id": "tile-12"}
//   - POST   /api/sessions/{id}/bulk-move  {"moves": ["up", "left"], "new_game": false}
//   - POST   /api/sessions/{id}/new-game   shuffle a fresh board
//   - GET    /api/sessions/{id}/history    paginated move history (?page&limit&order)
//
// Configurations:
//   - GET    /api/configs                  list puzzle configurations
//   - GET    /api/configs/{name}           one configuration
//   - POST   /api/configs                  save a configuration
//
// Tools:
//   - POST   /api/analyze                  analyze a board given as "board" text or "values"
//   - GET    /api/health                   liveness check
//   - GET    /ws?session={id}              WebSocket updates for a session
//
// Errors are returned as {"error": "..."}. Unknown sessions and configurations map to
// 404, malformed requests and invalid moves to 400. A rejected move is not an error:
// it returns 200 with success false and the reason in attempted_to.
package api
