// Package session keeps the live puzzle sessions of the server.
//
// Every session owns one engine.GameEngine and is addressed by a 4-character hex ID.
// IDs are case-insensitive and are stored lower case. Manager guards the session map
// with a RWMutex; moves on a single session are serialized by the game service above it.
//
// With a SessionPersistence attached, sessions are written on create and after every
// access, and are lazily loaded on Get when they are not in memory. FilePersistence
// stores one JSON file per session and validates the stored board on load.
//
// Usage:
//
//	manager := session.NewManagerWithPersistence(persistence)
//	sess, err := manager.Create("", config)
//	if err != nil {
//		return err
//	}
//	sess, err = manager.Get(sess.ID)
package session
