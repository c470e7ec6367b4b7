// Package eventping runs the /eventping workflow: it provisions a temporary
// voice room under the guild's war room category, marks the initiator as the
// event leader, invites every reachable member by direct message, and hands
// the room to a background monitor that deletes it once it empties.
//
// The package talks to Discord only through the ResourceProvider and
// MemberDirectory interfaces so the workflow and the monitor state machine can
// be exercised against in-memory fakes. The Registry owns every running
// monitor and guarantees at most one per room.
package eventping
