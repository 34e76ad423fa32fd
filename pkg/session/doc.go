/*
Package session runs playback sessions on top of the player engine.

A session is the persisted domain.State of one learner playing one module.
The Manager loads the module graph on every transition, so edits made in the
editor are picked up by in-flight sessions. All operations on a session are
serialized by a per-session mutex and, optionally, a distributed lock.
*/
package session
