// Package events records playback and authentication lifecycle events.
//
// Every event is appended as one JSON object per line to a log file that other local tools tail:
//
//	{"id":"…","component":"spotify","event":"spotify.track.played","data":{…},"timestamp":"2025-01-02T15:04:05Z"}
//
// An [Emitter] may also mirror events into [Sink]s such as [SQLiteSink], which backs
// `spotx events tail`. Emitting is fire-and-forget; failures never reach the command.
package events
