package pipeline

import (
	"time"

	"fit-import/internal/fitmsg"
	"fit-import/internal/model"
)

// sentinelEnd closes the window of a synthesized session until trackpoint
// assignment finds the real last timestamp.
var sentinelEnd = time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

// localOffset derives the local-time offset from the activity message's
// paired timestamps. Files missing either timestamp get zero offset, so
// local columns degrade to UTC instead of going empty.
func localOffset(a *model.Activity) time.Duration {
	if a.TimestampLocal == nil || a.TimestampUTC == nil {
		return 0
	}
	return a.TimestampLocal.Sub(*a.TimestampUTC)
}

// buildSessions classifies the session messages and fills derived columns.
// Corrupt recordings that decoded zero sessions get exactly one synthesized
// session spanning from the file creation time to a far-future sentinel, so
// their trackpoints still have a home.
func buildSessions(src fitmsg.Source, a *model.Activity) []*model.Session {
	sessions := classifySessions(src, a.Filename)
	offset := localOffset(a)
	for _, s := range sessions {
		if s.StartTimeUTC != nil {
			local := s.StartTimeUTC.Add(offset)
			s.StartTimeLocal = &local
		}
	}
	if len(sessions) == 0 {
		end := sentinelEnd
		s := &model.Session{
			Filename:    a.Filename,
			Synthesized: true,
			EndTimeUTC:  &end,
		}
		if a.TimeCreated != nil {
			start := *a.TimeCreated
			s.StartTimeUTC = &start
		}
		sessions = append(sessions, s)
	}
	return sessions
}
