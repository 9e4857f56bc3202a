package editor

import (
	"github.com/mgpai22/kashi/internal/translate"
)

type Stats struct {
	Count     int
	FirstTime float64 // start of the first line
	LastTime  float64 // end of the last line
	Language  translate.Language
	Detected  bool

	AudioDuration float64
	PastAudioEnd  int // lines starting after the audio ends

	CanUndo bool
	CanRedo bool
}

func (s *Session) Stats() Stats {
	entries := s.store.All()
	st := Stats{
		Count:   len(entries),
		CanUndo: s.store.CanUndo(),
		CanRedo: s.store.CanRedo(),
	}
	if len(entries) == 0 {
		return st
	}

	st.FirstTime = entries[0].StartTime
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
		if end := e.End(); end > st.LastTime {
			st.LastTime = end
		}
	}
	st.Language, st.Detected = translate.DetectLanguage(texts)

	if s.audio != nil {
		st.AudioDuration = s.audio.Duration
		for _, e := range entries {
			if e.StartTime >= s.audio.Duration {
				st.PastAudioEnd++
			}
		}
	}
	return st
}
