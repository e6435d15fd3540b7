package main

import "fyne.io/fyne/v2"

// missingValue is never written by the manager, which only stores JSON
const missingValue = "\x00"

// prefsStore keeps annotations in the fyne app preferences
type prefsStore struct {
	prefs fyne.Preferences
}

func (s prefsStore) Get(key string) (string, bool, error) {
	v := s.prefs.StringWithFallback(key, missingValue)
	if v == missingValue {
		return "", false, nil
	}
	return v, true, nil
}

func (s prefsStore) Set(key, value string) error {
	s.prefs.SetString(key, value)
	return nil
}
