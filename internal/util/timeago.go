// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the fintra-tui application.
package util

import (
	"time"

	"golang.org/x/text/language"
)

// Relative-time buckets for the session list. Anything a week or older
// falls back to a calendar date in the configured language's layout.
const (
	timeAgoHour = 60 * time.Minute
	timeAgoDay  = 24 * time.Hour
	timeAgoWeek = 7 * 24 * time.Hour
)

// dateLayouts maps supported UI languages to calendar-date layouts.
var dateLayouts = map[language.Tag]string{
	language.Turkish: "02.01.2006",
	language.English: "2006-01-02",
}

var dateMatcher = language.NewMatcher([]language.Tag{
	language.Turkish, // first entry is the fallback
	language.English,
})

// TimeAgo formats the elapsed time between t and now as a short label:
// "now" under a minute, then "{m} min", "{h} h", "{d} d", and a calendar
// date once a week has passed. It is a pure function of now.Sub(t).
func TimeAgo(t, now time.Time, lang string) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "now"
	case diff < timeAgoHour:
		return IntToString(int(diff.Minutes())) + " min"
	case diff < timeAgoDay:
		return IntToString(int(diff.Hours())) + " h"
	case diff < timeAgoWeek:
		return IntToString(int(diff.Hours()/24)) + " d"
	}

	return t.Format(dateLayout(lang))
}

// dateLayout picks the calendar-date layout for a BCP 47 language tag.
// Unknown or empty tags resolve through the matcher to the fallback.
func dateLayout(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Turkish
	}
	_, idx, _ := dateMatcher.Match(tag)
	matched := []language.Tag{language.Turkish, language.English}[idx]
	return dateLayouts[matched]
}
