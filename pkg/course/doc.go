// Package course drives a JKO course player: it reads progress and lesson
// state out of the player's frames, clicks through lessons, and stops once
// the configured completion target is reached.
//
// A Session holds the configuration and run state for one attachment to a
// course page. Actions and Inspector operate on it, and Controller runs the
// polling loop that ties them together.
package course
