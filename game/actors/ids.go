// Package actors holds the hand-written actor scripts shipped with the engine
// and the builder that binds cast entries to them.
package actors

// Game flags shared by the built-in scripts.
const (
	FlagPatrolStart       = 100 // partner starts the patrol
	FlagAlarm             = 101 // raised by the partner on the checkpoint
	FlagReplicantsActive  = 102
	FlagPartnerRetired    = 103
	FlagInformantGreeted  = 104
	FlagDetectiveEndTalk  = 105 // ends the detective's talk loop on its next idle frame
	FlagInformantTipGiven = 106
)

// Global variables shared by the built-in scripts.
const (
	VarEvidenceFound       = 10
	VarEvidenceMissed      = 11
	VarGetUpCounter        = 12
	VarReplicantsRemaining = 13
	VarInformantTalks      = 14
)

// Clues referenced by the built-in scripts.
const (
	ClueCrimeSceneNotes  = 1
	ClueDetectiveStupid  = 2
	ClueRetiredSuspect   = 3
	ClueLetSuspectEscape = 4
	ClueHelpedSuspect    = 5
	ClueDetectiveKind    = 6
	ClueInformantTip     = 7
	ClueDetectiveAnnoys  = 8
)

// Dialogue lines.
const (
	LineInformantGreeting = 1000
	LineInformantFriendly = 1010
	LineInformantNeutral  = 1020
	LineInformantHostile  = 1030
	LinePartnerReport     = 2000
	LinePartnerCheckpoint = 2010
)

// Sounds.
const (
	SoundGetUp   = 300
	SoundGunshot = 301
)
